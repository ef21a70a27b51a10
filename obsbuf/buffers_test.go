package obsbuf

import (
	"math"
	"testing"
)

func TestSetLandmarkDerivesPolar(t *testing.T) {
	b := New(2, 3)
	b.SetLandmark(0, 1, LandmarkObservation{Found: true, X: 3, Y: 4})
	got := b.Robot(0).Landmarks[1]
	if math.Abs(got.D-5) > 1e-9 {
		t.Fatalf("D = %f, want 5", got.D)
	}
	want := math.Atan2(4, 3)
	if math.Abs(got.Phi-want) > 1e-9 {
		t.Fatalf("Phi = %f, want %f", got.Phi, want)
	}
}

func TestDoneFlagsIndependentPerRobot(t *testing.T) {
	b := New(3, 1)
	b.MarkLandmarksDone(1)
	if b.Robot(0).LandmarksDone || b.Robot(2).LandmarksDone {
		t.Fatalf("MarkLandmarksDone leaked to other robots")
	}
	if !b.Robot(1).LandmarksDone {
		t.Fatalf("robot 1 should be marked done")
	}
	b.ClearLandmarksDone(1)
	if b.Robot(1).LandmarksDone {
		t.Fatalf("ClearLandmarksDone did not clear")
	}
}
