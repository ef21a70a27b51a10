package estimate

import (
	"math"
	"testing"
)

func TestVelocityEstimatorLinearMotion(t *testing.T) {
	const v = 1.0
	const b = 0.5
	ve := NewVelocityEstimator(15)
	for i := 0; i < 15; i++ {
		tt := float64(i) * 0.1
		ve.Add(tt, [3]float64{v*tt + b, 0, 0})
	}
	if !ve.Ready() {
		t.Fatalf("expected estimator to be ready after 15 samples")
	}
	vel, ok := ve.Estimate()
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if math.Abs(vel[0]-v) > 1e-3 {
		t.Fatalf("vel.x = %f, want ~%f", vel[0], v)
	}
	if math.Abs(vel[1]) > 1e-9 {
		t.Fatalf("vel.y = %f, want 0", vel[1])
	}
}

func TestVelocityEstimatorNotReadyBeforeCapacity(t *testing.T) {
	ve := NewVelocityEstimator(15)
	ve.Add(0, [3]float64{0, 0, 0})
	if ve.Ready() {
		t.Fatalf("should not be ready with 1 sample")
	}
	if _, ok := ve.Estimate(); ok {
		t.Fatalf("Estimate should return ok=false before capacity")
	}
}

func TestVelocityEstimatorEvictsOldest(t *testing.T) {
	ve := NewVelocityEstimator(3)
	ve.Add(0, [3]float64{0, 0, 0})
	ve.Add(1, [3]float64{1, 0, 0})
	ve.Add(2, [3]float64{2, 0, 0})
	ve.Add(3, [3]float64{3, 0, 0})
	if ve.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ve.Len())
	}
	if ve.times[0] != 1 {
		t.Fatalf("oldest sample not evicted, times[0] = %f", ve.times[0])
	}
}
