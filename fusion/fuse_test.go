package fusion

import (
	"math"
	"math/rand"
	"testing"

	"github.com/MrProteus/pfuclt-omni-dataset/obsbuf"
	"github.com/MrProteus/pfuclt-omni-dataset/particles"
)

func defaultParams(numLandmarks int) Params {
	return Params{
		LandmarkK1: 0.2, LandmarkK2: 0.5,
		TargetK3: 0.1, TargetK4: 0.05, TargetK5: 0.5,
		NumLandmarks: numLandmarks,
	}
}

func TestFuseRobotsDeterministic(t *testing.T) {
	const numRobots = 1
	s := particles.New(20, 3*numRobots+3+1)
	rng := rand.New(rand.NewSource(3))
	s.InitDefault(rng, numRobots, 1)
	comps := particles.NewComponents(20, numRobots)

	buf := &obsbuf.RobotBuffer{Landmarks: make([]obsbuf.LandmarkObservation, 1)}
	obs := obsbuf.LandmarkObservation{Found: true, X: 5, Y: 0, AreaActual: 100, AreaExpected: 100}
	obs.D = math.Hypot(obs.X, obs.Y)
	obs.Phi = math.Atan2(obs.Y, obs.X)
	buf.Landmarks[0] = obs

	world := [][2]float64{{5, 0}}
	thresh := []float64{100}
	p := defaultParams(1)

	FuseRobots(s, comps, 0, buf, world, thresh, p)
	first := append([]float64(nil), comps.Column(0)...)

	comps2 := particles.NewComponents(20, numRobots)
	FuseRobots(s, comps2, 0, buf, world, thresh, p)
	second := comps2.Column(0)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("fuse_robots not deterministic at particle %d: %f != %f", i, first[i], second[i])
		}
	}
}

func TestRecombineTriggersCollapseWhenSumTiny(t *testing.T) {
	s := particles.New(5, 4)
	comps := particles.NewComponents(5, 1)
	for i := range comps.Column(0) {
		comps.Column(0)[i] = 0
	}
	collapsed := Recombine(s, comps, 1e-10)
	if !collapsed {
		t.Fatalf("expected collapse recovery to fire")
	}
	want := 1.0 / 5.0
	for _, w := range s.Weights() {
		if math.Abs(w-want) > 1e-12 {
			t.Fatalf("weight %f, want uniform %f after collapse", w, want)
		}
	}
}

func TestRecombineIsProductOfComponents(t *testing.T) {
	s := particles.New(3, 5)
	comps := particles.NewComponents(3, 2)
	comps.Column(0)[0], comps.Column(0)[1], comps.Column(0)[2] = 2, 3, 4
	comps.Column(1)[0], comps.Column(1)[1], comps.Column(1)[2] = 5, 6, 7
	Recombine(s, comps, 0)
	want := []float64{10, 18, 28}
	for i, w := range want {
		if s.Weights()[i] != w {
			t.Fatalf("weight[%d] = %f, want %f", i, s.Weights()[i], w)
		}
	}
}

func TestFuseTargetSkipsNonFoundRobots(t *testing.T) {
	const numRobots = 2
	s := particles.New(4, 3*numRobots+3+1)
	rng := rand.New(rand.NewSource(1))
	s.InitDefault(rng, numRobots, 1)
	before := append([]float64(nil), s.Weights()...)

	targetObs := []obsbuf.TargetObservation{
		{Found: false},
		{Found: false},
	}
	FuseTarget(s, numRobots, 0, targetObs, []bool{true, true}, defaultParams(0))
	for i, w := range s.Weights() {
		if w != before[i] {
			t.Fatalf("weight changed despite no observing robots")
		}
	}
}
