package pfuclt

import (
	"testing"

	"github.com/MrProteus/pfuclt-omni-dataset/motion"
	"github.com/MrProteus/pfuclt-omni-dataset/obsbuf"
)

type recordingObserver struct {
	snaps     []Snapshot
	collapses []string
}

func (r *recordingObserver) OnIterationComplete(snap Snapshot) { r.snaps = append(r.snaps, snap) }
func (r *recordingObserver) OnWeightCollapse(which string)     { r.collapses = append(r.collapses, which) }

func newTestConfig(numRobots int, playing []bool) Config {
	c := Config{
		P: 200, R: numRobots, T: 1, L: 3,
		Playing: playing,
		MainID:  0,
	}
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c
}

func bootstrap(t *testing.T, e *Engine, cfg Config) {
	t.Helper()
	for r := 0; r < cfg.R; r++ {
		if cfg.Playing[r] {
			e.OnOdometry(r, float64(r)+1, motion.Delta{})
		}
	}
}

func TestEngineStaysWaitingUntilAllPlayingReportOdometry(t *testing.T) {
	cfg := newTestConfig(2, []bool{true, true})
	e, err := NewEngine(cfg, nil, 1)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.OnOdometry(0, 1, motion.Delta{DX: 0.1})
	if e.state != stateWaiting {
		t.Fatalf("expected engine to still be waiting after only one robot reported odometry")
	}
	e.OnOdometry(1, 1, motion.Delta{DX: 0.1})
	if e.state != stateInitialized {
		t.Fatalf("expected engine to initialize once every playing robot reported odometry")
	}
}

func TestEngineIgnoresNonPlayingRobotOdometry(t *testing.T) {
	cfg := newTestConfig(3, []bool{true, false, true})
	e, err := NewEngine(cfg, nil, 2)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	e.OnOdometry(0, 1, motion.Delta{})
	e.OnOdometry(2, 1, motion.Delta{})
	if e.state != stateInitialized {
		t.Fatalf("expected initialization once both playing robots reported odometry, non-playing robot 1 ignored")
	}
}

func TestEnginePredictOnlyMovesReportingRobot(t *testing.T) {
	cfg := newTestConfig(2, []bool{true, true})
	e, err := NewEngine(cfg, nil, 3)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bootstrap(t, e, cfg)

	before := append([]float64(nil), e.store.Subparticle(3)...) // robot 1's x column
	e.OnOdometry(0, 2, motion.Delta{DX: 1.0})
	after := e.store.Subparticle(3)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("odometry for robot 0 perturbed robot 1's columns at particle %d", i)
		}
	}
}

func TestEngineOnlyMainRobotTargetAdvancesIteration(t *testing.T) {
	cfg := newTestConfig(2, []bool{true, true})
	e, err := NewEngine(cfg, nil, 4)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bootstrap(t, e, cfg)

	obs := obsbuf.TargetObservation{Found: true, X: 1, Y: 1}
	e.OnTarget(1, 10, obs) // peer robot, MainID is 0
	if e.haveLastTarget {
		t.Fatalf("peer robot's target sighting must not advance the iteration clock")
	}

	e.OnTarget(0, 10, obs) // main robot
	if !e.haveLastTarget {
		t.Fatalf("main robot's target sighting must advance the iteration clock")
	}
}

func TestEnginePublishesSnapshotOnMainRobotCycle(t *testing.T) {
	cfg := newTestConfig(2, []bool{true, true})
	obs := &recordingObserver{}
	e, err := NewEngine(cfg, nil, 5, obs)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bootstrap(t, e, cfg)

	e.OnTarget(0, 10, obsbuf.TargetObservation{Found: true, X: 1, Y: 0})
	if len(obs.snaps) != 1 {
		t.Fatalf("expected exactly one published snapshot, got %d", len(obs.snaps))
	}
	if len(obs.snaps[0].Robots) != cfg.R {
		t.Fatalf("snapshot has %d robot beliefs, want %d", len(obs.snaps[0].Robots), cfg.R)
	}
}

func TestEngineLandmarksBeforeInitAreBufferedNotFused(t *testing.T) {
	cfg := newTestConfig(2, []bool{true, true})
	e, err := NewEngine(cfg, nil, 6)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	// No bootstrap: engine is still WAITING.
	weightsBefore := append([]float64(nil), e.comps.Column(0)...)
	e.OnLandmarks(0, []obsbuf.LandmarkObservation{{Found: true, X: 1, Y: 1}})
	weightsAfter := e.comps.Column(0)
	for i := range weightsBefore {
		if weightsBefore[i] != weightsAfter[i] {
			t.Fatalf("fusion ran before the engine was initialized")
		}
	}
}

func TestEngineCheckTargetCollapseResetsUniform(t *testing.T) {
	cfg := newTestConfig(1, []bool{true})
	obs := &recordingObserver{}
	e, err := NewEngine(cfg, nil, 7, obs)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bootstrap(t, e, cfg)

	w := e.store.Weights()
	for i := range w {
		w[i] = 0
	}
	e.checkTargetCollapse()
	if len(w) == 0 {
		t.Fatal("no weights allocated")
	}
	want := 1.0 / float64(len(w))
	for _, v := range w {
		if v != want {
			t.Fatalf("post-collapse weight = %f, want %f", v, want)
		}
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	if _, err := NewEngine(Config{}, nil, 8); err == nil {
		t.Fatalf("expected NewEngine to reject a zero-value Config")
	}
}
