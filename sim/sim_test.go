package sim

import (
	"os"
	"testing"
)

func testConfig() Config {
	return Config{
		NumRobots:           2,
		RobotRadius:         2.0,
		RobotAngularSpeed:   0.5,
		TargetVelocity:      [3]float64{0.1, 0, 0},
		TargetStart:         [3]float64{0, 0, 0.5},
		OdometryNoiseStddev: 0.01,
		LandmarkNoiseStddev: 0.02,
		TargetNoiseStddev:   0.02,
		MaxSensorRange:      10.0,
		MissProbability:     0,
		Seed:                42,
	}
}

func TestStepProducesOneStreamEntryPerRobot(t *testing.T) {
	landmarks := [][2]float64{{1, 1}, {-1, -1}}
	w := New(testConfig(), landmarks)
	step := w.Step(0.1)
	if len(step.Odometry) != 2 || len(step.Landmark) != 2 || len(step.Target) != 2 {
		t.Fatalf("expected 2 entries per stream, got odom=%d landmark=%d target=%d",
			len(step.Odometry), len(step.Landmark), len(step.Target))
	}
	if len(step.Landmark[0]) != 2 {
		t.Fatalf("expected 2 landmark slots, got %d", len(step.Landmark[0]))
	}
}

func TestSightingsDroppedBeyondMaxRange(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSensorRange = 0.01
	landmarks := [][2]float64{{100, 100}}
	w := New(cfg, landmarks)
	step := w.Step(0.1)
	for r, obs := range step.Landmark {
		if obs[0].Found {
			t.Fatalf("robot %d: expected out-of-range landmark to be not-found", r)
		}
	}
}

func TestSameSeedIsDeterministic(t *testing.T) {
	landmarks := [][2]float64{{1, 1}}
	a := New(testConfig(), landmarks)
	b := New(testConfig(), landmarks)
	sa := a.Step(0.1)
	sb := b.Step(0.1)
	if sa.Odometry[0] != sb.Odometry[0] {
		t.Fatalf("same seed produced different odometry: %+v vs %+v", sa.Odometry[0], sb.Odometry[0])
	}
}

func TestLoadTrajectoryCSVParsesRows(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "traj-*.csv")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString("0.0,1.0,2.0\n0.1,1.1,2.1\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	rows, err := LoadTrajectoryCSV(f.Name())
	if err != nil {
		t.Fatalf("LoadTrajectoryCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1][1] != 1.1 {
		t.Fatalf("row 1 x = %f, want 1.1", rows[1][1])
	}
}

func TestLoadTrajectoryCSVRejectsBadFieldCount(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "traj-*.csv")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString("0.0,1.0\n"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()

	if _, err := LoadTrajectoryCSV(f.Name()); err == nil {
		t.Fatalf("expected error on malformed row")
	}
}
