// Package obsbuf holds the per-robot observation buffers: the latest
// landmark sighting set and target sighting, plus the "all
// measurements done" flags the coordinator waits on. Each robot's
// buffer is single-writer (the goroutine handling that robot's
// callback); readers are the fusion steps, which only run after the
// matching done-signal, all under the engine's shared mutex.
package obsbuf

import "math"

// LandmarkObservation is one robot-frame sighting of a fixed landmark.
type LandmarkObservation struct {
	Found bool
	X, Y  float64
	// D, Phi are the polar form of (X, Y), cached at Set time.
	D, Phi float64
	// AreaActual/AreaExpected feed the landmark covariance model.
	AreaActual, AreaExpected float64
}

// TargetObservation is one robot-frame sighting of the shared target.
type TargetObservation struct {
	Found          bool
	X, Y, Z        float64
	D, Phi         float64
	MismatchFactor float64
}

// RobotBuffer is one robot's observation state.
type RobotBuffer struct {
	Landmarks     []LandmarkObservation
	Target        TargetObservation
	LandmarksDone bool
	TargetDone    bool
}

// Buffers is the set of per-robot observation buffers, indexed by
// robot id [0, R).
type Buffers struct {
	robots []RobotBuffer
}

// New allocates Buffers for numRobots robots, each with numLandmarks
// landmark slots.
func New(numRobots, numLandmarks int) *Buffers {
	b := &Buffers{robots: make([]RobotBuffer, numRobots)}
	for r := range b.robots {
		b.robots[r].Landmarks = make([]LandmarkObservation, numLandmarks)
	}
	return b
}

// Robot returns a pointer to robot r's buffer for direct mutation.
func (b *Buffers) Robot(r int) *RobotBuffer { return &b.robots[r] }

// SetLandmark records landmark ell's sighting for robot r, deriving
// the polar (d, φ) form used by the fusion covariance model.
func (b *Buffers) SetLandmark(r, ell int, obs LandmarkObservation) {
	obs.D, obs.Phi = polar(obs.X, obs.Y)
	b.robots[r].Landmarks[ell] = obs
}

// SetTarget records the target sighting for robot r.
func (b *Buffers) SetTarget(r int, obs TargetObservation) {
	obs.D, obs.Phi = polar(obs.X, obs.Y)
	b.robots[r].Target = obs
}

// MarkLandmarksDone flags robot r's landmark set as ready for fusion.
func (b *Buffers) MarkLandmarksDone(r int) { b.robots[r].LandmarksDone = true }

// MarkTargetDone flags robot r's target sighting as ready for fusion.
func (b *Buffers) MarkTargetDone(r int) { b.robots[r].TargetDone = true }

// ClearLandmarksDone resets robot r's landmark-ready flag after fusion
// has consumed the buffered set.
func (b *Buffers) ClearLandmarksDone(r int) { b.robots[r].LandmarksDone = false }

// ClearTargetDone resets robot r's target-ready flag after fusion has
// consumed the buffered sighting.
func (b *Buffers) ClearTargetDone(r int) { b.robots[r].TargetDone = false }

func polar(x, y float64) (d, phi float64) {
	return math.Hypot(x, y), math.Atan2(y, x)
}
