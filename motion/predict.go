// Package motion implements the odometry-driven prediction step: for
// one robot, compose its subparticles with an SE(2) odometry delta and
// perturb the result with noise from an α-parameterized motion model,
// the same four-coefficient family used by probabilistic-robotics
// sampling motion models (rotation-from-rotation, rotation-from-
// translation, translation-from-translation, translation-from-
// rotation).
package motion

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/MrProteus/pfuclt-omni-dataset/particles"
)

// Alpha is the four-coefficient odometry noise model for one robot.
type Alpha struct {
	A1, A2, A3, A4 float64
}

// DefaultAlpha matches the teacher-domain's default motion model.
func DefaultAlpha() Alpha {
	return Alpha{A1: 0.015, A2: 0.1, A3: 0.5, A4: 0.001}
}

// Delta is a relative SE(2) odometry step in the robot's body frame.
type Delta struct {
	DX, DY, DTheta float64
}

// randSource adapts *rand.Rand to gonum's exp/rand.Source interface,
// which differs from math/rand only in Seed's argument type.
type randSource struct{ r *rand.Rand }

func (s randSource) Uint64() uint64   { return s.r.Uint64() }
func (s randSource) Seed(seed uint64) { s.r.Seed(int64(seed)) }

// Predict propagates robot r's subparticles in store s by composing
// the current pose with delta and injecting Gaussian noise per alpha.
// Only columns 3r, 3r+1, 3r+2 are touched; every other robot's and the
// target's columns are left untouched. rng is caller-owned so callers
// can control determinism (tests, replay).
func Predict(rng *rand.Rand, s *particles.Store, r int, delta Delta, alpha Alpha) {
	base := particles.RobotOffset(r)
	xs := s.Subparticle(base)
	ys := s.Subparticle(base + 1)
	ths := s.Subparticle(base + 2)

	transDist := math.Hypot(delta.DX, delta.DY)
	rotDist := math.Abs(delta.DTheta)

	rotVar := alpha.A1*rotDist*rotDist + alpha.A2*transDist*transDist
	transVar := alpha.A3*transDist*transDist + alpha.A4*rotDist*rotDist

	rotNoise := distuv.Normal{Mu: 0, Sigma: math.Sqrt(math.Max(rotVar, 0)), Src: randSource{rng}}
	transNoise := distuv.Normal{Mu: 0, Sigma: math.Sqrt(math.Max(transVar, 0)), Src: randSource{rng}}

	for p := range xs {
		theta := ths[p]
		ct, st := math.Cos(theta), math.Sin(theta)

		// Compose current pose with the body-frame delta (SE(2) step).
		noisyDX := delta.DX + transNoise.Rand()
		noisyDY := delta.DY + transNoise.Rand()
		worldDX := ct*noisyDX - st*noisyDY
		worldDY := st*noisyDX + ct*noisyDY

		xs[p] += worldDX
		ys[p] += worldDY
		ths[p] = particles.WrapAngle(theta + delta.DTheta + rotNoise.Rand())
	}
}
