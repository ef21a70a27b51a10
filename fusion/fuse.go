// Package fusion implements the landmark and target likelihood models
// (fuse_robots, fuse_target) and the target motion prediction
// (predict_target). All three run per-particle across the P-length
// subparticle columns of a particles.Store.
package fusion

import (
	"math"

	"github.com/MrProteus/pfuclt-omni-dataset/obsbuf"
	"github.com/MrProteus/pfuclt-omni-dataset/particles"

	"gonum.org/v1/gonum/stat/distuv"
	"math/rand"
)

// Params bundles the covariance-calibration constants from Config.
type Params struct {
	LandmarkK1, LandmarkK2       float64
	TargetK3, TargetK4, TargetK5 float64
	NumLandmarks                 int
}

const twoPi = 2 * math.Pi

// landmarkCov returns the Cartesian observation-noise variances for a
// landmark sighting at range d, bearing phi.
func landmarkCov(d, phi, areaActual, areaExpected float64, p Params) (covXX, covYY float64, ok bool) {
	if areaExpected == 0 || d < 1e-6 {
		return 0, 0, false
	}
	covDD := p.LandmarkK1 * math.Abs(1.0-areaActual/areaExpected) * d * d
	covPP := float64(p.NumLandmarks) * p.LandmarkK2 / (d + 1)
	return cartesianVariances(phi, d, covDD, covPP)
}

// targetCov returns the Cartesian observation-noise variances for a
// target sighting at range d, bearing phi, with the sighting's
// mismatch factor.
func targetCov(d, phi, mismatch float64, p Params) (covXX, covYY float64, ok bool) {
	if mismatch == 0 || d < 1e-6 {
		return 0, 0, false
	}
	covDD := (1.0 / mismatch) * (p.TargetK3*d + p.TargetK4*d*d)
	covPP := p.TargetK5 / (d + 1)
	return cartesianVariances(phi, d, covDD, covPP)
}

func cartesianVariances(phi, d, covDD, covPP float64) (covXX, covYY float64, ok bool) {
	c2, s2 := math.Cos(phi)*math.Cos(phi), math.Sin(phi)*math.Sin(phi)
	covXX = c2*covDD + s2*(d*d*covPP+covDD*covPP)
	covYY = s2*covDD + c2*(d*d*covPP+covDD*covPP)
	if !isFinitePositive(covXX) || !isFinitePositive(covYY) {
		return 0, 0, false
	}
	return covXX, covYY, true
}

func isFinitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func gaussianLikelihood(rx, ry, covXX, covYY float64) float64 {
	norm := 1.0 / (twoPi * math.Sqrt(covXX*covYY))
	exponent := -0.5 * (rx*rx/covXX + ry*ry/covYY)
	return norm * math.Exp(exponent)
}

// FuseRobots runs C4.1 for robot r: for each particle, sums the
// Gaussian likelihood of every included landmark sighting into
// comps.Column(r). It does not recombine the global weight column;
// call Recombine (or Engine's recombine step) afterward.
func FuseRobots(s *particles.Store, comps *particles.Components, r int, buf *obsbuf.RobotBuffer, landmarkWorld [][2]float64, thresh []float64, p Params) {
	include := ApplyHeuristics(buf.Landmarks, thresh)
	base := particles.RobotOffset(r)
	xs := s.Subparticle(base)
	ys := s.Subparticle(base + 1)
	ths := s.Subparticle(base + 2)
	wc := comps.Column(r)

	for i := range wc {
		wc[i] = 0
	}

	for ell, inc := range include {
		if !inc {
			continue
		}
		obs := buf.Landmarks[ell]
		world := landmarkWorld[ell]
		for particleIdx := range xs {
			// Predicted observation ẑ = R(θ)ᵀ (m - t) in the robot frame.
			dx := world[0] - xs[particleIdx]
			dy := world[1] - ys[particleIdx]
			theta := ths[particleIdx]
			ct, st := math.Cos(theta), math.Sin(theta)
			predX := ct*dx + st*dy
			predY := -st*dx + ct*dy

			rx := obs.X - predX
			ry := obs.Y - predY

			covXX, covYY, ok := landmarkCov(obs.D, obs.Phi, obs.AreaActual, obs.AreaExpected, p)
			if !ok {
				continue
			}
			wc[particleIdx] += gaussianLikelihood(rx, ry, covXX, covYY)
		}
	}
}

// Recombine recomputes the global weight column as the per-particle
// product of every robot's weight component, then applies
// weight-collapse recovery if the resulting sum falls below
// epsilonMin. Returns true if recovery fired.
func Recombine(s *particles.Store, comps *particles.Components, epsilonMin float64) bool {
	w := s.Weights()
	comps.Recombine(w)
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	if sum < epsilonMin {
		s.ResetWeights(1.0 / float64(s.Size()))
		return true
	}
	return false
}

// FuseTarget runs C4.2: every observing (found=true) robot's target
// sighting multiplies the weight column by that robot's Gaussian
// target likelihood, evaluated against the particle's target
// position.
func FuseTarget(s *particles.Store, numRobots, targetIdx int, targetObs []obsbuf.TargetObservation, robotPlaying []bool, p Params) {
	w := s.Weights()
	base := particles.TargetOffset(numRobots, targetIdx)
	txs := s.Subparticle(base)
	tys := s.Subparticle(base + 1)

	for r, obs := range targetObs {
		if r < len(robotPlaying) && !robotPlaying[r] || !obs.Found {
			continue
		}
		rbase := particles.RobotOffset(r)
		rxs := s.Subparticle(rbase)
		rys := s.Subparticle(rbase + 1)
		rths := s.Subparticle(rbase + 2)

		covXX, covYY, ok := targetCov(obs.D, obs.Phi, obs.MismatchFactor, p)
		if !ok {
			continue
		}

		for particleIdx := range txs {
			theta := rths[particleIdx]
			ct, st := math.Cos(theta), math.Sin(theta)
			// Transform the observer-frame sighting into world coords.
			worldX := rxs[particleIdx] + ct*obs.X - st*obs.Y
			worldY := rys[particleIdx] + st*obs.X + ct*obs.Y

			rx := worldX - txs[particleIdx]
			ry := worldY - tys[particleIdx]
			w[particleIdx] *= gaussianLikelihood(rx, ry, covXX, covYY)
		}
	}
}

// randSource adapts *rand.Rand to gonum's exp/rand.Source interface,
// which differs from math/rand only in Seed's argument type.
type randSource struct{ r *rand.Rand }

func (s randSource) Uint64() uint64   { return s.r.Uint64() }
func (s randSource) Seed(seed uint64) { s.r.Seed(int64(seed)) }

// PredictTarget runs C4.3: propagates the target's subparticles using
// the velocity estimator's current estimate (vx, vy, vz) plus
// zero-mean Gaussian process noise whose std. dev. is stddev·dt, i.e.
// stddev is a per-second (m/s) spread.
func PredictTarget(rng *rand.Rand, s *particles.Store, numRobots, targetIdx int, vel [3]float64, dt, stddev float64) {
	base := particles.TargetOffset(numRobots, targetIdx)
	noise := distuv.Normal{Mu: 0, Sigma: stddev * dt, Src: randSource{rng}}
	for axis := 0; axis < 3; axis++ {
		col := s.Subparticle(base + axis)
		for i := range col {
			col[i] += vel[axis]*dt + noise.Rand()
		}
	}
}
