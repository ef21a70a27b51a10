package estimate

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MrProteus/pfuclt-omni-dataset/particles"
)

// Confidence-cluster residual thresholds: a particle counts toward a
// robot's confidence mass when its pose falls within these bounds of
// the weighted mean.
const (
	confPosResidual = 0.30 // meters
	confAngResidual = 0.20 // radians
)

// RobotPose is a weighted-mean pose estimate with its compactness
// confidence.
type RobotPose struct {
	X, Y, Theta float64
	Conf        float64
	// Covariance is the weighted 2x2 position covariance, computed
	// alongside Conf (which is the weight mass inside the residual
	// bounds above) and exposed for diagnostics/plotting.
	Covariance *mat.SymDense
}

// EstimateRobotPose computes robot r's weighted-mean pose and
// confidence from store s, whose weights must already sum to 1.
func EstimateRobotPose(s *particles.Store, r int) RobotPose {
	base := particles.RobotOffset(r)
	xs := s.Subparticle(base)
	ys := s.Subparticle(base + 1)
	ths := s.Subparticle(base + 2)
	w := s.Weights()

	var meanX, meanY, sinSum, cosSum float64
	for i := range xs {
		meanX += w[i] * xs[i]
		meanY += w[i] * ys[i]
		sinSum += w[i] * math.Sin(ths[i])
		cosSum += w[i] * math.Cos(ths[i])
	}
	meanTheta := math.Atan2(sinSum, cosSum)

	var conf float64
	var varXX, varYY, varXY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		varXX += w[i] * dx * dx
		varYY += w[i] * dy * dy
		varXY += w[i] * dx * dy

		dth := particles.WrapAngle(ths[i] - meanTheta)
		if math.Abs(dx) < confPosResidual && math.Abs(dy) < confPosResidual && math.Abs(dth) < confAngResidual {
			conf += w[i]
		}
	}
	cov := mat.NewSymDense(2, nil)
	cov.SetSym(0, 0, varXX)
	cov.SetSym(1, 1, varYY)
	cov.SetSym(0, 1, varXY)

	return RobotPose{X: meanX, Y: meanY, Theta: meanTheta, Conf: math.Min(conf, 1.0), Covariance: cov}
}

// TargetPosition is the weighted-mean target position.
type TargetPosition struct {
	X, Y, Z float64
}

// EstimateTargetPosition computes target t's weighted-mean position.
func EstimateTargetPosition(s *particles.Store, numRobots, t int) TargetPosition {
	base := particles.TargetOffset(numRobots, t)
	xs := s.Subparticle(base)
	ys := s.Subparticle(base + 1)
	zs := s.Subparticle(base + 2)
	w := s.Weights()

	var out TargetPosition
	for i := range xs {
		out.X += w[i] * xs[i]
		out.Y += w[i] * ys[i]
		out.Z += w[i] * zs[i]
	}
	return out
}
