// Package sim generates a synthetic multi-robot/target world and
// derives the odometry, landmark, and target observation streams a
// real sensor stack would hand to the engine. It also replays fixed
// trajectory logs, for regression-testing against recorded runs.
package sim

import (
	"bufio"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/MrProteus/pfuclt-omni-dataset/motion"
	"github.com/MrProteus/pfuclt-omni-dataset/obsbuf"
)

// Config parameterizes one synthetic world.
type Config struct {
	NumRobots int
	// RobotRadius/RobotAngularSpeed drive a circular ground-truth path
	// per robot, offset by its index so robots do not overlap.
	RobotRadius       float64
	RobotAngularSpeed float64

	// TargetVelocity is the ground-truth constant target velocity
	// (m/s), integrated each Step.
	TargetVelocity [3]float64
	TargetStart    [3]float64

	OdometryNoiseStddev float64
	LandmarkNoiseStddev float64
	TargetNoiseStddev   float64

	// MaxSensorRange bounds visibility of a landmark or the target;
	// sightings beyond it are reported not-found.
	MaxSensorRange float64
	// MissProbability additionally drops an otherwise-visible sighting,
	// modeling occlusion.
	MissProbability float64

	Seed int64
}

// World holds ground-truth state and advances it deterministically
// given its own rng, so repeated runs from the same seed reproduce
// bit-identical observation streams.
type World struct {
	cfg       Config
	rng       *rand.Rand
	landmarks [][2]float64

	t          float64
	robotPose  [][3]float64
	targetPos  [3]float64
	odomNoise  distuv.Normal
	sightNoise distuv.Normal
}

// randSource adapts *rand.Rand to gonum's exp/rand.Source interface,
// which differs from math/rand only in Seed's argument type.
type randSource struct{ r *rand.Rand }

func (s randSource) Uint64() uint64   { return s.r.Uint64() }
func (s randSource) Seed(seed uint64) { s.r.Seed(int64(seed)) }

// New builds a World over the given landmark set (world-frame x, y
// pairs); robot i starts at angle 2*pi*i/NumRobots around the circle.
func New(cfg Config, landmarks [][2]float64) *World {
	w := &World{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		landmarks: landmarks,
		targetPos: cfg.TargetStart,
	}
	w.odomNoise = distuv.Normal{Mu: 0, Sigma: cfg.OdometryNoiseStddev, Src: randSource{w.rng}}
	w.sightNoise = distuv.Normal{Mu: 0, Sigma: cfg.LandmarkNoiseStddev, Src: randSource{w.rng}}

	w.robotPose = make([][3]float64, cfg.NumRobots)
	for r := 0; r < cfg.NumRobots; r++ {
		theta0 := 2 * math.Pi * float64(r) / float64(cfg.NumRobots)
		w.robotPose[r] = [3]float64{
			cfg.RobotRadius * math.Cos(theta0),
			cfg.RobotRadius * math.Sin(theta0),
			theta0 + math.Pi/2,
		}
	}
	return w
}

// Step holds one interval's per-robot odometry, landmark, and target
// observation streams, as returned by World.Step.
type Step struct {
	Odometry []motion.Delta
	Landmark [][]obsbuf.LandmarkObservation
	Target   []obsbuf.TargetObservation
}

// Step advances ground truth by dt and returns the noisy observation
// streams a real sensor stack would have produced over that interval.
func (w *World) Step(dt float64) Step {
	w.t += dt
	out := Step{
		Odometry: make([]motion.Delta, w.cfg.NumRobots),
		Landmark: make([][]obsbuf.LandmarkObservation, w.cfg.NumRobots),
		Target:   make([]obsbuf.TargetObservation, w.cfg.NumRobots),
	}

	for i := 0; i < 3; i++ {
		w.targetPos[i] += w.cfg.TargetVelocity[i] * dt
	}

	for r := 0; r < w.cfg.NumRobots; r++ {
		prev := w.robotPose[r]
		dtheta := w.cfg.RobotAngularSpeed * dt
		theta0 := 2*math.Pi*float64(r)/float64(w.cfg.NumRobots) + w.cfg.RobotAngularSpeed*w.t
		next := [3]float64{
			w.cfg.RobotRadius * math.Cos(theta0),
			w.cfg.RobotRadius * math.Sin(theta0),
			theta0 + math.Pi/2,
		}
		w.robotPose[r] = next

		out.Odometry[r] = bodyFrameDelta(prev, next, dtheta, w.odomNoise)
		out.Landmark[r] = w.sightLandmarks(next)
		out.Target[r] = w.sightTarget(next)
	}
	return out
}

func bodyFrameDelta(prev, next [3]float64, dthetaTrue float64, noise distuv.Normal) motion.Delta {
	dx, dy := next[0]-prev[0], next[1]-prev[1]
	ct, st := math.Cos(prev[2]), math.Sin(prev[2])
	bodyDX := ct*dx + st*dy
	bodyDY := -st*dx + ct*dy
	return motion.Delta{
		DX:     bodyDX + noise.Rand(),
		DY:     bodyDY + noise.Rand(),
		DTheta: dthetaTrue + noise.Rand(),
	}
}

func (w *World) sightLandmarks(pose [3]float64) []obsbuf.LandmarkObservation {
	obs := make([]obsbuf.LandmarkObservation, len(w.landmarks))
	ct, st := math.Cos(pose[2]), math.Sin(pose[2])
	for i, lm := range w.landmarks {
		dx, dy := lm[0]-pose[0], lm[1]-pose[1]
		rx := ct*dx + st*dy
		ry := -st*dx + ct*dy
		d := math.Hypot(rx, ry)
		if d > w.cfg.MaxSensorRange || w.rng.Float64() < w.cfg.MissProbability {
			continue
		}
		obs[i] = obsbuf.LandmarkObservation{
			Found:        true,
			X:            rx + w.sightNoise.Rand(),
			Y:            ry + w.sightNoise.Rand(),
			AreaActual:   1.0,
			AreaExpected: 1.0,
		}
	}
	return obs
}

func (w *World) sightTarget(pose [3]float64) obsbuf.TargetObservation {
	ct, st := math.Cos(pose[2]), math.Sin(pose[2])
	dx, dy := w.targetPos[0]-pose[0], w.targetPos[1]-pose[1]
	rx := ct*dx + st*dy
	ry := -st*dx + ct*dy
	d := math.Hypot(rx, ry)
	if d > w.cfg.MaxSensorRange || w.rng.Float64() < w.cfg.MissProbability {
		return obsbuf.TargetObservation{Found: false}
	}
	tn := distuv.Normal{Mu: 0, Sigma: w.cfg.TargetNoiseStddev, Src: randSource{w.rng}}
	return obsbuf.TargetObservation{
		Found:          true,
		X:              rx + tn.Rand(),
		Y:              ry + tn.Rand(),
		Z:              w.targetPos[2],
		MismatchFactor: 1.0,
	}
}

// RobotPose exposes the ground-truth pose for a robot, for scoring
// filter accuracy in tests.
func (w *World) RobotPose(r int) [3]float64 { return w.robotPose[r] }

// TargetPosition exposes the ground-truth target position.
func (w *World) TargetPosition() [3]float64 { return w.targetPos }

// LoadTrajectoryCSV reads "t,x,y" rows (one sample per line) for
// replaying a recorded run instead of synthesizing one.
func LoadTrajectoryCSV(path string) ([][3]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "sim: failed to open trajectory file")
	}
	defer f.Close()

	var out [][3]float64
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return nil, errors.Errorf("sim: line %d: want 3 fields, got %d", lineNo, len(fields))
		}
		var row [3]float64
		for i, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "sim: line %d: field %d", lineNo, i)
			}
			row[i] = v
		}
		out = append(out, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "sim: failed to read trajectory file")
	}
	return out, nil
}
