// Package pfuclt is a real-time particle filter that fuses odometry
// and vision observations from a cooperative team of mobile robots
// with sightings of a shared moving target into one joint belief:
// per-robot pose and a target position/velocity estimate.
package pfuclt

import (
	"math"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/MrProteus/pfuclt-omni-dataset/estimate"
	"github.com/MrProteus/pfuclt-omni-dataset/fusion"
	"github.com/MrProteus/pfuclt-omni-dataset/landmarkmap"
	"github.com/MrProteus/pfuclt-omni-dataset/motion"
	"github.com/MrProteus/pfuclt-omni-dataset/obsbuf"
	"github.com/MrProteus/pfuclt-omni-dataset/particles"
)

type lifecycleState int

const (
	stateWaiting lifecycleState = iota
	stateInitialized
)

// Engine owns every piece of filter state as a single value created
// and destroyed as a unit; there is no global mutable state. Callers
// receive read-only Snapshots bounded by the Engine's lifetime.
type Engine struct {
	mu sync.Mutex

	cfg           Config
	landmarkWorld [][2]float64

	store    *particles.Store
	storeAlt *particles.Store
	comps    *particles.Components
	bufs     *obsbuf.Buffers

	rng *rand.Rand

	state       lifecycleState
	gotOdometry []bool

	odometryDt     []float64
	lastOdomStamp  []float64
	targetDt       float64
	lastTargetTime float64
	haveLastTarget bool
	iterationDt    float64
	lastIterTime   float64
	haveLastIter   bool

	velEstimator *estimate.VelocityEstimator
	smoother     *estimate.TargetSmoother

	observers []Observer
}

// NewEngine validates cfg, allocates the particle store and buffers,
// and returns an Engine in the WAITING lifecycle state. A non-nil
// error here is always a fatal configuration error per §7; the caller
// (typically cmd/pfuclt-sim) is expected to log.Fatal it.
func NewEngine(cfg Config, landmarks *landmarkmap.Map, seed int64, observers ...Observer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(ErrConfigInvalid, err.Error())
	}
	if landmarks != nil && landmarks.Len() != cfg.L {
		return nil, errors.Errorf("pfuclt: landmark map has %d entries, want L=%d", landmarks.Len(), cfg.L)
	}

	world := make([][2]float64, cfg.L)
	for i := 0; i < cfg.L; i++ {
		if landmarks != nil {
			lm := landmarks.At(i)
			world[i] = [2]float64{lm.X, lm.Y}
		}
	}

	d := cfg.D()
	e := &Engine{
		cfg:           cfg,
		landmarkWorld: world,
		store:         particles.New(cfg.P, d),
		storeAlt:      particles.New(cfg.P, d),
		comps:         particles.NewComponents(cfg.P, cfg.R),
		bufs:          obsbuf.New(cfg.R, cfg.L),
		rng:           rand.New(rand.NewSource(seed)),
		gotOdometry:   make([]bool, cfg.R),
		odometryDt:    make([]float64, cfg.R),
		lastOdomStamp: make([]float64, cfg.R),
		velEstimator:  estimate.NewVelocityEstimator(VelocityWindowSamples),
		observers:     observers,
	}
	log.Infof("pfuclt: engine created P=%d R=%d T=%d L=%d main=%d", cfg.P, cfg.R, cfg.T, cfg.L, cfg.MainID)
	return e, nil
}

// EnableTargetSmoother wires an optional Kalman cross-check smoother,
// seeded at start, stepping at dt seconds.
func (e *Engine) EnableTargetSmoother(dt float64, start [3]float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := estimate.NewTargetSmoother(dt, start)
	if err != nil {
		return err
	}
	e.smoother = s
	return nil
}

func (e *Engine) fusionParams() fusion.Params {
	return fusion.Params{
		LandmarkK1: e.cfg.LandmarkK1, LandmarkK2: e.cfg.LandmarkK2,
		TargetK3: e.cfg.TargetK3, TargetK4: e.cfg.TargetK4, TargetK5: e.cfg.TargetK5,
		NumLandmarks: e.cfg.L,
	}
}

func (e *Engine) allPlayingHaveOdometry() bool {
	for r, playing := range e.cfg.Playing {
		if playing && !e.gotOdometry[r] {
			return false
		}
	}
	return true
}

func (e *Engine) initializeParticles() {
	if e.cfg.CustomInit != nil {
		if err := e.store.InitCustom(e.rng, e.cfg.CustomInit, e.cfg.PosInit); err != nil {
			log.Warnf("pfuclt: custom init failed, falling back to default: %v", err)
			e.store.InitDefault(e.rng, e.cfg.R, e.cfg.T)
		}
	} else {
		e.store.InitDefault(e.rng, e.cfg.R, e.cfg.T)
	}
	e.state = stateInitialized
	log.Info("pfuclt: particle set initialized, all playing robots reported odometry")
}

// OnOdometry is the callback for one robot's odometry reading. Before
// the engine is initialized it only records the bootstrap flag; after
// initialization it runs C3 for robot r.
func (e *Engine) OnOdometry(r int, stamp float64, delta motion.Delta) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r < 0 || r >= e.cfg.R || !e.cfg.Playing[r] {
		return
	}
	if e.lastOdomStamp[r] > 0 {
		e.odometryDt[r] = stamp - e.lastOdomStamp[r]
	}
	e.lastOdomStamp[r] = stamp

	if e.state == stateWaiting {
		e.gotOdometry[r] = true
		if e.allPlayingHaveOdometry() {
			e.initializeParticles()
		}
		return
	}
	motion.Predict(e.rng, e.store, r, delta, e.cfg.Alpha[r])
}

// OnLandmarks is the callback for one robot's full landmark
// observation set; the message itself is the "all landmark
// measurements done" signal (§4.6). It runs fuse_robots followed by
// the global weight recombine.
func (e *Engine) OnLandmarks(r int, obs []obsbuf.LandmarkObservation) {
	e.mu.Lock()
	var collapsed bool
	func() {
		defer e.mu.Unlock()
		if r < 0 || r >= e.cfg.R || !e.cfg.Playing[r] {
			return
		}
		for i, o := range obs {
			if i >= e.cfg.L {
				break
			}
			e.bufs.SetLandmark(r, i, o)
		}
		e.bufs.MarkLandmarksDone(r)
		if e.state != stateInitialized {
			return
		}
		buf := e.bufs.Robot(r)
		fusion.FuseRobots(e.store, e.comps, r, buf, e.landmarkWorld, e.cfg.HeuristicsThresh[r], e.fusionParams())
		collapsed = fusion.Recombine(e.store, e.comps, EpsilonMin)
		e.bufs.ClearLandmarksDone(r)
	}()
	if collapsed {
		log.Warn(errors.Wrap(ErrWeightCollapse, "recovered after fuse_robots, weights reset uniform"))
		e.notifyCollapse("robots")
	}
}

// OnTarget is the callback for one robot's target sighting. Only the
// designated main robot's call advances the global iteration clock
// (fuse_target → predict_target → resample → estimate → publish);
// peer robots' sightings are buffered for the main robot's next cycle.
func (e *Engine) OnTarget(r int, stamp float64, obs obsbuf.TargetObservation) {
	e.mu.Lock()
	var (
		snap      Snapshot
		publish   bool
		collapsed bool
	)
	func() {
		defer e.mu.Unlock()
		if r < 0 || r >= e.cfg.R || !e.cfg.Playing[r] {
			return
		}
		e.bufs.SetTarget(r, obs)
		e.bufs.MarkTargetDone(r)
		if r != e.cfg.MainID || e.state != stateInitialized {
			return
		}

		e.targetDt = e.stepTargetDt(stamp)

		targetObs := make([]obsbuf.TargetObservation, e.cfg.R)
		for i := 0; i < e.cfg.R; i++ {
			targetObs[i] = e.bufs.Robot(i).Target
		}
		fusion.FuseTarget(e.store, e.cfg.R, 0, targetObs, e.cfg.Playing, e.fusionParams())
		collapsed = e.checkTargetCollapse()

		vel, _ := e.velEstimator.Estimate()
		fusion.PredictTarget(e.rng, e.store, e.cfg.R, 0, vel, e.targetDt, TargetRandStddev)

		estimate.Resample(e.rng, e.store, e.storeAlt, ResampleStartAt)
		e.store, e.storeAlt = e.storeAlt, e.store

		e.iterationDt = e.stepIterationDt(stamp)
		e.recordVelocitySample(stamp)
		e.bufs.ClearTargetDone(r)

		snap = e.snapshotLocked()
		publish = true
	}()
	if collapsed {
		log.Warn(errors.Wrap(ErrWeightCollapse, "recovered after fuse_target, weights reset uniform"))
		e.notifyCollapse("target")
	}
	if publish {
		for _, o := range e.observers {
			o.OnIterationComplete(snap)
		}
	}
}

func (e *Engine) checkTargetCollapse() bool {
	sum := 0.0
	for _, w := range e.store.Weights() {
		sum += w
	}
	if sum < EpsilonMin {
		e.store.ResetWeights(1.0 / float64(e.store.Size()))
		return true
	}
	return false
}

func (e *Engine) stepTargetDt(stamp float64) float64 {
	if !e.haveLastTarget {
		e.haveLastTarget = true
		e.lastTargetTime = stamp
		return TargetIterationTimeDefault
	}
	dt := stamp - e.lastTargetTime
	e.lastTargetTime = stamp
	if dt <= 0 || math.Abs(dt) > TargetIterationTimeMax {
		log.Warnf("pfuclt: target_dt %f out of bounds, using default", dt)
		return TargetIterationTimeDefault
	}
	return dt
}

func (e *Engine) stepIterationDt(stamp float64) float64 {
	if !e.haveLastIter {
		e.haveLastIter = true
		e.lastIterTime = stamp
		return TargetIterationTimeDefault
	}
	dt := stamp - e.lastIterTime
	e.lastIterTime = stamp
	return dt
}

// recordVelocitySample picks the robot with the highest pose
// confidence among those whose latest target sighting both qualifies
// (found, inside the 4x4m robot-frame window) and feeds one
// (t, x, y, z) sample from the current weighted-mean target estimate
// into the velocity estimator.
func (e *Engine) recordVelocitySample(stamp float64) {
	const halfWindow = VelocityObservationWindow / 2

	bestR := -1
	bestConf := -1.0
	for r := 0; r < e.cfg.R; r++ {
		if !e.cfg.Playing[r] {
			continue
		}
		t := e.bufs.Robot(r).Target
		if !t.Found || math.Abs(t.X) > halfWindow || math.Abs(t.Y) > halfWindow {
			continue
		}
		conf := estimate.EstimateRobotPose(e.store, r).Conf
		if conf > bestConf {
			bestConf = conf
			bestR = r
		}
	}
	if bestR < 0 {
		return
	}
	pos := estimate.EstimateTargetPosition(e.store, e.cfg.R, 0)
	e.velEstimator.Add(stamp, [3]float64{pos.X, pos.Y, pos.Z})
}

// normalizeWeights rescales w in place to sum to 1, so snapshotLocked's
// weighted means are always taken over a valid distribution even when
// called between fuse steps, before the next Resample would otherwise
// have renormalized it. Positive rescaling changes no particle's
// relative weight, so it is safe to apply to the live column.
func normalizeWeights(w []float64) {
	sum := floats.Sum(w)
	if sum > 0 {
		floats.Scale(1/sum, w)
		return
	}
	uniform := 1.0 / float64(len(w))
	for i := range w {
		w[i] = uniform
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	normalizeWeights(e.store.Weights())

	robots := make([]RobotBelief, e.cfg.R)
	for r := 0; r < e.cfg.R; r++ {
		pose := estimate.EstimateRobotPose(e.store, r)
		robots[r] = RobotBelief{Pose: [3]float64{pose.X, pose.Y, pose.Theta}, Z: e.cfg.RobotHeight, Conf: pose.Conf}
	}

	targetPos := estimate.EstimateTargetPosition(e.store, e.cfg.R, 0)
	vel, ok := e.velEstimator.Estimate()
	target := TargetBelief{Pos: [3]float64{targetPos.X, targetPos.Y, targetPos.Z}, Vel: vel, VelReady: ok}

	if e.smoother != nil {
		spos, svel, err := e.smoother.Update([3]float64{targetPos.X, targetPos.Y, targetPos.Z})
		if err != nil {
			log.Warnf("pfuclt: target smoother update failed: %v", err)
		} else {
			target.Smoothed = spos
			target.SmoothedVel = svel
			target.SmoothedPresent = true
		}
	}

	return Snapshot{
		Robots: robots,
		Target: target,
		Timing: IterationTiming{
			OdometryDt:  append([]float64(nil), e.odometryDt...),
			TargetDt:    e.targetDt,
			IterationDt: e.iterationDt,
		},
		Weights: append([]float64(nil), e.store.Weights()...),
	}
}

func (e *Engine) notifyCollapse(which string) {
	for _, o := range e.observers {
		if wc, ok := o.(WeightCollapseObserver); ok {
			wc.OnWeightCollapse(which)
		}
	}
}

// Snapshot returns a fresh read of the current belief without waiting
// for the next iteration; useful for polling publishers.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subparticle exposes a read-only copy of one column of the joint
// particle set, for external diagnostics (e.g. per-subparticle
// standard deviations).
func (e *Engine) Subparticle(k int) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]float64(nil), e.store.Subparticle(k)...)
}
