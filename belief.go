package pfuclt

import "github.com/MrProteus/pfuclt-omni-dataset/estimate"

// RobotBelief is the published pose estimate for one robot.
type RobotBelief struct {
	// Pose is (x, y, θ); Z is filled from Config.RobotHeight only when
	// publishing a full 3D pose, never used in the filter math.
	Pose [3]float64
	Z    float64
	Conf float64
}

// TargetBelief is the published state estimate for the target.
type TargetBelief struct {
	Pos [3]float64
	Vel [3]float64
	// VelReady is false until the velocity estimator's FIFO has
	// accumulated a full window of samples.
	VelReady bool
	// Smoothed is the supplementary Kalman cross-check position/
	// velocity, when a TargetSmoother is configured.
	Smoothed        [3]float64
	SmoothedVel     [3]float64
	SmoothedPresent bool
}

// IterationTiming reports the three time accumulators from §3.
type IterationTiming struct {
	OdometryDt  []float64 // per robot
	TargetDt    float64
	IterationDt float64
}

// Snapshot is the read-only view pushed to Observers after a full
// fuse/resample/estimate cycle.
type Snapshot struct {
	Robots  []RobotBelief
	Target  TargetBelief
	Timing  IterationTiming
	Weights []float64 // copy of the current weight column, for diagnostics
}

// RobotPoseCovariance is an alias of estimate.RobotPose, whose
// Covariance field holds the weighted position covariance computed
// alongside a robot's confidence, useful for plotting an uncertainty
// ellipse.
type RobotPoseCovariance = estimate.RobotPose

// Observer is the capability interface the engine calls after every
// completed fuse/resample/estimate cycle. It replaces the original's
// publishing-subclass inheritance with composition: the engine is
// parameterized by zero or more Observers and never depends on what
// they do with a Snapshot.
type Observer interface {
	OnIterationComplete(snap Snapshot)
}

// WeightCollapseObserver is an optional capability an Observer may
// also implement to be notified specifically of weight-collapse
// recovery events, independent of the regular iteration cadence.
type WeightCollapseObserver interface {
	OnWeightCollapse(robotOrTarget string)
}
