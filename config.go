package pfuclt

import (
	"github.com/pkg/errors"

	"github.com/MrProteus/pfuclt-omni-dataset/motion"
)

// Default calibration and tuning constants, taken from the
// teacher-domain's motion and observation models.
const (
	DefaultLandmarkK1 = 0.2
	DefaultLandmarkK2 = 0.5
	DefaultTargetK3   = 0.1
	DefaultTargetK4   = 0.05
	DefaultTargetK5   = 0.5

	DefaultHeuristicThresh = 8.0

	// TargetRandStddev is the process noise applied per-axis by
	// predict_target, expressed as an equivalent m/s spread.
	TargetRandStddev = 20.0

	// ResampleStartAt (κ) is the elitist fraction kept verbatim by
	// the resampler.
	ResampleStartAt = 0.5

	// VelocityWindowSamples (S) is the FIFO capacity of the velocity
	// estimator.
	VelocityWindowSamples = 15

	// VelocityObservationWindow is the side of the (x, y) box, centered
	// on the observing robot and expressed in that robot's own frame,
	// inside which a target sighting may feed the velocity estimator.
	VelocityObservationWindow = 4.0

	// EpsilonMin is the minimum acceptable post-fusion weight sum
	// before weight-collapse recovery fires.
	EpsilonMin = 1e-10

	// TargetIterationTimeDefault replaces an implausible target_dt.
	TargetIterationTimeDefault = 0.033

	// TargetIterationTimeMax bounds a plausible target_dt; anything
	// larger is treated as a stale/invalid timestamp.
	TargetIterationTimeMax = 1.0
)

// Config is the engine's single strongly-typed configuration record.
// It is validated once, at construction; there is no live reload.
type Config struct {
	// P is the particle count.
	P int
	// R is the robot count, including any non-playing slots.
	R int
	// T is the target count (fixed at 1 in this dataset).
	T int
	// L is the landmark count.
	L int

	// Playing flags per robot; a false entry freezes that robot's
	// columns for the lifetime of the engine.
	Playing []bool
	// MainID is the robot whose target callback drives the global
	// iteration clock (fusion, resample, estimate).
	MainID int

	// PosInit is an optional per-robot initial position anchor
	// (x, y), used only in custom-init mode.
	PosInit [][2]float64
	// CustomInit, if non-nil, must have length 2*(3R+3T); it
	// overrides the default field-sized uniform bounds with
	// caller-specified [lo, hi] pairs per column.
	CustomInit []float64

	LandmarkK1, LandmarkK2       float64
	TargetK3, TargetK4, TargetK5 float64

	// Alpha is the per-robot odometry noise model, length R.
	Alpha []motion.Alpha

	// RobotHeight is the fixed z used only when publishing a robot's
	// full 3D pose; it never enters the filter math.
	RobotHeight float64

	// HeuristicsThresh[r][l] is robot r's maximum plausible
	// observation range for landmark l; sightings beyond it are
	// dropped before fusion. Every robot slot (playing or not) has a
	// full row so an absent robot's row is simply never read.
	HeuristicsThresh [][]float64
}

// NumPlaying returns Σ playing[r]; the original's NUM_ROBOTS collapses
// into this rather than being tracked separately.
func (c *Config) NumPlaying() int {
	n := 0
	for _, p := range c.Playing {
		if p {
			n++
		}
	}
	return n
}

// D returns the particle-set column count 3R + 3T + 1.
func (c *Config) D() int { return 3*c.R + 3*c.T + 1 }

// Validate fills in defaults for zero-valued optional fields and
// rejects a configuration that cannot start the engine. Every error
// returned here is a fatal configuration error per §7.
func (c *Config) Validate() error {
	if c.P <= 0 {
		return errors.New("pfuclt: P (particle count) must be positive")
	}
	if c.R <= 0 {
		return errors.New("pfuclt: R (robot count) must be positive")
	}
	if c.T <= 0 {
		return errors.New("pfuclt: T (target count) must be positive")
	}
	if c.L < 0 {
		return errors.New("pfuclt: L (landmark count) must not be negative")
	}
	if len(c.Playing) != c.R {
		return errors.Errorf("pfuclt: len(Playing)=%d does not match R=%d", len(c.Playing), c.R)
	}
	if c.MainID < 0 || c.MainID >= c.R {
		return errors.Errorf("pfuclt: MainID=%d out of range [0, %d)", c.MainID, c.R)
	}
	if !c.Playing[c.MainID] {
		return errors.Errorf("pfuclt: MainID=%d is not a playing robot", c.MainID)
	}
	if c.CustomInit != nil && len(c.CustomInit) != 2*(3*c.R+3*c.T) {
		return errors.Errorf("pfuclt: CustomInit length %d does not match 2*(3R+3T)=%d",
			len(c.CustomInit), 2*(3*c.R+3*c.T))
	}

	if c.LandmarkK1 == 0 {
		c.LandmarkK1 = DefaultLandmarkK1
	}
	if c.LandmarkK2 == 0 {
		c.LandmarkK2 = DefaultLandmarkK2
	}
	if c.TargetK3 == 0 {
		c.TargetK3 = DefaultTargetK3
	}
	if c.TargetK4 == 0 {
		c.TargetK4 = DefaultTargetK4
	}
	if c.TargetK5 == 0 {
		c.TargetK5 = DefaultTargetK5
	}

	if c.Alpha == nil {
		c.Alpha = make([]motion.Alpha, c.R)
		for i := range c.Alpha {
			c.Alpha[i] = motion.DefaultAlpha()
		}
	}
	if len(c.Alpha) != c.R {
		return errors.Errorf("pfuclt: len(Alpha)=%d does not match R=%d", len(c.Alpha), c.R)
	}

	if c.HeuristicsThresh == nil {
		c.HeuristicsThresh = make([][]float64, c.R)
	}
	if len(c.HeuristicsThresh) != c.R {
		return errors.Errorf("pfuclt: len(HeuristicsThresh)=%d does not match R=%d",
			len(c.HeuristicsThresh), c.R)
	}
	for r := range c.HeuristicsThresh {
		if c.HeuristicsThresh[r] == nil {
			c.HeuristicsThresh[r] = make([]float64, c.L)
		}
		if len(c.HeuristicsThresh[r]) != c.L {
			return errors.Errorf("pfuclt: HeuristicsThresh[%d] length %d does not match L=%d",
				r, len(c.HeuristicsThresh[r]), c.L)
		}
		for l, v := range c.HeuristicsThresh[r] {
			if v == 0 {
				c.HeuristicsThresh[r][l] = DefaultHeuristicThresh
			}
		}
	}
	return nil
}
