package pfuclt

import "github.com/pkg/errors"

// Sentinel errors returned by the core; wrap with errors.Wrap and
// unwrap with errors.Cause the way the teacher's client.go does.
var (
	// ErrConfigInvalid marks a fatal configuration error: NewEngine
	// wraps cfg.Validate()'s error with this sentinel as its Cause.
	ErrConfigInvalid = errors.New("pfuclt: invalid configuration")

	// ErrLandmarkFileMalformed marks a fatal landmark-map load error;
	// wrapped as the Cause of the error cmd/pfuclt-sim reports when
	// landmarkmap.Load fails.
	ErrLandmarkFileMalformed = errors.New("pfuclt: malformed landmark map file")

	// ErrWeightCollapse is wrapped and logged (not returned to
	// callers) whenever the post-fusion weight sum drops below
	// EpsilonMin, in Engine's OnLandmarks/OnTarget.
	ErrWeightCollapse = errors.New("pfuclt: weight collapse")
)
