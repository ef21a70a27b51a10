// Package particles owns the joint particle set: a P×D matrix stored
// column-major so that per-subparticle sweeps (prediction, fusion,
// resampling) walk contiguous memory instead of striding across a
// particle's whole state.
package particles

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Store is the P×D particle matrix. Column D-1 is the weight column;
// columns [0, 3R) are robot poses (x, y, θ per robot); columns
// [3R, 3R+3T) are target positions (x, y, z per target). Absent robot
// slots still occupy columns, they are simply never written by
// prediction or fusion.
type Store struct {
	p    int
	d    int
	cols [][]float64
}

// New allocates a Store for p particles and d columns (weight column
// included). All columns start at zero.
func New(p, d int) *Store {
	if p <= 0 || d <= 0 {
		panic("particles: p and d must be positive")
	}
	s := &Store{p: p, d: d, cols: make([][]float64, d)}
	for k := range s.cols {
		s.cols[k] = make([]float64, p)
	}
	return s
}

// Size returns the particle count P.
func (s *Store) Size() int { return s.p }

// Dims returns the column count D.
func (s *Store) Dims() int { return s.d }

// WeightIndex is the index of the weight column.
func (s *Store) WeightIndex() int { return s.d - 1 }

// Subparticle returns the column vector for dimension k. The slice
// aliases the store's backing array; callers may mutate in place.
func (s *Store) Subparticle(k int) []float64 { return s.cols[k] }

// Weights is a convenience for Subparticle(WeightIndex()).
func (s *Store) Weights() []float64 { return s.cols[s.d-1] }

// Particle materializes a copy of particle p's full state row. It is
// not backed by contiguous storage; use Subparticle in hot loops.
func (s *Store) Particle(p int) []float64 {
	row := make([]float64, s.d)
	for k := 0; k < s.d; k++ {
		row[k] = s.cols[k][p]
	}
	return row
}

// CopyParticle copies columns [kLo, kHi) of particle srcIdx from s into
// particle dstIdx of dst (dst may be s itself). Used by the resampler
// to materialize the output generation from the input generation.
func (s *Store) CopyParticle(dst *Store, srcIdx, dstIdx, kLo, kHi int) {
	for k := kLo; k < kHi; k++ {
		dst.cols[k][dstIdx] = s.cols[k][srcIdx]
	}
}

// ResetWeights sets every particle's weight to v.
func (s *Store) ResetWeights(v float64) {
	w := s.Weights()
	for i := range w {
		w[i] = v
	}
}

// RobotOffset returns the column index of robot r's x subparticle; y
// and θ follow at +1 and +2.
func RobotOffset(r int) int { return 3 * r }

// TargetOffset returns the column index of target t's x subparticle
// given R robots; y and z follow at +1 and +2.
func TargetOffset(numRobots, t int) int { return 3*numRobots + 3*t }

// WrapAngle normalizes θ to (-π, π].
func WrapAngle(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}

// Bounds describes a uniform sampling interval [Lo, Hi] for one column.
type Bounds struct {
	Lo, Hi float64
}

// InitDefault fills every pose subparticle uniformly over field-sized
// defaults and every target subparticle uniformly over the field
// volume, then sets all weights to 1/P.
func (s *Store) InitDefault(rng *rand.Rand, numRobots, numTargets int) {
	poseBounds := [3]Bounds{
		{Lo: 0, Hi: 6},
		{Lo: -4.5, Hi: 4.5},
		{Lo: -math.Pi, Hi: math.Pi},
	}
	for r := 0; r < numRobots; r++ {
		base := RobotOffset(r)
		for k := 0; k < 3; k++ {
			fillUniform(rng, s.cols[base+k], poseBounds[k])
		}
	}
	targetBounds := [3]Bounds{
		{Lo: 0, Hi: 6},
		{Lo: -4.5, Hi: 4.5},
		{Lo: 0, Hi: 2},
	}
	for t := 0; t < numTargets; t++ {
		base := TargetOffset(numRobots, t)
		for k := 0; k < 3; k++ {
			fillUniform(rng, s.cols[base+k], targetBounds[k])
		}
	}
	s.ResetWeights(1.0 / float64(s.p))
}

// InitCustom fills each non-weight column [0, D-1) using caller supplied
// [lo0, hi0, lo1, hi1, ...] bounds pairs, one pair per non-weight
// column, still drawing uniformly but over the caller's intervals.
// anchors optionally overrides robot positions: anchors[r] replaces
// robot r's x and y draws with a ±0.05 interval around that (x, y)
// pair. Every entry is applied; an entry whose columns would reach the
// weight column is skipped.
func (s *Store) InitCustom(rng *rand.Rand, customBounds []float64, anchors [][2]float64) error {
	numNonWeight := s.d - 1
	if len(customBounds) != 2*numNonWeight {
		return errors.Errorf("particles: custom_init length %d does not match 2*(D-1)=%d",
			len(customBounds), 2*numNonWeight)
	}
	for k := 0; k < numNonWeight; k++ {
		b := Bounds{Lo: customBounds[2*k], Hi: customBounds[2*k+1]}
		fillUniform(rng, s.cols[k], b)
	}
	for r, anchor := range anchors {
		base := RobotOffset(r)
		if base+1 >= numNonWeight {
			continue
		}
		half := 0.05
		fillUniform(rng, s.cols[base], Bounds{Lo: anchor[0] - half, Hi: anchor[0] + half})
		fillUniform(rng, s.cols[base+1], Bounds{Lo: anchor[1] - half, Hi: anchor[1] + half})
	}
	s.ResetWeights(1.0 / float64(s.p))
	return nil
}

func fillUniform(rng *rand.Rand, col []float64, b Bounds) {
	span := b.Hi - b.Lo
	for i := range col {
		col[i] = b.Lo + rng.Float64()*span
	}
}
