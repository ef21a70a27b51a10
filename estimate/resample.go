// Package estimate implements C5: the modified-multinomial resampler
// with elitism, the weighted-mean pose/target estimator, robot
// confidence, the FIFO+OLS target velocity estimator, and a
// supplementary Kalman cross-check smoother.
package estimate

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/MrProteus/pfuclt-omni-dataset/particles"
)

// randSource adapts *rand.Rand to gonum's exp/rand.Source interface,
// which differs from math/rand only in Seed's argument type.
type randSource struct{ r *rand.Rand }

func (s randSource) Uint64() uint64   { return s.r.Uint64() }
func (s randSource) Seed(seed uint64) { s.r.Seed(int64(seed)) }

// Resample runs the modified multinomial resampler with elitism: the
// top ⌊P·kappa⌋ particles (by descending weight) are copied verbatim
// into dst, the remainder are filled by multinomial draws from the
// normalized weight distribution. dst's weights are reset to 1/P.
// src and dst must have the same size and dimension; src is left
// unmodified, so it is safe for src and dst to be two halves of a
// double-buffered store swap.
func Resample(rng *rand.Rand, src, dst *particles.Store, kappa float64) {
	p := src.Size()
	d := src.Dims()
	w := src.Weights()

	idx := make([]int, p)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return w[idx[a]] > w[idx[b]] })

	top := int(math.Floor(float64(p) * kappa))
	for i := 0; i < top; i++ {
		src.CopyParticle(dst, idx[i], i, 0, d)
	}

	norm := append([]float64(nil), w...)
	sum := floats.Sum(norm)
	if sum > 0 {
		floats.Scale(1/sum, norm)
	} else {
		uniform := 1.0 / float64(p)
		for i := range norm {
			norm[i] = uniform
		}
	}
	cat := distuv.NewCategorical(norm, randSource{rng})
	for i := top; i < p; i++ {
		j := int(cat.Rand())
		src.CopyParticle(dst, j, i, 0, d)
	}
	dst.ResetWeights(1.0 / float64(p))
}
