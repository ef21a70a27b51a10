package estimate

import "gonum.org/v1/gonum/stat"

// VelocityEstimator is a bounded FIFO of (t, x, y, z) samples. Once it
// holds Capacity samples, Estimate returns the ordinary-least-squares
// regression slope of each axis against time.
type VelocityEstimator struct {
	capacity int
	times    []float64
	pos      [3][]float64
}

// NewVelocityEstimator allocates an estimator with the given FIFO
// capacity (S in the spec, default 15).
func NewVelocityEstimator(capacity int) *VelocityEstimator {
	return &VelocityEstimator{capacity: capacity}
}

// Len returns the current sample count.
func (v *VelocityEstimator) Len() int { return len(v.times) }

// Ready reports whether the FIFO has reached capacity.
func (v *VelocityEstimator) Ready() bool { return len(v.times) >= v.capacity }

// Add inserts a new sample, evicting the oldest once the FIFO is full.
func (v *VelocityEstimator) Add(t float64, pos [3]float64) {
	if len(v.times) >= v.capacity {
		v.times = v.times[1:]
		for axis := range v.pos {
			v.pos[axis] = v.pos[axis][1:]
		}
	}
	v.times = append(v.times, t)
	for axis := range v.pos {
		v.pos[axis] = append(v.pos[axis], pos[axis])
	}
}

// Estimate returns the per-axis OLS slope (velocity) of position
// against time. ok is false until the FIFO has reached capacity.
func (v *VelocityEstimator) Estimate() (vel [3]float64, ok bool) {
	if !v.Ready() {
		return vel, false
	}
	for axis := 0; axis < 3; axis++ {
		_, beta := stat.LinearRegression(v.times, v.pos[axis], nil, false)
		vel[axis] = beta
	}
	return vel, true
}
