package particles

import "gonum.org/v1/gonum/floats"

// Components is the parallel P×R weight-components matrix: one column
// per robot holding that robot's per-particle landmark likelihood,
// kept apart from the combined weight column so a single robot's
// column can be refreshed without recomputing every other robot's.
type Components struct {
	p, r int
	cols [][]float64
}

// NewComponents allocates a Components matrix for p particles and r
// robots, every entry initialized to 1 (neutral for the product
// combination in Recombine).
func NewComponents(p, r int) *Components {
	c := &Components{p: p, r: r, cols: make([][]float64, r)}
	for i := range c.cols {
		c.cols[i] = make([]float64, p)
		for j := range c.cols[i] {
			c.cols[i][j] = 1.0
		}
	}
	return c
}

// Column returns robot r's likelihood column, mutable in place.
func (c *Components) Column(r int) []float64 { return c.cols[r] }

// Recombine writes into dst the per-particle product across all robot
// components: dst[p] = Π_r cols[r][p]. dst must have length P.
func (c *Components) Recombine(dst []float64) {
	for i := range dst {
		dst[i] = 1.0
	}
	for r := 0; r < c.r; r++ {
		floats.MulTo(dst, dst, c.cols[r])
	}
}
