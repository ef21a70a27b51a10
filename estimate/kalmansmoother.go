package estimate

import (
	kalman "github.com/ChristopherRabotin/gokalman"
	"github.com/gonum/matrix/mat64"
)

// TargetSmoother is a supplementary cross-check on the particle
// filter's target belief: a constant-velocity Vanilla Kalman filter
// over (x, y, z, vx, vy, vz), completing the teacher-domain's
// XYPFEKF wrapper (which left the actual filter commented out) for a
// 3D constant-velocity target instead of a 2D pedestrian.
type TargetSmoother struct {
	kf *kalman.Vanilla
	dt float64
}

// NewTargetSmoother builds a smoother stepping at dt seconds, seeded
// at start with zero initial velocity.
func NewTargetSmoother(dt float64, start [3]float64) (*TargetSmoother, error) {
	x0 := mat64.NewVector(6, []float64{start[0], start[1], start[2], 0, 0, 0})

	p0 := mat64.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		p0.SetSym(i, i, 10.0)
	}

	f := mat64.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		f.Set(i, i, 1)
	}
	for i := 0; i < 3; i++ {
		f.Set(i, i+3, dt)
	}
	g := mat64.NewDense(6, 6, nil)
	h := mat64.NewDense(3, 6, nil)
	for i := 0; i < 3; i++ {
		h.Set(i, i, 1)
	}

	q := mat64.NewSymDense(6, nil)
	for i := 0; i < 3; i++ {
		q.SetSym(i, i, 1e-3)
		q.SetSym(i+3, i+3, 1e-2)
	}
	r := mat64.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		r.SetSym(i, i, 0.05)
	}
	noise := kalman.NewAWGN(q, r)

	kf, _, err := kalman.NewVanilla(x0, p0, f, g, h, noise)
	if err != nil {
		return nil, err
	}
	return &TargetSmoother{kf: kf, dt: dt}, nil
}

// Update feeds one (x, y, z) measurement and returns the smoothed
// position and velocity.
func (ts *TargetSmoother) Update(measurement [3]float64) (pos, vel [3]float64, err error) {
	z := mat64.NewVector(3, []float64{measurement[0], measurement[1], measurement[2]})
	u := mat64.NewVector(6, nil)
	est, err := ts.kf.Update(z, u)
	if err != nil {
		return pos, vel, err
	}
	state := est.State()
	for i := 0; i < 3; i++ {
		pos[i] = state.At(i, 0)
		vel[i] = state.At(i+3, 0)
	}
	return pos, vel, nil
}
