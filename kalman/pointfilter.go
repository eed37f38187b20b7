package kalman

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PointStateDim is the dimensionality of the 2D point Kalman state
// (x, y, vx, vy).
const PointStateDim = 4

// PointMeasDim is the dimensionality of the point measurement space (x, y).
const PointMeasDim = 2

// PointState is the Kalman state for one tracked 2D point.
type PointState struct {
	Mean *mat.VecDense
	Cov  *mat.Dense
}

// Clone returns a deep copy.
func (s PointState) Clone() PointState {
	mean := mat.NewVecDense(PointStateDim, nil)
	mean.CloneFromVec(s.Mean)
	cov := mat.NewDense(PointStateDim, PointStateDim, nil)
	cov.CloneFrom(s.Cov)
	return PointState{Mean: mean, Cov: cov}
}

// XY returns the point's current position.
func (s PointState) XY() (x, y float64) {
	return s.Mean.AtVec(0), s.Mean.AtVec(1)
}

// PointFilter is a constant-velocity Kalman filter over a bare 2D point.
// Process/measurement noise are fixed standard deviations rather than
// height-scaled, since a point carries no shape.
type PointFilter struct {
	ProcessNoisePos   float64
	ProcessNoiseVel   float64
	MeasurementNoise  float64
	VelocityClamp     float64
	MaxCovarianceDiag float64
}

// DefaultPointFilter returns reasonable constant-velocity defaults.
func DefaultPointFilter() PointFilter {
	return PointFilter{
		ProcessNoisePos:  0.05,
		ProcessNoiseVel:  0.1,
		MeasurementNoise: 0.1,
	}
}

// Initiate builds a PointState from a first (x, y) observation with zero
// velocity and a diagonal bootstrap covariance.
func (f PointFilter) Initiate(x, y float64) PointState {
	mean := mat.NewVecDense(PointStateDim, []float64{x, y, 0, 0})
	cov := mat.NewDense(PointStateDim, PointStateDim, nil)
	diag := []float64{
		2 * f.MeasurementNoise, 2 * f.MeasurementNoise,
		10 * f.ProcessNoiseVel, 10 * f.ProcessNoiseVel,
	}
	for i, v := range diag {
		cov.Set(i, i, v*v)
	}
	return PointState{Mean: mean, Cov: cov}
}

func (f PointFilter) motionMatrix() *mat.Dense {
	m := mat.NewDense(PointStateDim, PointStateDim, nil)
	for i := 0; i < PointStateDim; i++ {
		m.Set(i, i, 1)
	}
	m.Set(0, 2, 1)
	m.Set(1, 3, 1)
	return m
}

func (f PointFilter) measurementMatrix() *mat.Dense {
	m := mat.NewDense(PointMeasDim, PointStateDim, nil)
	m.Set(0, 0, 1)
	m.Set(1, 1, 1)
	return m
}

func (f PointFilter) processNoise() *mat.Dense {
	q := mat.NewDense(PointStateDim, PointStateDim, nil)
	diag := []float64{f.ProcessNoisePos, f.ProcessNoisePos, f.ProcessNoiseVel, f.ProcessNoiseVel}
	for i, v := range diag {
		q.Set(i, i, v*v)
	}
	return q
}

func (f PointFilter) measurementNoise() *mat.Dense {
	r := mat.NewDense(PointMeasDim, PointMeasDim, nil)
	r.Set(0, 0, f.MeasurementNoise*f.MeasurementNoise)
	r.Set(1, 1, f.MeasurementNoise*f.MeasurementNoise)
	return r
}

// Predict advances the point state by one tick.
func (f PointFilter) Predict(s PointState) PointState {
	motion := f.motionMatrix()
	mean := mat.NewVecDense(PointStateDim, nil)
	mean.MulVec(motion, s.Mean)

	var fp mat.Dense
	fp.Mul(motion, s.Cov)
	var cov mat.Dense
	cov.Mul(&fp, motion.T())
	cov.Add(&cov, f.processNoise())
	symmetrize(&cov)
	clampDiag(&cov, f.MaxCovarianceDiag)

	next := PointState{Mean: mean, Cov: &cov}
	f.guardFinite(&next)
	f.clampVelocity(&next)
	return next
}

// Update folds an (x, y) measurement into the state.
func (f PointFilter) Update(s PointState, x, y float64) (PointState, error) {
	meas := f.measurementMatrix()
	z := mat.NewVecDense(PointMeasDim, []float64{x, y})

	var predictedMeas mat.VecDense
	predictedMeas.MulVec(meas, s.Mean)
	innovation := mat.NewVecDense(PointMeasDim, nil)
	innovation.SubVec(z, &predictedMeas)

	s0 := f.innovationCov(s.Cov, meas)
	var chol mat.Cholesky
	if ok := chol.Factorize(toSymDense(s0)); !ok {
		regularize(s.Cov)
		return s, fmt.Errorf("kalman: point update innovation covariance not positive-definite")
	}

	var ht mat.Dense
	ht.Mul(s.Cov, meas.T())
	var kt mat.Dense
	if err := chol.SolveTo(&kt, ht.T()); err != nil {
		regularize(s.Cov)
		return s, fmt.Errorf("kalman: point update solve failed: %w", err)
	}
	var k mat.Dense
	k.CloneFrom(kt.T())

	mean := mat.NewVecDense(PointStateDim, nil)
	var delta mat.VecDense
	delta.MulVec(&k, innovation)
	mean.AddVec(s.Mean, &delta)

	ident := mat.NewDense(PointStateDim, PointStateDim, nil)
	for i := 0; i < PointStateDim; i++ {
		ident.Set(i, i, 1)
	}
	var kh mat.Dense
	kh.Mul(&k, meas)
	var imKH mat.Dense
	imKH.Sub(ident, &kh)

	var term1 mat.Dense
	term1.Mul(&imKH, s.Cov)
	var term1b mat.Dense
	term1b.Mul(&term1, imKH.T())

	r := f.measurementNoise()
	var krk mat.Dense
	krk.Mul(&k, r)
	var krkt mat.Dense
	krkt.Mul(&krk, k.T())

	cov := mat.NewDense(PointStateDim, PointStateDim, nil)
	cov.Add(&term1b, &krkt)
	symmetrize(cov)
	clampDiag(cov, f.MaxCovarianceDiag)

	next := PointState{Mean: mean, Cov: cov}
	f.guardFinite(&next)
	f.clampVelocity(&next)
	return next, nil
}

func (f PointFilter) innovationCov(cov *mat.Dense, meas *mat.Dense) *mat.Dense {
	var hp mat.Dense
	hp.Mul(meas, cov)
	var s mat.Dense
	s.Mul(&hp, meas.T())
	s.Add(&s, f.measurementNoise())
	symmetrize(&s)
	return &s
}

// GatingDistance returns the squared Mahalanobis distance between the
// projected state and the (x, y) measurement.
func (f PointFilter) GatingDistance(s PointState, x, y float64) float64 {
	meas := f.measurementMatrix()
	z := mat.NewVecDense(PointMeasDim, []float64{x, y})

	var predictedMeas mat.VecDense
	predictedMeas.MulVec(meas, s.Mean)
	innovation := mat.NewVecDense(PointMeasDim, nil)
	innovation.SubVec(z, &predictedMeas)

	s0 := f.innovationCov(s.Cov, meas)
	var chol mat.Cholesky
	if ok := chol.Factorize(toSymDense(s0)); !ok {
		return inf()
	}
	solved := mat.NewVecDense(PointMeasDim, nil)
	if err := chol.SolveVecTo(solved, innovation); err != nil {
		return inf()
	}
	return mat.Dot(innovation, solved)
}

func (f PointFilter) guardFinite(s *PointState) {
	if isFiniteVector(s.Mean) && isFiniteDiag(s.Cov) {
		return
	}
	for i := 0; i < PointStateDim; i++ {
		if v := s.Mean.AtVec(i); isNonFinite(v) {
			s.Mean.SetVec(i, 0)
		}
	}
	regularize(s.Cov)
}

func (f PointFilter) clampVelocity(s *PointState) {
	if f.VelocityClamp <= 0 {
		return
	}
	vx, vy := s.Mean.AtVec(2), s.Mean.AtVec(3)
	speed := hypot(vx, vy)
	if speed > f.VelocityClamp {
		scale := f.VelocityClamp / speed
		s.Mean.SetVec(2, vx*scale)
		s.Mean.SetVec(3, vy*scale)
	}
}

// PointVectorFilter applies PointFilter independently to K points that
// share one predict clock.
type PointVectorFilter struct {
	Filter PointFilter
}

// PointVectorState holds K independent PointStates.
type PointVectorState struct {
	Points []PointState
}

// Initiate seeds one PointState per (x, y) pair.
func (f PointVectorFilter) Initiate(xs, ys []float64) PointVectorState {
	points := make([]PointState, len(xs))
	for i := range xs {
		points[i] = f.Filter.Initiate(xs[i], ys[i])
	}
	return PointVectorState{Points: points}
}

// Predict advances every point by one tick.
func (f PointVectorFilter) Predict(s PointVectorState) PointVectorState {
	next := make([]PointState, len(s.Points))
	for i, p := range s.Points {
		next[i] = f.Filter.Predict(p)
	}
	return PointVectorState{Points: next}
}

// Update folds one (x, y) measurement per point into the corresponding
// state. measurements must have the same length as s.Points.
func (f PointVectorFilter) Update(s PointVectorState, xs, ys []float64) (PointVectorState, error) {
	if len(xs) != len(s.Points) || len(ys) != len(s.Points) {
		return s, fmt.Errorf("kalman: point-vector update length mismatch: have %d points, got %d measurements", len(s.Points), len(xs))
	}
	next := make([]PointState, len(s.Points))
	for i, p := range s.Points {
		// A per-point numerical failure keeps that point's regularized
		// state; the other points still update.
		updated, _ := f.Filter.Update(p, xs[i], ys[i])
		next[i] = updated
	}
	return PointVectorState{Points: next}, nil
}

func inf() float64 {
	return math.Inf(1)
}
