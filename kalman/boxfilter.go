package kalman

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/tracksort/geometry"
)

// BoxStateDim is the dimensionality of the bounding-box Kalman state
// vector (xc, yc, a, h, vxc, vyc, va, vh).
const BoxStateDim = 8

// BoxMeasDim is the dimensionality of the bounding-box measurement space
// (xc, yc, a, h) — angle is carried through verbatim and is never part of
// the filter state.
const BoxMeasDim = 4

// BBoxState is the Kalman state for one tracked box: an 8-vector mean and
// its 8x8 covariance. The zero value is not usable; obtain one from
// BBoxFilter.Initiate.
type BBoxState struct {
	Mean *mat.VecDense
	Cov  *mat.Dense
}

// Clone returns a deep copy, so a caller can predict/update speculatively
// without mutating the track's stored state.
func (s BBoxState) Clone() BBoxState {
	mean := mat.NewVecDense(BoxStateDim, nil)
	mean.CloneFromVec(s.Mean)
	cov := mat.NewDense(BoxStateDim, BoxStateDim, nil)
	cov.CloneFrom(s.Cov)
	return BBoxState{Mean: mean, Cov: cov}
}

// Box projects the position/shape block of the state back into a
// Universal2DBox, attaching angle (not part of the filter state) and
// confidence verbatim from the caller.
func (s BBoxState) Box(angle *float64, confidence float64) geometry.Universal2DBox {
	xc, yc, a, h := s.Mean.AtVec(0), s.Mean.AtVec(1), s.Mean.AtVec(2), s.Mean.AtVec(3)
	return geometry.Universal2DBox{XC: xc, YC: yc, Angle: angle, Aspect: a, Height: h, Confidence: confidence}
}

// BBoxFilter is a constant-velocity Kalman filter over the axis-aligned
// projection (xc, yc, a, h) of a Universal2DBox: process and measurement
// noise both scale with the current height.
type BBoxFilter struct {
	// StdWeightPosition/StdWeightVelocity scale process and measurement
	// noise with height (defaults 1/20 and 1/160).
	StdWeightPosition float64
	StdWeightVelocity float64

	// VelocityClamp caps post-update/predict speed magnitude
	// (sqrt(vxc^2+vyc^2)); 0 means unbounded.
	VelocityClamp float64

	// MaxCovarianceDiag caps every covariance diagonal entry after
	// predict/update. 0 means unbounded.
	MaxCovarianceDiag float64

	// IdleCovarianceInflation is added to the position-block diagonal
	// once per idle epoch by InflateForIdle. 0 (default) disables
	// inflation.
	IdleCovarianceInflation float64
}

// DefaultBBoxFilter returns a BBoxFilter with the standard SORT noise
// weights and every optional knob off.
func DefaultBBoxFilter() BBoxFilter {
	return BBoxFilter{
		StdWeightPosition: 1.0 / 20,
		StdWeightVelocity: 1.0 / 160,
	}
}

// Initiate builds a BBoxState from a first observation: the mean is the
// box's (xc, yc, a, h) augmented with zero velocity, and the covariance is
// diagonal, seeded from measurement noise on position/shape and a larger
// bootstrap variance on velocity.
func (f BBoxFilter) Initiate(box geometry.Universal2DBox) BBoxState {
	h := box.Height
	mean := mat.NewVecDense(BoxStateDim, []float64{box.XC, box.YC, box.Aspect, h, 0, 0, 0, 0})

	stdPos := f.StdWeightPosition * h
	stdVel := f.StdWeightVelocity * h
	diag := []float64{
		2 * stdPos, 2 * stdPos, 1e-2, 2 * stdPos,
		10 * stdVel, 10 * stdVel, 1e-5, 10 * stdVel,
	}
	cov := mat.NewDense(BoxStateDim, BoxStateDim, nil)
	for i, v := range diag {
		cov.Set(i, i, v*v)
	}
	return BBoxState{Mean: mean, Cov: cov}
}

func (f BBoxFilter) motionMatrix() *mat.Dense {
	m := mat.NewDense(BoxStateDim, BoxStateDim, nil)
	for i := 0; i < BoxStateDim; i++ {
		m.Set(i, i, 1)
	}
	for i := 0; i < 4; i++ {
		m.Set(i, i+4, 1) // unit Δt=1 maps velocity into position/shape
	}
	return m
}

func (f BBoxFilter) measurementMatrix() *mat.Dense {
	m := mat.NewDense(BoxMeasDim, BoxStateDim, nil)
	for i := 0; i < BoxMeasDim; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func (f BBoxFilter) processNoise(h float64) *mat.Dense {
	stdPos := f.StdWeightPosition * h
	stdVel := f.StdWeightVelocity * h
	diag := []float64{stdPos, stdPos, 1e-2, stdPos, stdVel, stdVel, 1e-5, stdVel}
	q := mat.NewDense(BoxStateDim, BoxStateDim, nil)
	for i, v := range diag {
		q.Set(i, i, v*v)
	}
	return q
}

func (f BBoxFilter) measurementNoise(h float64) *mat.Dense {
	stdPos := f.StdWeightPosition * h
	diag := []float64{stdPos, stdPos, 1e-1, stdPos}
	r := mat.NewDense(BoxMeasDim, BoxMeasDim, nil)
	for i, v := range diag {
		r.Set(i, i, v*v)
	}
	return r
}

// Predict advances the state by one tick under the constant-velocity
// motion model, numerically stable under repeated application with no
// updates: the process-noise floor prevents the covariance
// from collapsing, and MaxCovarianceDiag (if set) prevents it from
// exploding.
func (f BBoxFilter) Predict(s BBoxState) BBoxState {
	h := s.Mean.AtVec(3)
	motion := f.motionMatrix()

	mean := mat.NewVecDense(BoxStateDim, nil)
	mean.MulVec(motion, s.Mean)

	var fp mat.Dense
	fp.Mul(motion, s.Cov)
	var cov mat.Dense
	cov.Mul(&fp, motion.T())
	cov.Add(&cov, f.processNoise(h))
	symmetrize(&cov)
	clampDiag(&cov, f.MaxCovarianceDiag)

	next := BBoxState{Mean: mean, Cov: &cov}
	f.guardFinite(&next)
	f.clampVelocity(&next)
	return next
}

// Update folds a measurement into the state, preserving covariance
// symmetry via explicit symmetrization after the standard Kalman update.
// If the innovation covariance is singular, the update is skipped and an
// error is returned so the caller can recover (regularize, log, continue)
// instead of silently corrupting the track.
func (f BBoxFilter) Update(s BBoxState, box geometry.Universal2DBox) (BBoxState, error) {
	h := s.Mean.AtVec(3)
	meas := f.measurementMatrix()
	z := mat.NewVecDense(BoxMeasDim, []float64{box.XC, box.YC, box.Aspect, box.Height})

	innovation := mat.NewVecDense(BoxMeasDim, nil)
	var predictedMeas mat.VecDense
	predictedMeas.MulVec(meas, s.Mean)
	innovation.SubVec(z, &predictedMeas)

	s0, err := f.innovationCov(s.Cov, meas, h)
	if err != nil {
		regularize(s.Cov)
		return s, fmt.Errorf("kalman: box update innovation covariance singular, regularized: %w", err)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(toSymDense(s0)); !ok {
		regularize(s.Cov)
		return s, fmt.Errorf("kalman: box update innovation covariance not positive-definite")
	}

	// K = Cov * H^T * S^-1, solved column-by-column via the Cholesky
	// factorization rather than materializing S^-1 directly.
	var ht mat.Dense
	ht.Mul(s.Cov, meas.T())
	var kt mat.Dense
	if err := chol.SolveTo(&kt, ht.T()); err != nil {
		regularize(s.Cov)
		return s, fmt.Errorf("kalman: box update solve failed: %w", err)
	}
	var k mat.Dense
	k.CloneFrom(kt.T())

	mean := mat.NewVecDense(BoxStateDim, nil)
	var delta mat.VecDense
	delta.MulVec(&k, innovation)
	mean.AddVec(s.Mean, &delta)

	// Joseph-stabilized covariance update: P' = (I-KH) P (I-KH)^T + K R K^T.
	ident := mat.NewDense(BoxStateDim, BoxStateDim, nil)
	for i := 0; i < BoxStateDim; i++ {
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

	r := f.measurementNoise(h)
	var krk mat.Dense
	krk.Mul(&k, r)
	var krkt mat.Dense
	krkt.Mul(&krk, k.T())

	cov := mat.NewDense(BoxStateDim, BoxStateDim, nil)
	cov.Add(&term1b, &krkt)
	symmetrize(cov)
	clampDiag(cov, f.MaxCovarianceDiag)

	next := BBoxState{Mean: mean, Cov: cov}
	f.guardFinite(&next)
	f.clampVelocity(&next)
	return next, nil
}

func (f BBoxFilter) innovationCov(cov *mat.Dense, meas *mat.Dense, h float64) (*mat.Dense, error) {
	var hp mat.Dense
	hp.Mul(meas, cov)
	var s mat.Dense
	s.Mul(&hp, meas.T())
	s.Add(&s, f.measurementNoise(h))
	symmetrize(&s)
	return &s, nil
}

// GatingDistance returns the squared Mahalanobis distance between the
// projected state and box, in the box's (xc, yc, a, h) measurement space.
func (f BBoxFilter) GatingDistance(s BBoxState, box geometry.Universal2DBox) float64 {
	h := s.Mean.AtVec(3)
	meas := f.measurementMatrix()
	z := mat.NewVecDense(BoxMeasDim, []float64{box.XC, box.YC, box.Aspect, box.Height})

	var predictedMeas mat.VecDense
	predictedMeas.MulVec(meas, s.Mean)
	innovation := mat.NewVecDense(BoxMeasDim, nil)
	innovation.SubVec(z, &predictedMeas)

	s0, _ := f.innovationCov(s.Cov, meas, h)
	var chol mat.Cholesky
	if ok := chol.Factorize(toSymDense(s0)); !ok {
		return math.Inf(1)
	}
	solved := mat.NewVecDense(BoxMeasDim, nil)
	if err := chol.SolveVecTo(solved, innovation); err != nil {
		return math.Inf(1)
	}
	return mat.Dot(innovation, solved)
}

// InflateForIdle widens the position-block covariance diagonal by
// IdleCovarianceInflation, capped at MaxCovarianceDiag, so the Mahalanobis
// gate widens gracefully while a track coasts. A no-op when
// IdleCovarianceInflation is 0.
func (f BBoxFilter) InflateForIdle(s BBoxState) BBoxState {
	if f.IdleCovarianceInflation <= 0 {
		return s
	}
	next := s.Clone()
	for i := 0; i < 2; i++ {
		v := next.Cov.At(i, i) + f.IdleCovarianceInflation
		if f.MaxCovarianceDiag > 0 && v > f.MaxCovarianceDiag {
			v = f.MaxCovarianceDiag
		}
		next.Cov.Set(i, i, v)
	}
	return next
}

func (f BBoxFilter) guardFinite(s *BBoxState) {
	if isFiniteVector(s.Mean) && isFiniteDiag(s.Cov) {
		return
	}
	// Numerical-error recovery: regularize and continue
	// rather than propagate NaNs into the next epoch's distance matrix.
	for i := 0; i < BoxStateDim; i++ {
		if v := s.Mean.AtVec(i); isNonFinite(v) {
			s.Mean.SetVec(i, 0)
		}
	}
	regularize(s.Cov)
}

func (f BBoxFilter) clampVelocity(s *BBoxState) {
	if f.VelocityClamp <= 0 {
		return
	}
	vxc, vyc := s.Mean.AtVec(4), s.Mean.AtVec(5)
	speed := hypot(vxc, vyc)
	if speed > f.VelocityClamp {
		scale := f.VelocityClamp / speed
		s.Mean.SetVec(4, vxc*scale)
		s.Mean.SetVec(5, vyc*scale)
	}
}
