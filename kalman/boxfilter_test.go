package kalman_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/kalman"
)

func box(t *testing.T, xc, yc, aspect, height, conf float64) geometry.Universal2DBox {
	t.Helper()
	b, err := geometry.NewAxisAlignedBox(xc, yc, aspect, height, conf)
	require.NoError(t, err)
	return b
}

func TestBBoxFilter_InitiateZeroVelocity(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	s := f.Initiate(box(t, 10, 10, 1, 5, 0.9))
	require.InDelta(t, 10, s.Mean.AtVec(0), 1e-9)
	require.InDelta(t, 10, s.Mean.AtVec(1), 1e-9)
	require.InDelta(t, 0, s.Mean.AtVec(4), 1e-9, "initial velocity must be zero")
}

func TestBBoxFilter_PredictStableUnderRepeatedApplication(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	f.MaxCovarianceDiag = 1e4
	s := f.Initiate(box(t, 0, 0, 1, 10, 1))
	for i := 0; i < 500; i++ {
		s = f.Predict(s)
	}
	for i := 0; i < kalman.BoxStateDim; i++ {
		v := s.Cov.At(i, i)
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "covariance diagonal must stay finite after many predicts")
		require.LessOrEqual(t, v, 1e4+1e-6)
	}
}

func TestBBoxFilter_PredictThenUpdateConvergesTowardMeasurement(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	s := f.Initiate(box(t, 0, 0, 1, 10, 1))
	for i := 0; i < 10; i++ {
		s = f.Predict(s)
		var err error
		s, err = f.Update(s, box(t, float64(i+1)*2, 0, 1, 10, 1))
		require.NoError(t, err)
	}
	// Velocity should have picked up the +2/tick drift in x.
	require.InDelta(t, 2.0, s.Mean.AtVec(4), 0.5)
}

func TestBBoxFilter_UpdateKeepsCovarianceSymmetric(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	s := f.Initiate(box(t, 0, 0, 1, 10, 1))
	s = f.Predict(s)
	s, err := f.Update(s, box(t, 1, 1, 1.1, 10.2, 1))
	require.NoError(t, err)
	n, _ := s.Cov.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.InDelta(t, s.Cov.At(i, j), s.Cov.At(j, i), 1e-9)
		}
	}
}

func TestBBoxFilter_GatingDistanceRejectsFarMeasurement(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	s := f.Initiate(box(t, 0, 0, 1, 10, 1))
	for i := 0; i < 10; i++ {
		s = f.Predict(s)
	}
	near := f.GatingDistance(s, box(t, 1, 0, 1, 10, 1))
	far := f.GatingDistance(s, box(t, 1000, 0, 1, 10, 1))
	require.Less(t, near, kalman.GatingThreshold95(kalman.BoxMeasDim))
	require.Greater(t, far, kalman.GatingThreshold95(kalman.BoxMeasDim))
}

func TestBBoxFilter_VelocityClamp(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	f.VelocityClamp = 5
	s := f.Initiate(box(t, 0, 0, 1, 10, 1))
	for i := 0; i < 20; i++ {
		s = f.Predict(s)
		var err error
		s, err = f.Update(s, box(t, float64(i+1)*50, 0, 1, 10, 1))
		require.NoError(t, err)
	}
	speed := math.Hypot(s.Mean.AtVec(4), s.Mean.AtVec(5))
	require.LessOrEqual(t, speed, 5.0+1e-6)
}

func TestBBoxFilter_InflateForIdleWidensPositionVariance(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	f.IdleCovarianceInflation = 2
	f.MaxCovarianceDiag = 100
	s := f.Initiate(box(t, 0, 0, 1, 10, 1))
	before := s.Cov.At(0, 0)
	after := f.InflateForIdle(s)
	require.Greater(t, after.Cov.At(0, 0), before)
}

func TestBBoxFilter_InflateForIdleNoopWhenDisabled(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultBBoxFilter()
	s := f.Initiate(box(t, 0, 0, 1, 10, 1))
	after := f.InflateForIdle(s)
	require.Equal(t, s.Cov.At(0, 0), after.Cov.At(0, 0))
}
