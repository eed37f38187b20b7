package kalman_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksort/kalman"
)

func TestPointFilter_InitiateZeroVelocity(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultPointFilter()
	s := f.Initiate(3, 4)
	x, y := s.XY()
	require.InDelta(t, 3, x, 1e-9)
	require.InDelta(t, 4, y, 1e-9)
	require.InDelta(t, 0, s.Mean.AtVec(2), 1e-9)
}

func TestPointFilter_PredictUpdateTracksConstantVelocity(t *testing.T) {
	t.Parallel()

	f := kalman.DefaultPointFilter()
	s := f.Initiate(0, 0)
	for i := 1; i <= 20; i++ {
		s = f.Predict(s)
		var err error
		s, err = f.Update(s, float64(i), 0)
		require.NoError(t, err)
	}
	x, _ := s.XY()
	require.InDelta(t, 20, x, 1.0)
	require.InDelta(t, 1.0, s.Mean.AtVec(2), 0.3)
}

func TestPointVectorFilter_SharesOneClock(t *testing.T) {
	t.Parallel()

	vf := kalman.PointVectorFilter{Filter: kalman.DefaultPointFilter()}
	s := vf.Initiate([]float64{0, 10}, []float64{0, 10})
	require.Len(t, s.Points, 2)

	s = vf.Predict(s)
	s, err := vf.Update(s, []float64{1, 11}, []float64{0, 10})
	require.NoError(t, err)
	require.Len(t, s.Points, 2)
}

func TestPointVectorFilter_LengthMismatchErrors(t *testing.T) {
	t.Parallel()

	vf := kalman.PointVectorFilter{Filter: kalman.DefaultPointFilter()}
	s := vf.Initiate([]float64{0}, []float64{0})
	_, err := vf.Update(s, []float64{1, 2}, []float64{1, 2})
	require.Error(t, err)
}
