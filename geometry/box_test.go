package geometry_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tracksort/geometry"
)

func TestFromLTWH_RoundTrip(t *testing.T) {
	t.Parallel()

	box, err := geometry.FromLTWH(10, 20, 4, 2, 0.9)
	require.NoError(t, err)

	left, top, width, height := box.AsLTWH()
	got := []float64{left, top, width, height}
	want := []float64{10, 20, 4, 2}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFromLTWH_RejectsNonPositiveHeight(t *testing.T) {
	t.Parallel()

	_, err := geometry.FromLTWH(0, 0, 1, 0, 0.5)
	require.Error(t, err)
}

func TestNewOrientedBox_IsOriented(t *testing.T) {
	t.Parallel()

	box, err := geometry.NewOrientedBox(0, 0, math.Pi/4, 1, 1, 1)
	require.NoError(t, err)
	require.True(t, box.IsOriented())
}

func TestVertices_InvalidatedByMutation(t *testing.T) {
	t.Parallel()

	box, err := geometry.NewAxisAlignedBox(0, 0, 1, 2, 1)
	require.NoError(t, err)

	v1 := box.Vertices()
	box.Translate(5, 0)
	v2 := box.Vertices()
	require.NotEqual(t, v1, v2, "translate must invalidate the cached vertex ring")
}

func TestSeparable(t *testing.T) {
	t.Parallel()

	a, err := geometry.NewAxisAlignedBox(0, 0, 1, 2, 1)
	require.NoError(t, err)
	b, err := geometry.NewAxisAlignedBox(1000, 0, 1, 2, 1)
	require.NoError(t, err)
	require.True(t, geometry.Separable(a, b))

	c, err := geometry.NewAxisAlignedBox(0.5, 0, 1, 2, 1)
	require.NoError(t, err)
	require.False(t, geometry.Separable(a, c))
}
