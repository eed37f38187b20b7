// Package testutil provides shared test fixtures for the tracking
// packages: box constructors that fail the test on invalid geometry and
// feature-vector builders for visual-voting tests.
package testutil

import (
	"testing"

	"github.com/banshee-data/tracksort/geometry"
	"github.com/banshee-data/tracksort/track"
)

// Box builds an axis-aligned Universal2DBox, failing the test on invalid
// geometry instead of returning an error.
func Box(t *testing.T, xc, yc, aspect, height, confidence float64) geometry.Universal2DBox {
	t.Helper()
	b, err := geometry.NewAxisAlignedBox(xc, yc, aspect, height, confidence)
	AssertNoError(t, err)
	return b
}

// OrientedBox builds an oriented Universal2DBox, failing the test on
// invalid geometry.
func OrientedBox(t *testing.T, xc, yc, theta, aspect, height, confidence float64) geometry.Universal2DBox {
	t.Helper()
	b, err := geometry.NewOrientedBox(xc, yc, theta, aspect, height, confidence)
	AssertNoError(t, err)
	return b
}

// OneHotFeature returns a dim-length feature vector with a 1 at axis and
// 0 elsewhere. Two one-hot features on distinct axes have cosine distance
// 1, which makes appearance-voting assertions unambiguous.
func OneHotFeature(dim, axis int) track.FeatureVector {
	f := make(track.FeatureVector, dim)
	f[axis] = 1
	return f
}

// ConstantFeature returns a dim-length feature vector filled with v.
func ConstantFeature(dim int, v float32) track.FeatureVector {
	f := make(track.FeatureVector, dim)
	for i := range f {
		f[i] = v
	}
	return f
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
