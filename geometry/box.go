package geometry

import (
	"fmt"
	"math"
)

// Point is a 2D vertex in the same coordinate frame as Universal2DBox.
type Point struct {
	X, Y float64
}

// Universal2DBox is the canonical box representation used throughout the
// tracking core: a center, an optional rotation, an aspect ratio, a height,
// and a detection confidence. Angle == nil means the box is strictly
// axis-aligned; its vertices are then the four corners of the rectangle
// without any rotation step.
//
// Height and Aspect must both be strictly positive; Confidence is
// expected in [0, 1] but is not clamped here (the tracker's
// min-confidence floor is applied at ingestion, not by the box
// constructor).
type Universal2DBox struct {
	XC, YC     float64
	Angle      *float64
	Aspect     float64
	Height     float64
	Confidence float64

	// vertices caches the last computed vertex ring; nil means "stale,
	// recompute on next Vertices() call". Any mutator on this type
	// (Rotate, Rescale, Translate, SetAngle) clears this field.
	vertices *[4]Point
}

// NewAxisAlignedBox builds a strictly axis-aligned Universal2DBox.
func NewAxisAlignedBox(xc, yc, aspect, height, confidence float64) (Universal2DBox, error) {
	b := Universal2DBox{XC: xc, YC: yc, Aspect: aspect, Height: height, Confidence: confidence}
	return b, b.validate()
}

// NewOrientedBox builds an oriented Universal2DBox with rotation angle
// theta (radians).
func NewOrientedBox(xc, yc, theta, aspect, height, confidence float64) (Universal2DBox, error) {
	b := Universal2DBox{XC: xc, YC: yc, Angle: &theta, Aspect: aspect, Height: height, Confidence: confidence}
	return b, b.validate()
}

func (b Universal2DBox) validate() error {
	if b.Height <= 0 {
		return fmt.Errorf("geometry: box height must be positive, got %g", b.Height)
	}
	if b.Aspect <= 0 {
		return fmt.Errorf("geometry: box aspect ratio must be positive, got %g", b.Aspect)
	}
	return nil
}

// IsOriented reports whether the box carries a non-axis-aligned rotation.
func (b Universal2DBox) IsOriented() bool {
	return b.Angle != nil
}

// Width returns the box width (aspect * height).
func (b Universal2DBox) Width() float64 {
	return b.Aspect * b.Height
}

// Radius is the bounding-circle radius used for the separability fast
// path: 0.5*sqrt(w^2+h^2). Two boxes farther apart than the sum of their
// radii cannot possibly intersect.
func (b Universal2DBox) Radius() float64 {
	w, h := b.Width(), b.Height
	return 0.5 * math.Sqrt(w*w+h*h)
}

// Separable reports whether two boxes are provably non-intersecting by
// the bounding-circle fast path. A false result does not
// guarantee intersection, only that the circle test was inconclusive.
func Separable(a, b Universal2DBox) bool {
	dx := a.XC - b.XC
	dy := a.YC - b.YC
	dist := math.Hypot(dx, dy)
	return dist > a.Radius()+b.Radius()
}

// Vertices returns the four corners of the box as an ordered
// counter-clockwise ring, computing and caching them on first access.
func (b *Universal2DBox) Vertices() [4]Point {
	if b.vertices != nil {
		return *b.vertices
	}
	v := b.computeVertices()
	b.vertices = &v
	return v
}

func (b *Universal2DBox) computeVertices() [4]Point {
	halfW := b.Width() / 2
	halfH := b.Height / 2
	// Axis-aligned corners, counter-clockwise starting bottom-left.
	corners := [4]Point{
		{X: -halfW, Y: -halfH},
		{X: halfW, Y: -halfH},
		{X: halfW, Y: halfH},
		{X: -halfW, Y: halfH},
	}
	if b.Angle != nil {
		sinT, cosT := math.Sincos(*b.Angle)
		for i, c := range corners {
			corners[i] = Point{
				X: c.X*cosT - c.Y*sinT,
				Y: c.X*sinT + c.Y*cosT,
			}
		}
	}
	for i := range corners {
		corners[i].X += b.XC
		corners[i].Y += b.YC
	}
	return corners
}

// invalidate drops the cached vertex ring. Called by every mutator.
func (b *Universal2DBox) invalidate() {
	b.vertices = nil
}

// Translate moves the box center by (dx, dy), invalidating the vertex cache.
func (b *Universal2DBox) Translate(dx, dy float64) {
	b.XC += dx
	b.YC += dy
	b.invalidate()
}

// Rotate adds deltaTheta (radians) to the box's angle, promoting an
// axis-aligned box to oriented if it was previously nil.
func (b *Universal2DBox) Rotate(deltaTheta float64) {
	if b.Angle == nil {
		theta := deltaTheta
		b.Angle = &theta
	} else {
		theta := *b.Angle + deltaTheta
		b.Angle = &theta
	}
	b.invalidate()
}

// SetAngle overwrites the box's orientation outright (nil clears it back
// to axis-aligned).
func (b *Universal2DBox) SetAngle(theta *float64) {
	b.Angle = theta
	b.invalidate()
}

// Rescale multiplies height (and, through Aspect, width) by factor.
func (b *Universal2DBox) Rescale(factor float64) {
	b.Height *= factor
	b.invalidate()
}

// AsLTWH converts to the (left, top, width, height) representation. Only
// meaningful for a strictly axis-aligned box; a non-nil Angle is ignored
// by this projection, the same axis-aligned projection the Kalman filter
// operates on.
func (b Universal2DBox) AsLTWH() (left, top, width, height float64) {
	w := b.Width()
	return b.XC - w/2, b.YC - b.Height/2, w, b.Height
}

// FromLTWH builds an axis-aligned box from (left, top, width, height).
func FromLTWH(left, top, width, height, confidence float64) (Universal2DBox, error) {
	if height <= 0 {
		return Universal2DBox{}, fmt.Errorf("geometry: height must be positive, got %g", height)
	}
	aspect := width / height
	return NewAxisAlignedBox(left+width/2, top+height/2, aspect, height, confidence)
}
