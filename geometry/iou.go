package geometry

import "math"

// IntersectionArea computes the area of overlap between two boxes. Two
// axis-aligned boxes take a fast path that avoids polygon construction
// entirely; any oriented box falls back to Sutherland-Hodgman clipping
// over the two vertex rings.
func IntersectionArea(a, b Universal2DBox) float64 {
	if !a.IsOriented() && !b.IsOriented() {
		return axisAlignedIntersectionArea(a, b)
	}
	if Separable(a, b) {
		return 0
	}
	av := a.Vertices()
	bv := b.Vertices()
	clipped := Clip(VerticesToPolygon(av), VerticesToPolygon(bv))
	if clipped.Empty() {
		return 0
	}
	return math.Abs(clipped.Area())
}

func axisAlignedIntersectionArea(a, b Universal2DBox) float64 {
	aLeft, aTop, aW, aH := a.AsLTWH()
	bLeft, bTop, bW, bH := b.AsLTWH()
	aRight, aBottom := aLeft+aW, aTop+aH
	bRight, bBottom := bLeft+bW, bTop+bH

	dx := math.Min(aRight, bRight) - math.Max(aLeft, bLeft)
	dy := math.Min(aBottom, bBottom) - math.Max(aTop, bTop)
	if dx <= 0 || dy <= 0 {
		return 0
	}
	return dx * dy
}

// boxArea returns a box's area (w*h), valid regardless of orientation
// since rotation does not change area.
func boxArea(b Universal2DBox) float64 {
	return b.Width() * b.Height
}

// IoU computes the intersection-over-union of two boxes, returning 0
// when the union area is 0. IoU(A,A) == 1 and IoU(A,B) == IoU(B,A) for
// any well-formed box.
func IoU(a, b Universal2DBox) float64 {
	inter := IntersectionArea(a, b)
	union := boxArea(a) + boxArea(b) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
