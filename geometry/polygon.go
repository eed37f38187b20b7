package geometry

import "gonum.org/v1/gonum/floats"

// Polygon is an ordered, counter-clockwise ring of vertices. It is
// immutable once returned by Clip: callers must copy Points before
// mutating it.
type Polygon struct {
	Points []Point
}

// Empty reports whether the polygon has no vertices (a degenerate
// clip result).
func (p Polygon) Empty() bool {
	return len(p.Points) == 0
}

// Area computes the polygon's area via the shoelace formula, expressed
// as two gonum/floats.Dot accumulations (x_i*y_{i+1} and y_i*x_{i+1}).
func (p Polygon) Area() float64 {
	n := len(p.Points)
	if n < 3 {
		return 0
	}
	xs := make([]float64, n)
	ysShifted := make([]float64, n)
	ys := make([]float64, n)
	xsShifted := make([]float64, n)
	for i, pt := range p.Points {
		xs[i] = pt.X
		ys[i] = pt.Y
		next := p.Points[(i+1)%n]
		xsShifted[i] = next.X
		ysShifted[i] = next.Y
	}
	sum := floats.Dot(xs, ysShifted) - floats.Dot(ys, xsShifted)
	return 0.5 * sum
}

// clipEdge represents one directed edge (from -> to) of the clip polygon,
// oriented so that "inside" is the region to its left (counter-clockwise
// winding).
type clipEdge struct {
	from, to Point
}

// inside reports whether pt lies on the non-negative half-plane of the
// edge's oriented normal (i.e. to the left of, or on, the directed edge).
func (e clipEdge) inside(pt Point) bool {
	cross := (e.to.X-e.from.X)*(pt.Y-e.from.Y) - (e.to.Y-e.from.Y)*(pt.X-e.from.X)
	return cross >= 0
}

// intersect returns the point where segment (a,b) crosses the edge's
// infinite line. Only valid to call when exactly one of a, b is inside.
func (e clipEdge) intersect(a, b Point) Point {
	x1, y1 := e.from.X, e.from.Y
	x2, y2 := e.to.X, e.to.Y
	x3, y3 := a.X, a.Y
	x4, y4 := b.X, b.Y

	denom := (x1-x2)*(y3-y4) - (y1-y2)*(x3-x4)
	if denom == 0 {
		// Parallel/degenerate: fall back to the midpoint rather than
		// dividing by zero. Only arises for degenerate (zero-area or
		// shared-edge) inputs, which must clip without crashing.
		return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	}
	t := ((x1-x3)*(y3-y4) - (y1-y3)*(x3-x4)) / denom
	return Point{X: x1 + t*(x2-x1), Y: y1 + t*(y2-y1)}
}

// Clip computes the convex intersection of two convex polygons (typically
// two box vertex rings) via Sutherland-Hodgman clipping: the subject
// polygon is clipped against each edge of the clip polygon in turn.
// Degenerate inputs (shared edges, single-point touches, fewer than 3
// vertices) yield an empty or degenerate Polygon rather than a panic.
func Clip(subject, clipAgainst Polygon) Polygon {
	output := append([]Point(nil), subject.Points...)
	if len(output) == 0 || len(clipAgainst.Points) < 3 {
		return Polygon{}
	}

	n := len(clipAgainst.Points)
	for i := 0; i < n; i++ {
		edge := clipEdge{from: clipAgainst.Points[i], to: clipAgainst.Points[(i+1)%n]}
		input := output
		output = nil
		if len(input) == 0 {
			break
		}
		for j, cur := range input {
			prev := input[(j-1+len(input))%len(input)]
			curIn := edge.inside(cur)
			prevIn := edge.inside(prev)
			switch {
			case curIn && prevIn:
				output = append(output, cur)
			case curIn && !prevIn:
				output = append(output, edge.intersect(prev, cur), cur)
			case !curIn && prevIn:
				output = append(output, edge.intersect(prev, cur))
			default:
				// both outside: contribute nothing
			}
		}
	}
	return Polygon{Points: output}
}

// VerticesToPolygon wraps a raw vertex ring (as produced by
// Universal2DBox.Vertices) in a Polygon.
func VerticesToPolygon(v [4]Point) Polygon {
	return Polygon{Points: v[:]}
}
