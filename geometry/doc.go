// Package geometry implements the box representation and the
// computational-geometry kernels the tracking core runs on its hot path:
// vertex generation for axis-aligned and oriented boxes, Sutherland-Hodgman
// polygon clipping, shoelace intersection area, IoU, and IoU-based NMS.
//
// Nothing in this package holds state across calls; every type here is a
// plain value safe to share across goroutines by copy.
package geometry
