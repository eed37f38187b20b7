package geometry

import "sort"

// ScoredBox pairs a box with a detection score for NMS.
type ScoredBox struct {
	Box   Universal2DBox
	Score float64
}

// NMS applies greedy non-maximum suppression over boxes.
// Boxes with Score below scoreThreshold are dropped first; the remainder
// is sorted by descending score (ties broken by ascending original index,
// for determinism) and then, in that order, each surviving box suppresses
// every later box whose IoU with it exceeds nmsThreshold. The returned
// slice holds the original indices of the retained boxes, in the order
// they were kept (descending score).
func NMS(boxes []ScoredBox, nmsThreshold, scoreThreshold float64) []int {
	order := make([]int, 0, len(boxes))
	for i, b := range boxes {
		if b.Score >= scoreThreshold {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return boxes[order[i]].Score > boxes[order[j]].Score
	})

	suppressed := make([]bool, len(boxes))
	kept := make([]int, 0, len(order))
	for _, i := range order {
		if suppressed[i] {
			continue
		}
		kept = append(kept, i)
		for _, j := range order {
			if j == i || suppressed[j] {
				continue
			}
			if IoU(boxes[i].Box, boxes[j].Box) > nmsThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
