package assign

import "math"

// forbidden stands in for +Inf in the padded square working matrix;
// a large finite sentinel instead of math.Inf keeps the potential-update
// arithmetic inside the Jonker-Volgenant loop free of NaN from Inf-Inf.
const forbidden = 1e18

// Match is one resolved (candidate, track) pairing with its cost.
type Match struct {
	CandidateIndex int
	TrackIndex     int
	Cost           float64
}

// Result is the outcome of Solve: the resolved matches plus the indices
// of candidates and tracks left unmatched (every gated-out or otherwise
// unassignable row/column).
type Result struct {
	Matches             []Match
	UnmatchedCandidates []int
	UnmatchedTracks     []int
}

// Solve computes a minimum-cost matching over an n-candidate by m-track
// cost matrix using a Jonker-Volgenant variant of the Hungarian algorithm,
// run on a square matrix padded with the forbidden sentinel. Non-finite
// entries and entries at or above that sentinel (1e18) are treated as
// forbidden and never selected. Ties are broken by ascending (candidate_index, track_index),
// which falls out of the algorithm's row-major augmenting-path order
// combined with a stable column scan — no separate tie-break pass is
// needed.
//
// An empty axis (no candidates or no tracks) is unsolvable: Solve
// returns no matches and every row/column reported unmatched.
func Solve(cost [][]float64) Result {
	n := len(cost)
	if n == 0 {
		return Result{}
	}
	m := len(cost[0])
	if m == 0 {
		unmatched := make([]int, n)
		for i := range unmatched {
			unmatched[i] = i
		}
		return Result{UnmatchedCandidates: unmatched}
	}

	dim := n
	if m > dim {
		dim = m
	}

	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < n && j < m && isFinite(cost[i][j]) && cost[i][j] < forbidden {
				c[i][j] = cost[i][j]
			} else {
				c[i][j] = forbidden
			}
		}
	}

	rowAssign := jonkerVolgenant(c, dim)

	res := Result{}
	matchedTracks := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		j := rowAssign[i]
		if j < 0 || j >= m || cost[i][j] >= forbidden || !isFinite(cost[i][j]) {
			res.UnmatchedCandidates = append(res.UnmatchedCandidates, i)
			continue
		}
		res.Matches = append(res.Matches, Match{CandidateIndex: i, TrackIndex: j, Cost: cost[i][j]})
		matchedTracks[j] = true
	}
	for j := 0; j < m; j++ {
		if !matchedTracks[j] {
			res.UnmatchedTracks = append(res.UnmatchedTracks, j)
		}
	}
	return res
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// jonkerVolgenant implements the Kuhn-Munkres algorithm with potentials,
// 1-indexed internally for cleaner augmenting-path bookkeeping.
func jonkerVolgenant(c [][]float64, dim int) []int {
	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	rowAssign := make([]int, dim)
	for i := range rowAssign {
		rowAssign[i] = -1
	}
	for j := 1; j <= dim; j++ {
		if p[j] > 0 && p[j] <= dim {
			rowAssign[p[j]-1] = j - 1
		}
	}
	return rowAssign
}
