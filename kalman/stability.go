package kalman

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// regularizeEps is the diagonal loading added to a state covariance when
// its innovation covariance fails to Cholesky-factorize or a
// predict/update leaves non-finite values.
const regularizeEps = 1e-6

// isNonFinite reports whether x is NaN or ±Inf.
func isNonFinite(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}

// hypot wraps math.Hypot for the filters' velocity clamps.
func hypot(x, y float64) float64 {
	return math.Hypot(x, y)
}

// isFiniteVector reports whether every element of v is finite.
func isFiniteVector(v *mat.VecDense) bool {
	n := v.Len()
	for i := 0; i < n; i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// isFiniteDiag reports whether the diagonal of m is finite; off-diagonal
// blow-up without a finite diagonal cannot happen for a covariance that
// started finite and was only ever added to / solved against finite
// matrices, so checking the diagonal is sufficient.
func isFiniteDiag(m *mat.Dense) bool {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		x := m.At(i, i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// symmetrize averages m with its transpose in place, restoring exact
// symmetry lost to floating-point round-off across predict/update cycles.
func symmetrize(m *mat.Dense) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			avg := 0.5 * (m.At(i, j) + m.At(j, i))
			m.Set(i, j, avg)
			m.Set(j, i, avg)
		}
	}
}

// toSymDense wraps a square, already-symmetrized Dense as a SymDense
// without copying past the upper triangle, for use with mat.Cholesky.
func toSymDense(m *mat.Dense) *mat.SymDense {
	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m.At(i, j))
		}
	}
	return sym
}

// regularize adds a small multiple of the identity to the diagonal of a
// square Dense matrix, recovering a covariance that has lost
// positive-definiteness.
func regularize(m *mat.Dense) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		m.Set(i, i, m.At(i, i)+regularizeEps)
	}
}

// clampDiag caps every diagonal entry of m at maxDiag, preventing unbounded
// covariance growth under repeated predicts with no updates.
func clampDiag(m *mat.Dense, maxDiag float64) {
	if maxDiag <= 0 {
		return
	}
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		if v := m.At(i, i); v > maxDiag {
			m.Set(i, i, maxDiag)
		}
	}
}
