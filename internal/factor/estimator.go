package factor

import (
	"fmt"
	"math"

	"factorsim/internal/domain"
)

// EstimationError marks a per-instrument estimation failure: too little
// history, misaligned inputs, or a singular regression. The instrument is
// excluded from the date's universe; the run continues.
type EstimationError struct {
	Symbol string
	Err    error
}

func (e EstimationError) Error() string {
	return fmt.Sprintf("exposure estimation failed for %s: %v", e.Symbol, e.Err)
}

func (e EstimationError) Unwrap() error { return e.Err }

// Estimator regresses an instrument's returns on factor returns, with
// intercept, and reports the loadings and the fit's R². The solve is a
// self-contained ordinary-least-squares via normal equations so results stay
// deterministic and free of modeling-library dependencies.
//
// The factor ordering fixed at construction is the ordering every downstream
// vector (current exposure, target projection) aligns to.
type Estimator struct {
	factorNames []string
	minObs      int
}

// NewEstimator requires minObs strictly greater than the factor count plus
// intercept, otherwise the system is underdetermined.
func NewEstimator(factorNames []string, minObs int) (*Estimator, error) {
	if len(factorNames) == 0 {
		return nil, fmt.Errorf("factor: no factor names given")
	}
	if minObs <= len(factorNames)+1 {
		return nil, fmt.Errorf("factor: minimum observations %d must exceed %d (factors + intercept)", minObs, len(factorNames)+1)
	}
	names := make([]string, len(factorNames))
	copy(names, factorNames)
	return &Estimator{factorNames: names, minObs: minObs}, nil
}

func (e *Estimator) FactorNames() []string {
	names := make([]string, len(e.factorNames))
	copy(names, e.factorNames)
	return names
}

// Estimate fits returns = alpha + sum_k beta_k * factorRows[k] and returns
// the betas keyed by factor name plus R². factorRows must be aligned
// row-for-row with returns, each row holding one value per factor in the
// estimator's ordering.
func (e *Estimator) Estimate(symbol string, returns []float64, factorRows [][]float64) (domain.FactorExposure, error) {
	n := len(returns)
	k := len(e.factorNames)
	if n != len(factorRows) {
		return domain.FactorExposure{}, EstimationError{Symbol: symbol, Err: fmt.Errorf("%d returns but %d factor rows", n, len(factorRows))}
	}
	if n < e.minObs {
		return domain.FactorExposure{}, EstimationError{Symbol: symbol, Err: fmt.Errorf("%d observations, need at least %d", n, e.minObs)}
	}
	for i, row := range factorRows {
		if len(row) != k {
			return domain.FactorExposure{}, EstimationError{Symbol: symbol, Err: fmt.Errorf("factor row %d has %d columns, want %d", i, len(row), k)}
		}
	}

	// Design matrix with a leading intercept column.
	p := k + 1
	x := make([][]float64, n)
	for i := range x {
		x[i] = make([]float64, p)
		x[i][0] = 1
		copy(x[i][1:], factorRows[i])
	}

	// Normal equations: (X'X) beta = X'y.
	xtx := make([][]float64, p)
	for i := range xtx {
		xtx[i] = make([]float64, p)
	}
	xty := make([]float64, p)
	for r := 0; r < n; r++ {
		for i := 0; i < p; i++ {
			xty[i] += x[r][i] * returns[r]
			for j := i; j < p; j++ {
				xtx[i][j] += x[r][i] * x[r][j]
			}
		}
	}
	for i := 1; i < p; i++ {
		for j := 0; j < i; j++ {
			xtx[i][j] = xtx[j][i]
		}
	}

	beta, err := solve(xtx, xty)
	if err != nil {
		return domain.FactorExposure{}, EstimationError{Symbol: symbol, Err: err}
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	var ssRes, ssTot float64
	for r := 0; r < n; r++ {
		fitted := 0.0
		for j := 0; j < p; j++ {
			fitted += x[r][j] * beta[j]
		}
		ssRes += (returns[r] - fitted) * (returns[r] - fitted)
		ssTot += (returns[r] - mean) * (returns[r] - mean)
	}
	if ssTot == 0 {
		return domain.FactorExposure{}, EstimationError{Symbol: symbol, Err: fmt.Errorf("zero return variance over window")}
	}

	loadings := make(map[string]float64, k)
	for i, name := range e.factorNames {
		loadings[name] = beta[i+1]
	}
	return domain.FactorExposure{
		Loadings: loadings,
		RSquared: 1 - ssRes/ssTot,
	}, nil
}

// solve runs Gaussian elimination with partial pivoting on a copy of the
// inputs. A vanishing pivot means the factor matrix is singular over the
// window.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	const pivotTol = 1e-12
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < pivotTol {
			return nil, fmt.Errorf("singular factor matrix")
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	out := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * out[j]
		}
		out[i] = sum / m[i][i]
	}
	return out, nil
}
