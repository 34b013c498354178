package allocation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// FactorReplication chooses weights minimizing the squared distance between
// the weighted portfolio exposure and the target vector,
//
//	minimize ||X'w - t||²  subject to  sum(w) = 1, w >= 0,
//
// solved by projected gradient descent onto the simplex. The quadratic is
// convex, so the iteration converges to the constrained optimum.
type FactorReplication struct {
	maxIter int
	tol     float64
}

func NewFactorReplication() *FactorReplication {
	return &FactorReplication{maxIter: 5000, tol: 1e-10}
}

func (*FactorReplication) Name() string { return "factor_replication" }

func (r *FactorReplication) Allocate(in Input) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	n := len(in.Universe)
	if n == 0 {
		return out, nil
	}
	k := len(in.FactorNames)
	if len(in.Target) != k {
		return nil, fmt.Errorf("allocation: target has %d entries, want %d", len(in.Target), k)
	}

	x := mat.NewDense(n, k, nil)
	for i, symbol := range in.Universe {
		exposure, ok := in.Exposures[symbol]
		if !ok {
			return nil, fmt.Errorf("allocation: no exposure for %s", symbol)
		}
		x.SetRow(i, exposure.Vector(in.FactorNames))
	}
	t := mat.NewVecDense(k, append([]float64{}, in.Target...))

	// Lipschitz constant of the gradient is 2*lambda_max(XX'), bounded above
	// by twice the squared Frobenius norm.
	norm := mat.Norm(x, 2)
	step := 1.0
	if norm > 0 {
		step = 1 / (2 * norm * norm)
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	grad := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(k, nil)
	wVec := mat.NewVecDense(n, w)
	for iter := 0; iter < r.maxIter; iter++ {
		// grad = 2 X (X'w - t)
		resid.MulVec(x.T(), wVec)
		resid.SubVec(resid, t)
		grad.MulVec(x, resid)

		moved := 0.0
		next := make([]float64, n)
		for i := 0; i < n; i++ {
			next[i] = w[i] - 2*step*grad.AtVec(i)
		}
		projectSimplex(next)
		for i := 0; i < n; i++ {
			d := next[i] - w[i]
			moved += d * d
			w[i] = next[i]
		}
		if moved < r.tol {
			break
		}
	}

	for i, symbol := range in.Universe {
		amount := in.Budget.Mul(decimal.NewFromFloat(w[i])).Truncate(8)
		if amount.IsPositive() {
			out[symbol] = amount
		}
	}
	return out, nil
}

// projectSimplex maps v in place onto {w : sum(w) = 1, w >= 0} by Euclidean
// projection (threshold method).
func projectSimplex(v []float64) {
	n := len(v)
	sorted := append([]float64{}, v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	cum := 0.0
	theta := 0.0
	for i := 0; i < n; i++ {
		cum += sorted[i]
		t := (cum - 1) / float64(i+1)
		if sorted[i]-t > 0 {
			theta = t
		}
	}
	for i := range v {
		if v[i]-theta > 0 {
			v[i] -= theta
		} else {
			v[i] = 0
		}
	}
}
