package domain

import "fmt"

// FactorExposure is one instrument's estimated factor loadings plus the fit's
// R². Recomputed fresh on every rebalance date, never persisted across dates.
// RSquared is not clamped; poor fits can go negative.
type FactorExposure struct {
	Loadings map[string]float64
	RSquared float64
}

// Vector projects the loadings onto the given factor ordering, substituting 0
// for factors without a loading.
func (e FactorExposure) Vector(names []string) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = e.Loadings[name]
	}
	return out
}

// FactorTarget holds the desired factor weights. Weights are not normalized;
// whether they should sum to 1 is the caller's policy.
type FactorTarget struct {
	weights map[string]float64
}

func NewFactorTarget(weights map[string]float64) FactorTarget {
	w := make(map[string]float64, len(weights))
	for name, weight := range weights {
		w[name] = weight
	}
	return FactorTarget{weights: w}
}

// Vector projects the target weights onto the given factor ordering,
// defaulting unspecified factors to 0. An empty ordering is a configuration
// error.
func (t FactorTarget) Vector(names []string) ([]float64, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("factor target: empty factor name list")
	}
	out := make([]float64, len(names))
	for i, name := range names {
		out[i] = t.weights[name]
	}
	return out, nil
}

func (t FactorTarget) Weight(name string) (float64, bool) {
	w, ok := t.weights[name]
	return w, ok
}
