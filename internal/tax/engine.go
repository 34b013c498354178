package tax

import (
	"fmt"
	"math"
)

// Bracket is one band of a progressive schedule: the rate applies to the
// portion of a gain between the previous bracket's upper bound and this one.
type Bracket struct {
	UpperBound float64
	Rate       float64
}

// Engine computes progressive capital gains tax over an ordered bracket
// schedule. Each call is stateless given its gain; there is no loss
// carryforward or netting across dates.
type Engine struct {
	brackets []Bracket
}

// NewEngine validates the schedule up front: upper bounds strictly
// increasing, the final bound infinite, rates within [0, 1]. A malformed
// schedule is a configuration error, not something to discover mid-run.
func NewEngine(brackets []Bracket) (*Engine, error) {
	if len(brackets) == 0 {
		return nil, fmt.Errorf("tax: empty bracket schedule")
	}
	prev := 0.0
	for i, b := range brackets {
		if b.Rate < 0 || b.Rate > 1 {
			return nil, fmt.Errorf("tax: bracket %d has rate %f outside [0, 1]", i, b.Rate)
		}
		if b.UpperBound <= prev {
			return nil, fmt.Errorf("tax: bracket %d upper bound %f does not increase past %f", i, b.UpperBound, prev)
		}
		prev = b.UpperBound
	}
	if !math.IsInf(brackets[len(brackets)-1].UpperBound, 1) {
		return nil, fmt.Errorf("tax: final bracket upper bound must be +Inf, got %f", brackets[len(brackets)-1].UpperBound)
	}
	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	return &Engine{brackets: out}, nil
}

// TaxDue applies the schedule marginally: each bracket's rate taxes only the
// slice of the gain falling inside that bracket. Non-positive gains owe
// nothing.
func (e *Engine) TaxDue(gain float64) float64 {
	if gain <= 0 {
		return 0
	}
	due := 0.0
	lower := 0.0
	for _, b := range e.brackets {
		upper := math.Min(gain, b.UpperBound)
		if upper <= lower {
			break
		}
		due += (upper - lower) * b.Rate
		lower = b.UpperBound
	}
	return due
}

func (e *Engine) Brackets() []Bracket {
	out := make([]Bracket, len(e.brackets))
	copy(out, e.brackets)
	return out
}
