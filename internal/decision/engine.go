package decision

import (
	"fmt"

	"factorsim/internal/tax"
	"factorsim/internal/trading"
)

// GainMode states what the candidate gain fed into the rebalance gate means.
// Nothing is sold in this version, so taxing a truly realized gain is always
// taxing zero; the historical policy instead taxes the paper gain that a
// rebalance would expose. Both are explicit choices here rather than an
// implicit one.
type GainMode string

const (
	// GainModeRealized taxes only booked realized gains.
	GainModeRealized GainMode = "realized"
	// GainModeUnrealizedProxy taxes the unrealized gain over lot cost bases,
	// floored at zero, as a proxy for what a rebalance would expose.
	GainModeUnrealizedProxy GainMode = "unrealized_proxy"
)

func ParseGainMode(s string) (GainMode, error) {
	switch GainMode(s) {
	case GainModeRealized, GainModeUnrealizedProxy:
		return GainMode(s), nil
	}
	return "", fmt.Errorf("decision: unknown gain mode %q", s)
}

// Verdict is the outcome of one rebalance gate evaluation, with the cost
// breakdown kept for the decision log.
type Verdict struct {
	Approved            bool
	TaxCost             float64
	TradingCost         float64
	ExpectedImprovement float64
}

// Engine gates rebalancing: proceed only when the expected tracking-error
// improvement strictly outweighs tax plus trading friction. It holds no
// mutable state.
type Engine struct {
	taxes *tax.Engine
	costs trading.CostModel
	mode  GainMode
}

func NewEngine(taxes *tax.Engine, costs trading.CostModel, mode GainMode) (*Engine, error) {
	if taxes == nil {
		return nil, fmt.Errorf("decision: nil tax engine")
	}
	if _, err := ParseGainMode(string(mode)); err != nil {
		return nil, err
	}
	return &Engine{taxes: taxes, costs: costs, mode: mode}, nil
}

func (e *Engine) GainMode() GainMode {
	return e.mode
}

// ShouldRebalance approves iff expectedImprovement > taxCost + tradingCost.
// Equality does not trigger a rebalance. candidateGain must already match the
// engine's gain mode; the caller computes it accordingly.
func (e *Engine) ShouldRebalance(candidateGain, expectedImprovement, tradeValue float64) Verdict {
	taxCost := e.taxes.TaxDue(candidateGain)
	tradingCost := e.costs.Cost(tradeValue)
	return Verdict{
		Approved:            expectedImprovement > taxCost+tradingCost,
		TaxCost:             taxCost,
		TradingCost:         tradingCost,
		ExpectedImprovement: expectedImprovement,
	}
}
