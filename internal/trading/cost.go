package trading

import (
	"fmt"
	"math"
)

// CostModel charges a percentage of traded value with a flat floor standing in
// for minimum brokerage fees.
type CostModel struct {
	pctCost float64
	minCost float64
}

func NewCostModel(pctCost, minCost float64) (CostModel, error) {
	if pctCost < 0 {
		return CostModel{}, fmt.Errorf("trading: negative percentage cost %f", pctCost)
	}
	if minCost < 0 {
		return CostModel{}, fmt.Errorf("trading: negative minimum cost %f", minCost)
	}
	return CostModel{pctCost: pctCost, minCost: minCost}, nil
}

// Cost is max(|tradeValue| * pctCost, minCost).
func (m CostModel) Cost(tradeValue float64) float64 {
	return math.Max(math.Abs(tradeValue)*m.pctCost, m.minCost)
}
