package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"factorsim/internal/domain"
)

// Input carries everything an allocation strategy may use: the filtered
// universe, per-instrument exposures, the target vector in the run's factor
// ordering, and the cash budget to split.
type Input struct {
	Universe    []string
	Exposures   map[string]domain.FactorExposure
	FactorNames []string
	Target      []float64
	Budget      decimal.Decimal
}

// Strategy turns an approved cash budget into per-symbol euro allocations.
// Implementations must not allocate more than the budget in total.
type Strategy interface {
	Name() string
	Allocate(in Input) (map[string]decimal.Decimal, error)
}

// EqualWeight splits the budget evenly across the universe. Factor loadings
// are ignored.
type EqualWeight struct{}

func (EqualWeight) Name() string { return "equal_weight" }

func (EqualWeight) Allocate(in Input) (map[string]decimal.Decimal, error) {
	out := map[string]decimal.Decimal{}
	if len(in.Universe) == 0 {
		return out, nil
	}
	// truncate so k allocations never sum past the budget
	per := in.Budget.Div(decimal.NewFromInt(int64(len(in.Universe)))).Truncate(8)
	for _, symbol := range in.Universe {
		out[symbol] = per
	}
	return out, nil
}

// New returns the named strategy variant.
func New(name string) (Strategy, error) {
	switch name {
	case "", "equal_weight":
		return EqualWeight{}, nil
	case "factor_replication":
		return NewFactorReplication(), nil
	}
	return nil, fmt.Errorf("allocation: unknown strategy %q", name)
}
