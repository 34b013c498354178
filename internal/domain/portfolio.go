package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PriceReader provides the price of an instrument on a given date. Valuation
// must use the price on the date passed in, never a more recent one.
type PriceReader interface {
	Price(symbol string, date time.Time) (decimal.Decimal, error)
}

// Lot is a single purchase record. Immutable after creation; there are no
// partial-lot sells in this version.
type Lot struct {
	Shares     decimal.Decimal
	CostBasis  decimal.Decimal
	AcquiredAt time.Time
}

// Position holds the lots of one instrument in acquisition order.
type Position struct {
	Symbol string
	Lots   []Lot
}

func (p Position) TotalShares() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range p.Lots {
		total = total.Add(lot.Shares)
	}
	return total
}

// Portfolio is the single mutable root of a simulation: cash plus positions.
// Positions live in a flat slice with a symbol index so lot ordering survives
// and iteration stays deterministic.
type Portfolio struct {
	Cash decimal.Decimal

	positions []Position
	index     map[string]int
}

func NewPortfolio(cash decimal.Decimal) *Portfolio {
	return &Portfolio{
		Cash:  cash,
		index: map[string]int{},
	}
}

// AddLot appends a lot to the symbol's position, creating the position on
// first use.
func (p *Portfolio) AddLot(symbol string, lot Lot) {
	i, ok := p.index[symbol]
	if !ok {
		p.positions = append(p.positions, Position{Symbol: symbol})
		i = len(p.positions) - 1
		p.index[symbol] = i
	}
	p.positions[i].Lots = append(p.positions[i].Lots, lot)
}

func (p *Portfolio) Position(symbol string) (Position, bool) {
	i, ok := p.index[symbol]
	if !ok {
		return Position{}, false
	}
	return p.positions[i], true
}

// Positions returns the positions in insertion order.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, len(p.positions))
	copy(out, p.positions)
	return out
}

func (p *Portfolio) HeldSymbols() []string {
	symbols := make([]string, 0, len(p.positions))
	for _, pos := range p.positions {
		symbols = append(symbols, pos.Symbol)
	}
	return symbols
}

// MarketValue is cash plus the value of every position priced on the given
// date. A missing price here is fatal: the portfolio cannot be valued.
func (p *Portfolio) MarketValue(date time.Time, prices PriceReader) (decimal.Decimal, error) {
	total := p.Cash
	for _, pos := range p.positions {
		price, err := prices.Price(pos.Symbol, date)
		if err != nil {
			return decimal.Zero, fmt.Errorf("cannot value portfolio on %s: %w", date.Format(time.DateOnly), err)
		}
		total = total.Add(pos.TotalShares().Mul(price))
	}
	return total, nil
}

func (p *Portfolio) DeepCopy() *Portfolio {
	cp := &Portfolio{
		Cash:      p.Cash,
		positions: make([]Position, len(p.positions)),
		index:     make(map[string]int, len(p.index)),
	}
	for i, pos := range p.positions {
		lots := make([]Lot, len(pos.Lots))
		copy(lots, pos.Lots)
		cp.positions[i] = Position{Symbol: pos.Symbol, Lots: lots}
	}
	for symbol, i := range p.index {
		cp.index[symbol] = i
	}
	return cp
}
