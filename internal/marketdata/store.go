package marketdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MissingDataError reports a price or factor row absent for a required date.
// Callers decide severity: the strategy skips the instrument, valuation
// treats it as fatal.
type MissingDataError struct {
	Symbol string
	Date   time.Time
}

func (e MissingDataError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("no factor data on %s", e.Date.Format(time.DateOnly))
	}
	return fmt.Sprintf("no data for %s on %s", e.Symbol, e.Date.Format(time.DateOnly))
}

// AssetPrice is one instrument's closing price on one trading day.
type AssetPrice struct {
	Symbol string
	Date   time.Time
	Price  float64
}

// FactorReturn is one factor's per-period return on one trading day.
type FactorReturn struct {
	Factor string
	Date   time.Time
	Return float64
}

// Store holds prices and factor returns aligned to a single trading-day
// calendar, entirely in memory. Per-period instrument returns are derived
// from consecutive prices. The factor column ordering is fixed at
// construction and reused for the whole run.
type Store struct {
	dates     []time.Time
	dateIndex map[string]int

	symbols []string
	prices  map[string]map[string]float64

	factorNames []string
	factorRows  map[string][]float64
}

func dateKey(date time.Time) string {
	return date.Format(time.DateOnly)
}

// NewStore builds the aligned store. The trading calendar is the sorted set
// of dates carrying factor data; factor rows must be complete per date.
// Factor ordering follows first appearance in the input.
func NewStore(prices []AssetPrice, factors []FactorReturn) (*Store, error) {
	if len(factors) == 0 {
		return nil, fmt.Errorf("marketdata: no factor returns given")
	}

	factorNames := []string{}
	seenFactor := map[string]bool{}
	for _, f := range factors {
		if !seenFactor[f.Factor] {
			seenFactor[f.Factor] = true
			factorNames = append(factorNames, f.Factor)
		}
	}

	byDate := map[string]map[string]float64{}
	for _, f := range factors {
		key := dateKey(f.Date)
		if byDate[key] == nil {
			byDate[key] = map[string]float64{}
		}
		byDate[key][f.Factor] = f.Return
	}

	dates := []time.Time{}
	seenDate := map[string]bool{}
	for _, f := range factors {
		key := dateKey(f.Date)
		if !seenDate[key] {
			seenDate[key] = true
			dates = append(dates, time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC))
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	dateIndex := make(map[string]int, len(dates))
	factorRows := make(map[string][]float64, len(dates))
	for i, d := range dates {
		key := dateKey(d)
		dateIndex[key] = i
		row := make([]float64, len(factorNames))
		for j, name := range factorNames {
			v, ok := byDate[key][name]
			if !ok {
				return nil, fmt.Errorf("marketdata: factor %s missing on %s", name, key)
			}
			row[j] = v
		}
		factorRows[key] = row
	}

	priceMap := map[string]map[string]float64{}
	symbolSet := map[string]bool{}
	for _, p := range prices {
		if priceMap[p.Symbol] == nil {
			priceMap[p.Symbol] = map[string]float64{}
		}
		priceMap[p.Symbol][dateKey(p.Date)] = p.Price
		symbolSet[p.Symbol] = true
	}
	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	return &Store{
		dates:       dates,
		dateIndex:   dateIndex,
		symbols:     symbols,
		prices:      priceMap,
		factorNames: factorNames,
		factorRows:  factorRows,
	}, nil
}

// Symbols lists every priced instrument in lexical order.
func (s *Store) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

func (s *Store) FactorNames() []string {
	out := make([]string, len(s.factorNames))
	copy(out, s.factorNames)
	return out
}

// TradingDays returns the full calendar in chronological order.
func (s *Store) TradingDays() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Price returns the symbol's price on exactly the given date. There is no
// fallback to an earlier or later price.
func (s *Store) Price(symbol string, date time.Time) (decimal.Decimal, error) {
	bySymbol, ok := s.prices[symbol]
	if !ok {
		return decimal.Zero, MissingDataError{Symbol: symbol, Date: date}
	}
	price, ok := bySymbol[dateKey(date)]
	if !ok {
		return decimal.Zero, MissingDataError{Symbol: symbol, Date: date}
	}
	return decimal.NewFromFloat(price), nil
}

// ReturnsWindow returns up to n per-period returns for the symbol ending at
// the last trading day on or before end, together with the dates the returns
// fall on. Fewer than n observations is not an error here; the estimator
// enforces its own minimum.
func (s *Store) ReturnsWindow(symbol string, end time.Time, n int) ([]float64, []time.Time, error) {
	bySymbol, ok := s.prices[symbol]
	if !ok {
		return nil, nil, MissingDataError{Symbol: symbol, Date: end}
	}

	endIdx := -1
	for i := len(s.dates) - 1; i >= 0; i-- {
		if !s.dates[i].After(end) {
			endIdx = i
			break
		}
	}
	if endIdx < 0 {
		return nil, nil, MissingDataError{Symbol: symbol, Date: end}
	}

	returns := []float64{}
	dates := []time.Time{}
	for i := endIdx; i > 0 && len(returns) < n; i-- {
		cur, okCur := bySymbol[dateKey(s.dates[i])]
		prev, okPrev := bySymbol[dateKey(s.dates[i-1])]
		if !okCur || !okPrev {
			// history before a listing gap is unusable for a contiguous window
			break
		}
		if prev == 0 {
			return nil, nil, MissingDataError{Symbol: symbol, Date: s.dates[i-1]}
		}
		returns = append(returns, cur/prev-1)
		dates = append(dates, s.dates[i])
	}

	// accumulated newest-first; flip to chronological
	for i, j := 0, len(returns)-1; i < j; i, j = i+1, j-1 {
		returns[i], returns[j] = returns[j], returns[i]
		dates[i], dates[j] = dates[j], dates[i]
	}
	return returns, dates, nil
}

// FactorRows returns the factor-return rows for the given dates, aligned
// row-for-row, each row in the store's factor ordering.
func (s *Store) FactorRows(dates []time.Time) ([][]float64, error) {
	rows := make([][]float64, len(dates))
	for i, d := range dates {
		row, ok := s.factorRows[dateKey(d)]
		if !ok {
			return nil, MissingDataError{Date: d}
		}
		rows[i] = row
	}
	return rows, nil
}
