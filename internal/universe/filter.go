package universe

import (
	"sort"

	"factorsim/internal/domain"
)

// Filter keeps instruments whose regression fit is good enough to trust the
// estimated loadings.
type Filter struct {
	minRSquared float64
}

func NewFilter(minRSquared float64) Filter {
	return Filter{minRSquared: minRSquared}
}

// Select returns the symbols with R² at or above the threshold, in ascending
// lexical order so backtests stay reproducible regardless of map iteration.
// An empty result is valid and means no purchases this date.
func (f Filter) Select(exposures map[string]domain.FactorExposure) []string {
	selected := []string{}
	for symbol, exposure := range exposures {
		if exposure.RSquared >= f.minRSquared {
			selected = append(selected, symbol)
		}
	}
	sort.Strings(selected)
	return selected
}
