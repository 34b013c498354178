package backtest

import (
	"fmt"
	"time"
)

// DateHandler receives each simulation date in order.
type DateHandler interface {
	OnDate(date time.Time) error
}

// Engine drives a handler across an ordered date sequence. Lot cost bases and
// cash balances are path-dependent, so dates must be strictly increasing; an
// out-of-order sequence is rejected before any date runs.
type Engine struct {
	Handler DateHandler

	// AfterDate, when set, runs after each date's handler call. Callers use
	// it to collect valuation series; the engine itself does no reporting.
	AfterDate func(date time.Time) error
}

func New(handler DateHandler) *Engine {
	return &Engine{Handler: handler}
}

func (e *Engine) Run(dates []time.Time) error {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return fmt.Errorf("backtest: dates must be strictly increasing, got %s after %s",
				dates[i].Format(time.DateOnly), dates[i-1].Format(time.DateOnly))
		}
	}
	for _, date := range dates {
		if err := e.Handler.OnDate(date); err != nil {
			return fmt.Errorf("backtest failed on %s: %w", date.Format(time.DateOnly), err)
		}
		if e.AfterDate != nil {
			if err := e.AfterDate(date); err != nil {
				return err
			}
		}
	}
	return nil
}
