package calculator

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
)

// ValueSample is the portfolio's total value on one trading day, collected by
// the caller over a backtest run.
type ValueSample struct {
	Date       time.Time
	TotalValue float64
}

type CalculateMetricsResult struct {
	AnnualizedStdev  float64
	AnnualizedReturn float64
	SharpeRatio      float64
}

// CalculateMetrics summarizes a backtest's daily value series. It assumes the
// samples cover the run densely enough for daily returns to be meaningful.
func CalculateMetrics(samples []ValueSample) (*CalculateMetricsResult, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("cannot calculate metrics on < 2 value samples")
	}
	// sort a copy; the caller's slice stays untouched
	ordered := make([]ValueSample, len(samples))
	copy(ordered, samples)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})
	samples = ordered

	returns := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].TotalValue
		if prev == 0 {
			return nil, fmt.Errorf("zero portfolio value on %s", samples[i-1].Date.Format(time.DateOnly))
		}
		returns = append(returns, samples[i].TotalValue/prev-1)
	}

	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return nil, err
	}
	annualizedStdev := stdev * math.Sqrt(252)

	startValue := samples[0].TotalValue
	endValue := samples[len(samples)-1].TotalValue
	numHours := samples[len(samples)-1].Date.Sub(samples[0].Date).Hours()
	numYears := numHours / (365 * 24)
	annualizedReturn := math.Pow(endValue/startValue, 1/numYears) - 1

	var sharpeRatio float64
	if stdev != 0 {
		sharpeRatio = annualizedReturn / stdev
	}

	return &CalculateMetricsResult{
		AnnualizedStdev:  annualizedStdev,
		AnnualizedReturn: annualizedReturn,
		SharpeRatio:      sharpeRatio,
	}, nil
}
