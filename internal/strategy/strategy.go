package strategy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"factorsim/internal/allocation"
	"factorsim/internal/decision"
	"factorsim/internal/domain"
	"factorsim/internal/execution"
	"factorsim/internal/factor"
	"factorsim/internal/marketdata"
	"factorsim/internal/universe"
)

// MarketData is everything the strategy reads from the outside world. The
// price, return, and factor series must share one trading-day calendar.
type MarketData interface {
	domain.PriceReader
	Symbols() []string
	ReturnsWindow(symbol string, end time.Time, n int) ([]float64, []time.Time, error)
	FactorRows(dates []time.Time) ([][]float64, error)
}

// PeriodKeyFunc partitions the calendar into rebalance periods. The strategy
// evaluates at most one approved rebalance per key.
type PeriodKeyFunc func(time.Time) string

func MonthlyPeriodKey(date time.Time) string   { return date.Format("2006-01") }
func QuarterlyPeriodKey(date time.Time) string { return fmt.Sprintf("%d-Q%d", date.Year(), (int(date.Month())-1)/3+1) }
func AnnualPeriodKey(date time.Time) string    { return date.Format("2006") }

// State of the per-date transition. The strategy rests in AwaitRebalanceDate
// between period changes; Evaluating and Executing only exist within a single
// OnDate call.
type State int

const (
	StateAwaitRebalanceDate State = iota
	StateEvaluating
	StateExecuting
)

// MarginSettings are accepted and carried but inert: a reserved extension
// point for leveraged valuation, not implemented in this version.
type MarginSettings struct {
	Enabled     bool
	MaxLeverage float64
	AnnualRate  float64
}

// RebalanceRecord is one dated gate evaluation, kept for external reporting.
type RebalanceRecord struct {
	ID            uuid.UUID
	Date          time.Time
	UniverseSize  int
	TrackingError float64
	Approved      bool
	Verdict       decision.Verdict
	Allocations   map[string]decimal.Decimal
}

// ExposureSnapshot is the portfolio's factor exposure on one rebalance date.
type ExposureSnapshot struct {
	Date        time.Time
	FactorNames []string
	Exposure    []float64
}

// Strategy orchestrates one simulated investor: estimate exposures, filter
// the universe, compare current exposure to target, gate on cost versus
// improvement, and deploy cash. It is the sole caller of the executor and
// therefore the sole mutation path into the portfolio.
type Strategy struct {
	data      MarketData
	estimator *factor.Estimator
	filter    universe.Filter
	target    domain.FactorTarget
	portfolio *domain.Portfolio
	decisions *decision.Engine
	executor  *execution.Executor
	allocator allocation.Strategy
	periodKey PeriodKeyFunc
	lookback  int
	margin    MarginSettings
	log       *zap.SugaredLogger

	state         State
	lastFiredKey  string
	records       []RebalanceRecord
	exposures     []ExposureSnapshot
	realizedGains float64 // stays zero: nothing is ever sold in this version
}

type Dependencies struct {
	Data      MarketData
	Estimator *factor.Estimator
	Filter    universe.Filter
	Target    domain.FactorTarget
	Portfolio *domain.Portfolio
	Decisions *decision.Engine
	Executor  *execution.Executor
	Allocator allocation.Strategy
	PeriodKey PeriodKeyFunc
	Lookback  int
	Margin    MarginSettings
	Logger    *zap.SugaredLogger
}

func New(deps Dependencies) (*Strategy, error) {
	if deps.Data == nil || deps.Estimator == nil || deps.Portfolio == nil ||
		deps.Decisions == nil || deps.Executor == nil || deps.Allocator == nil {
		return nil, fmt.Errorf("strategy: missing dependency")
	}
	if deps.Lookback <= 0 {
		return nil, fmt.Errorf("strategy: lookback must be positive, got %d", deps.Lookback)
	}
	if deps.PeriodKey == nil {
		return nil, fmt.Errorf("strategy: missing period key function")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop().Sugar()
	}
	return &Strategy{
		data:      deps.Data,
		estimator: deps.Estimator,
		filter:    deps.Filter,
		target:    deps.Target,
		portfolio: deps.Portfolio,
		decisions: deps.Decisions,
		executor:  deps.Executor,
		allocator: deps.Allocator,
		periodKey: deps.PeriodKey,
		lookback:  deps.Lookback,
		margin:    deps.Margin,
		log:       deps.Logger,
	}, nil
}

// OnDate runs one simulation step. Within an already-fired rebalance period
// it is a no-op; on a period change it evaluates and, if the gate approves,
// deploys the portfolio's cash across the filtered universe.
func (s *Strategy) OnDate(date time.Time) error {
	key := s.periodKey(date)
	if key == s.lastFiredKey {
		return nil
	}

	s.state = StateEvaluating
	defer func() { s.state = StateAwaitRebalanceDate }()

	exposures := s.estimateAll(date)
	selected := s.filter.Select(exposures)
	if len(selected) == 0 {
		s.log.Debugw("empty universe, no purchase action", "date", date.Format(time.DateOnly))
		return nil
	}

	factorNames := s.estimator.FactorNames()
	targetVec, err := s.target.Vector(factorNames)
	if err != nil {
		return err
	}

	portfolioValue, err := s.portfolio.MarketValue(date, s.data)
	if err != nil {
		return err
	}

	current, err := s.currentExposure(date, exposures, portfolioValue)
	if err != nil {
		return err
	}
	s.exposures = append(s.exposures, ExposureSnapshot{
		Date:        date,
		FactorNames: factorNames,
		Exposure:    current,
	})

	trackingError := l2Distance(current, targetVec)
	pv := portfolioValue.InexactFloat64()
	expectedImprovement := trackingError * pv

	gain, err := s.candidateGain(date)
	if err != nil {
		return err
	}
	tradeValue := s.portfolio.Cash.InexactFloat64()
	verdict := s.decisions.ShouldRebalance(gain, expectedImprovement, tradeValue)

	record := RebalanceRecord{
		ID:            uuid.New(),
		Date:          date,
		UniverseSize:  len(selected),
		TrackingError: trackingError,
		Approved:      verdict.Approved,
		Verdict:       verdict,
	}

	if !verdict.Approved {
		s.records = append(s.records, record)
		s.log.Debugw("rebalance rejected",
			"date", date.Format(time.DateOnly),
			"trackingError", trackingError,
			"taxCost", verdict.TaxCost,
			"tradingCost", verdict.TradingCost,
		)
		return nil
	}

	s.state = StateExecuting
	allocations, err := s.allocator.Allocate(allocation.Input{
		Universe:    selected,
		Exposures:   exposures,
		FactorNames: factorNames,
		Target:      targetVec,
		Budget:      s.portfolio.Cash,
	})
	if err != nil {
		return fmt.Errorf("allocation failed on %s: %w", date.Format(time.DateOnly), err)
	}

	record.Allocations = map[string]decimal.Decimal{}
	for _, symbol := range selected {
		amount, ok := allocations[symbol]
		if !ok {
			continue
		}
		if amount.GreaterThan(s.portfolio.Cash) {
			amount = s.portfolio.Cash
		}
		if !amount.IsPositive() {
			continue
		}
		price, err := s.data.Price(symbol, date)
		if err != nil {
			var missing marketdata.MissingDataError
			if errors.As(err, &missing) {
				s.log.Warnw("no price for universe symbol, skipping buy", "symbol", symbol, "date", date.Format(time.DateOnly))
				continue
			}
			return err
		}
		trade, err := s.executor.Buy(s.portfolio, symbol, amount, price, date)
		if err != nil {
			var rejected execution.OrderRejectedError
			if errors.As(err, &rejected) {
				s.log.Warnw("order rejected", "symbol", symbol, "reason", rejected.Reason)
				continue
			}
			return err
		}
		record.Allocations[symbol] = trade.Amount
	}

	s.records = append(s.records, record)
	s.lastFiredKey = key
	s.log.Infow("rebalanced",
		"date", date.Format(time.DateOnly),
		"universe", len(selected),
		"trackingError", trackingError,
		"portfolioValue", pv,
	)
	return nil
}

// estimateAll regresses every instrument with a usable trailing window.
// Estimation failures and data gaps exclude the instrument for this date;
// they never abort the run.
func (s *Strategy) estimateAll(date time.Time) map[string]domain.FactorExposure {
	out := map[string]domain.FactorExposure{}
	for _, symbol := range s.data.Symbols() {
		returns, dates, err := s.data.ReturnsWindow(symbol, date, s.lookback)
		if err != nil {
			s.log.Debugw("no return history", "symbol", symbol, "date", date.Format(time.DateOnly))
			continue
		}
		rows, err := s.data.FactorRows(dates)
		if err != nil {
			s.log.Debugw("missing factor rows", "symbol", symbol, "date", date.Format(time.DateOnly))
			continue
		}
		exposure, err := s.estimator.Estimate(symbol, returns, rows)
		if err != nil {
			s.log.Debugw("estimation failed", "symbol", symbol, "err", err)
			continue
		}
		out[symbol] = exposure
	}
	return out
}

// currentExposure is the value-weighted sum of held positions' loadings,
// weighted by position value over total portfolio value, both priced at the
// given date. Held positions without a current estimate contribute nothing.
func (s *Strategy) currentExposure(date time.Time, exposures map[string]domain.FactorExposure, portfolioValue decimal.Decimal) ([]float64, error) {
	factorNames := s.estimator.FactorNames()
	current := make([]float64, len(factorNames))
	total := portfolioValue.InexactFloat64()
	if total == 0 {
		return current, nil
	}
	for _, pos := range s.portfolio.Positions() {
		exposure, ok := exposures[pos.Symbol]
		if !ok {
			continue
		}
		price, err := s.data.Price(pos.Symbol, date)
		if err != nil {
			return nil, fmt.Errorf("cannot weight exposure for %s: %w", pos.Symbol, err)
		}
		weight := pos.TotalShares().Mul(price).InexactFloat64() / total
		for i, loading := range exposure.Vector(factorNames) {
			current[i] += weight * loading
		}
	}
	return current, nil
}

// candidateGain produces the gain estimate the decision engine's gain mode
// calls for.
func (s *Strategy) candidateGain(date time.Time) (float64, error) {
	switch s.decisions.GainMode() {
	case decision.GainModeRealized:
		return s.realizedGains, nil
	case decision.GainModeUnrealizedProxy:
		gain := 0.0
		for _, pos := range s.portfolio.Positions() {
			price, err := s.data.Price(pos.Symbol, date)
			if err != nil {
				return 0, fmt.Errorf("cannot estimate unrealized gain for %s: %w", pos.Symbol, err)
			}
			for _, lot := range pos.Lots {
				gain += lot.Shares.Mul(price).Sub(lot.CostBasis).InexactFloat64()
			}
		}
		return math.Max(gain, 0), nil
	}
	return 0, fmt.Errorf("strategy: unhandled gain mode %q", s.decisions.GainMode())
}

// Records returns the rebalance decision log in date order.
func (s *Strategy) Records() []RebalanceRecord {
	out := make([]RebalanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// ExposureHistory returns the per-rebalance-date exposure snapshots.
func (s *Strategy) ExposureHistory() []ExposureSnapshot {
	out := make([]ExposureSnapshot, len(s.exposures))
	copy(out, s.exposures)
	return out
}

func (s *Strategy) State() State {
	return s.state
}

func l2Distance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
