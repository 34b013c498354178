package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"factorsim/internal/allocation"
	"factorsim/internal/backtest"
	"factorsim/internal/calculator"
	"factorsim/internal/config"
	"factorsim/internal/decision"
	"factorsim/internal/domain"
	"factorsim/internal/execution"
	"factorsim/internal/factor"
	"factorsim/internal/logger"
	"factorsim/internal/marketdata"
	"factorsim/internal/strategy"
	"factorsim/internal/tax"
	"factorsim/internal/trading"
	"factorsim/internal/universe"
)

func main() {
	root := &cobra.Command{
		Use:   "factorsim",
		Short: "Factor-replication portfolio simulator",
	}
	root.AddCommand(newBacktestCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newBacktestCmd() *cobra.Command {
	var (
		configPath  string
		pricesPath  string
		factorsPath string
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a backtest over CSV price and factor-return data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBacktest(configPath, pricesPath, factorsPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.json", "path to JSON config")
	cmd.Flags().StringVar(&pricesPath, "prices", "prices.csv", "path to date,symbol,price CSV")
	cmd.Flags().StringVar(&factorsPath, "factors", "factors.csv", "path to date,factor,return CSV")
	return cmd
}

func runBacktest(configPath, pricesPath, factorsPath string) error {
	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	prices, err := marketdata.LoadPricesCSV(pricesPath)
	if err != nil {
		return err
	}
	factors, err := marketdata.LoadFactorsCSV(factorsPath)
	if err != nil {
		return err
	}
	store, err := marketdata.NewStore(prices, factors)
	if err != nil {
		return err
	}

	brackets, err := cfg.TaxBrackets()
	if err != nil {
		return err
	}
	taxEngine, err := tax.NewEngine(brackets)
	if err != nil {
		return err
	}
	costModel, err := trading.NewCostModel(cfg.TradingCost.PctCost, cfg.TradingCost.MinCost)
	if err != nil {
		return err
	}
	gainMode, err := decision.ParseGainMode(cfg.GainMode)
	if err != nil {
		return err
	}
	decisionEngine, err := decision.NewEngine(taxEngine, costModel, gainMode)
	if err != nil {
		return err
	}
	estimator, err := factor.NewEstimator(store.FactorNames(), cfg.MinObservations)
	if err != nil {
		return err
	}
	allocator, err := allocation.New(cfg.Allocation)
	if err != nil {
		return err
	}
	periodKey, err := cfg.PeriodKey()
	if err != nil {
		return err
	}

	portfolio := domain.NewPortfolio(decimal.NewFromFloat(cfg.InitialCash))
	executor := execution.NewExecutor()

	strat, err := strategy.New(strategy.Dependencies{
		Data:      store,
		Estimator: estimator,
		Filter:    universe.NewFilter(cfg.MinRSquared),
		Target:    domain.NewFactorTarget(cfg.TargetWeights),
		Portfolio: portfolio,
		Decisions: decisionEngine,
		Executor:  executor,
		Allocator: allocator,
		PeriodKey: periodKey,
		Lookback:  cfg.LookbackDays,
		Margin:    cfg.MarginSettings(),
		Logger:    log,
	})
	if err != nil {
		return err
	}

	samples := []calculator.ValueSample{}
	engine := backtest.New(strat)
	engine.AfterDate = func(date time.Time) error {
		value, err := portfolio.MarketValue(date, store)
		if err != nil {
			return err
		}
		samples = append(samples, calculator.ValueSample{
			Date:       date,
			TotalValue: value.InexactFloat64(),
		})
		return nil
	}

	dates := store.TradingDays()
	log.Infow("running backtest",
		"tradingDays", len(dates),
		"symbols", len(store.Symbols()),
		"factors", store.FactorNames(),
		"allocation", allocator.Name(),
		"gainMode", gainMode,
	)
	if err := engine.Run(dates); err != nil {
		return err
	}

	printReport(portfolio, strat, executor, samples, dates)
	return nil
}

func printReport(
	portfolio *domain.Portfolio,
	strat *strategy.Strategy,
	executor *execution.Executor,
	samples []calculator.ValueSample,
	dates []time.Time,
) {
	fmt.Printf("\nRebalance decisions\n")
	for _, record := range strat.Records() {
		status := "rejected"
		if record.Approved {
			status = "approved"
		}
		fmt.Printf("  %s  universe=%-3d TE=%.4f  tax=%.2f trade=%.2f  %s\n",
			record.Date.Format(time.DateOnly), record.UniverseSize, record.TrackingError,
			record.Verdict.TaxCost, record.Verdict.TradingCost, status)
	}

	fmt.Printf("\nFinal portfolio\n")
	fmt.Printf("  cash: %s\n", portfolio.Cash.StringFixed(2))
	for _, pos := range portfolio.Positions() {
		fmt.Printf("  %-6s %s shares across %d lots\n", pos.Symbol, pos.TotalShares().StringFixed(4), len(pos.Lots))
	}
	fmt.Printf("  trades executed: %d\n", len(executor.Trades()))

	if metrics, err := calculator.CalculateMetrics(samples); err == nil {
		fmt.Printf("\nPerformance (%s to %s)\n",
			dates[0].Format(time.DateOnly), dates[len(dates)-1].Format(time.DateOnly))
		fmt.Printf("  annualized return: %.2f%%\n", metrics.AnnualizedReturn*100)
		fmt.Printf("  annualized stdev:  %.2f%%\n", metrics.AnnualizedStdev*100)
		fmt.Printf("  sharpe ratio:      %.2f\n", metrics.SharpeRatio)
	}
}
