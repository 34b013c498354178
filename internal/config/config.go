package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"factorsim/internal/decision"
	"factorsim/internal/strategy"
	"factorsim/internal/tax"
)

// BracketConfig is one tax bracket. A nil upper bound means unbounded and is
// only valid on the final bracket.
type BracketConfig struct {
	UpperBound *float64 `json:"upperBound"`
	Rate       float64  `json:"rate"`
}

type TaxConfig struct {
	Brackets []BracketConfig `json:"brackets"`
}

type TradingCostConfig struct {
	PctCost float64 `json:"pctCost"`
	MinCost float64 `json:"minCost"`
}

// MarginConfig is accepted but inert in this version; a reserved extension
// point for leveraged valuation and cash constraints.
type MarginConfig struct {
	Enabled     bool    `json:"enabled"`
	MaxLeverage float64 `json:"maxLeverage"`
	AnnualRate  float64 `json:"annualRate"`
}

type Config struct {
	InitialCash        float64            `json:"initialCash"`
	TargetWeights      map[string]float64 `json:"targetWeights"`
	MinRSquared        float64            `json:"minRSquared"`
	LookbackDays       int                `json:"lookbackDays"`
	MinObservations    int                `json:"minObservations"`
	RebalanceFrequency string             `json:"rebalanceFrequency"`
	GainMode           string             `json:"gainMode"`
	Allocation         string             `json:"allocation"`
	Tax                TaxConfig          `json:"tax"`
	TradingCost        TradingCostConfig  `json:"tradingCost"`
	Margin             MarginConfig       `json:"margin"`
}

// Default returns the baseline configuration: Danish capital gains brackets,
// 0.1% trading cost with a €1 floor, monthly rebalancing over a one-year
// lookback.
func Default() Config {
	upper := 10_000.0
	return Config{
		InitialCash:        20_000,
		TargetWeights:      map[string]float64{"Value": 0.6, "Momentum": 0.4},
		MinRSquared:        0.3,
		LookbackDays:       252,
		MinObservations:    30,
		RebalanceFrequency: "monthly",
		GainMode:           string(decision.GainModeUnrealizedProxy),
		Allocation:         "equal_weight",
		Tax: TaxConfig{
			Brackets: []BracketConfig{
				{UpperBound: &upper, Rate: 0.27},
				{UpperBound: nil, Rate: 0.42},
			},
		},
		TradingCost: TradingCostConfig{PctCost: 0.001, MinCost: 1.0},
		Margin:      MarginConfig{Enabled: false, MaxLeverage: 1.2, AnnualRate: 0.05},
	}
}

// Load reads a JSON config file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not open config %s: %w", path, err)
	}
	// json.Unmarshal merges into a non-nil map, which would leave default
	// factors underneath an explicit override. A provided targetWeights key
	// replaces the default map wholesale.
	keys := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &keys); err != nil {
		return Config{}, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if _, ok := keys["targetWeights"]; ok {
		cfg.TargetWeights = nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.InitialCash < 0 {
		return fmt.Errorf("config: negative initial cash %f", c.InitialCash)
	}
	if len(c.TargetWeights) == 0 {
		return fmt.Errorf("config: empty target weights")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("config: lookback days must be positive, got %d", c.LookbackDays)
	}
	if c.MinObservations <= 0 {
		return fmt.Errorf("config: minimum observations must be positive, got %d", c.MinObservations)
	}
	brackets, err := c.TaxBrackets()
	if err != nil {
		return err
	}
	if _, err := tax.NewEngine(brackets); err != nil {
		return err
	}
	if _, err := c.PeriodKey(); err != nil {
		return err
	}
	if _, err := decision.ParseGainMode(c.GainMode); err != nil {
		return err
	}
	return nil
}

// TaxBrackets converts the JSON bracket list to the engine's schedule,
// mapping a nil upper bound to +Inf.
func (c Config) TaxBrackets() ([]tax.Bracket, error) {
	if len(c.Tax.Brackets) == 0 {
		return nil, fmt.Errorf("config: empty tax bracket schedule")
	}
	out := make([]tax.Bracket, len(c.Tax.Brackets))
	for i, b := range c.Tax.Brackets {
		upper := math.Inf(1)
		if b.UpperBound != nil {
			upper = *b.UpperBound
		} else if i != len(c.Tax.Brackets)-1 {
			return nil, fmt.Errorf("config: only the final tax bracket may be unbounded")
		}
		out[i] = tax.Bracket{UpperBound: upper, Rate: b.Rate}
	}
	return out, nil
}

func (c Config) PeriodKey() (strategy.PeriodKeyFunc, error) {
	switch c.RebalanceFrequency {
	case "", "monthly":
		return strategy.MonthlyPeriodKey, nil
	case "quarterly":
		return strategy.QuarterlyPeriodKey, nil
	case "annual":
		return strategy.AnnualPeriodKey, nil
	}
	return nil, fmt.Errorf("config: unknown rebalance frequency %q", c.RebalanceFrequency)
}

func (c Config) MarginSettings() strategy.MarginSettings {
	return strategy.MarginSettings{
		Enabled:     c.Margin.Enabled,
		MaxLeverage: c.Margin.MaxLeverage,
		AnnualRate:  c.Margin.AnnualRate,
	}
}
