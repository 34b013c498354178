package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 0.3, cfg.MinRSquared)
	require.Equal(t, 252, cfg.LookbackDays)
	require.Equal(t, "monthly", cfg.RebalanceFrequency)
	require.False(t, cfg.Margin.Enabled)
}

func TestTaxBrackets(t *testing.T) {
	t.Run("nil upper bound maps to infinity", func(t *testing.T) {
		brackets, err := Default().TaxBrackets()
		require.NoError(t, err)
		require.Len(t, brackets, 2)
		require.Equal(t, 10_000.0, brackets[0].UpperBound)
		require.True(t, math.IsInf(brackets[1].UpperBound, 1))
	})

	t.Run("unbounded bracket only allowed last", func(t *testing.T) {
		upper := 10_000.0
		cfg := Default()
		cfg.Tax.Brackets = []BracketConfig{
			{UpperBound: nil, Rate: 0.27},
			{UpperBound: &upper, Rate: 0.42},
		}
		_, err := cfg.TaxBrackets()
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	t.Run("empty target weights rejected", func(t *testing.T) {
		cfg := Default()
		cfg.TargetWeights = nil
		require.Error(t, cfg.Validate())
	})

	t.Run("unknown rebalance frequency rejected", func(t *testing.T) {
		cfg := Default()
		cfg.RebalanceFrequency = "fortnightly"
		require.Error(t, cfg.Validate())
	})

	t.Run("unknown gain mode rejected", func(t *testing.T) {
		cfg := Default()
		cfg.GainMode = "imaginary"
		require.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"initialCash": 50000,
			"minRSquared": 0.5,
			"rebalanceFrequency": "quarterly"
		}`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, 50_000.0, cfg.InitialCash)
		require.Equal(t, 0.5, cfg.MinRSquared)
		require.Equal(t, "quarterly", cfg.RebalanceFrequency)
		// untouched fields keep defaults
		require.Equal(t, 252, cfg.LookbackDays)
	})

	t.Run("target weights replace defaults wholesale", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"targetWeights": {"Size": 1.0}
		}`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		// no default factors may survive underneath the override
		require.Equal(t, map[string]float64{"Size": 1.0}, cfg.TargetWeights)
	})

	t.Run("omitted target weights keep defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"initialCash": 1000}`), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		require.Equal(t, map[string]float64{"Value": 0.6, "Momentum": 0.4}, cfg.TargetWeights)
	})

	t.Run("malformed schedule fatal at load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"tax": {"brackets": [{"upperBound": 10000, "rate": 0.27}, {"upperBound": 5000, "rate": 0.42}]}
		}`), 0o644))

		_, err := Load(path)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
	})
}
