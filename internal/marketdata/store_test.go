package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2022, 1, d, 0, 0, 0, 0, time.UTC)
}

func testStore(t *testing.T) *Store {
	t.Helper()
	prices := []AssetPrice{}
	for i, p := range []float64{100, 102, 101, 103, 104} {
		prices = append(prices, AssetPrice{Symbol: "AAPL", Date: day(3 + i), Price: p})
	}
	prices = append(prices,
		AssetPrice{Symbol: "GOOG", Date: day(6), Price: 2_000},
		AssetPrice{Symbol: "GOOG", Date: day(7), Price: 2_020},
	)

	factors := []FactorReturn{}
	for i := 0; i < 5; i++ {
		factors = append(factors,
			FactorReturn{Factor: "Value", Date: day(3 + i), Return: 0.001 * float64(i)},
			FactorReturn{Factor: "Momentum", Date: day(3 + i), Return: -0.001 * float64(i)},
		)
	}

	store, err := NewStore(prices, factors)
	require.NoError(t, err)
	return store
}

func TestNewStore(t *testing.T) {
	store := testStore(t)

	require.Equal(t, []string{"AAPL", "GOOG"}, store.Symbols())
	require.Equal(t, []string{"Value", "Momentum"}, store.FactorNames(), "factor ordering follows first appearance")
	require.Len(t, store.TradingDays(), 5)

	t.Run("requires factor data", func(t *testing.T) {
		_, err := NewStore(nil, nil)
		require.Error(t, err)
	})

	t.Run("requires complete factor rows per date", func(t *testing.T) {
		_, err := NewStore(nil, []FactorReturn{
			{Factor: "Value", Date: day(3), Return: 0.01},
			{Factor: "Momentum", Date: day(3), Return: 0.01},
			{Factor: "Value", Date: day(4), Return: 0.01},
		})
		require.Error(t, err)
	})
}

func TestPrice(t *testing.T) {
	store := testStore(t)

	t.Run("returns the date-matched price", func(t *testing.T) {
		price, err := store.Price("AAPL", day(4))
		require.NoError(t, err)
		require.True(t, price.Equal(decimal.NewFromInt(102)))
	})

	t.Run("no fallback to an earlier price", func(t *testing.T) {
		// GOOG has no price on day 5 even though day 6 and 7 exist
		_, err := store.Price("GOOG", day(5))
		var missing MissingDataError
		require.ErrorAs(t, err, &missing)
		require.Equal(t, "GOOG", missing.Symbol)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		_, err := store.Price("TSLA", day(4))
		require.Error(t, err)
	})
}

func TestReturnsWindow(t *testing.T) {
	store := testStore(t)

	t.Run("trailing returns in chronological order", func(t *testing.T) {
		returns, dates, err := store.ReturnsWindow("AAPL", day(7), 252)
		require.NoError(t, err)
		require.Len(t, returns, 4)
		require.Equal(t, []time.Time{day(4), day(5), day(6), day(7)}, dates)
		require.InDelta(t, 102.0/100-1, returns[0], 1e-12)
		require.InDelta(t, 104.0/103-1, returns[3], 1e-12)
	})

	t.Run("window capped at n", func(t *testing.T) {
		returns, _, err := store.ReturnsWindow("AAPL", day(7), 2)
		require.NoError(t, err)
		require.Len(t, returns, 2)
		require.InDelta(t, 104.0/103-1, returns[1], 1e-12)
	})

	t.Run("end date between trading days snaps backward", func(t *testing.T) {
		_, dates, err := store.ReturnsWindow("AAPL", day(8), 252)
		require.NoError(t, err)
		require.Equal(t, day(7), dates[len(dates)-1])
	})

	t.Run("history stops at a listing gap", func(t *testing.T) {
		returns, _, err := store.ReturnsWindow("GOOG", day(7), 252)
		require.NoError(t, err)
		require.Len(t, returns, 1)
	})

	t.Run("no data before the calendar", func(t *testing.T) {
		_, _, err := store.ReturnsWindow("AAPL", day(1), 252)
		require.Error(t, err)
	})
}

func TestFactorRows(t *testing.T) {
	store := testStore(t)

	rows, err := store.FactorRows([]time.Time{day(4), day(5)})
	require.NoError(t, err)
	require.Equal(t, [][]float64{{0.001, -0.001}, {0.002, -0.002}}, rows)

	_, err = store.FactorRows([]time.Time{day(20)})
	var missing MissingDataError
	require.ErrorAs(t, err, &missing)
}
