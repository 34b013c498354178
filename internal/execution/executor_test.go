package execution

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"factorsim/internal/domain"
)

var testDate = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

func TestBuy(t *testing.T) {
	t.Run("creates lot and decrements cash exactly", func(t *testing.T) {
		portfolio := domain.NewPortfolio(decimal.NewFromInt(5_000))
		executor := NewExecutor()

		trade, err := executor.Buy(portfolio, "AAPL", decimal.NewFromInt(1_000), decimal.NewFromInt(50), testDate)
		require.NoError(t, err)

		require.True(t, trade.Shares.Equal(decimal.NewFromInt(20)), "shares: %s", trade.Shares)
		require.True(t, portfolio.Cash.Equal(decimal.NewFromInt(4_000)), "cash: %s", portfolio.Cash)

		position, ok := portfolio.Position("AAPL")
		require.True(t, ok)
		require.Len(t, position.Lots, 1)
		require.True(t, position.Lots[0].CostBasis.Equal(decimal.NewFromInt(1_000)))
		require.Equal(t, testDate, position.Lots[0].AcquiredAt)
	})

	t.Run("fractional shares are not rounded", func(t *testing.T) {
		portfolio := domain.NewPortfolio(decimal.NewFromInt(1_000))
		executor := NewExecutor()

		trade, err := executor.Buy(portfolio, "AMZN", decimal.NewFromInt(100), decimal.NewFromInt(75), testDate)
		require.NoError(t, err)
		require.True(t, trade.Shares.Equal(decimal.NewFromInt(100).Div(decimal.NewFromInt(75))))
	})

	t.Run("repeated buys accumulate distinct lots", func(t *testing.T) {
		portfolio := domain.NewPortfolio(decimal.NewFromInt(5_000))
		executor := NewExecutor()

		_, err := executor.Buy(portfolio, "AAPL", decimal.NewFromInt(1_000), decimal.NewFromInt(100), testDate)
		require.NoError(t, err)
		_, err = executor.Buy(portfolio, "AAPL", decimal.NewFromInt(500), decimal.NewFromInt(125), testDate.AddDate(0, 1, 0))
		require.NoError(t, err)

		position, ok := portfolio.Position("AAPL")
		require.True(t, ok)
		require.Len(t, position.Lots, 2)
		// 10 shares at 100 plus 4 shares at 125
		require.True(t, position.TotalShares().Equal(decimal.NewFromInt(14)), "total shares: %s", position.TotalShares())
	})

	t.Run("logs fills in execution order", func(t *testing.T) {
		portfolio := domain.NewPortfolio(decimal.NewFromInt(3_000))
		executor := NewExecutor()

		_, err := executor.Buy(portfolio, "AAPL", decimal.NewFromInt(1_000), decimal.NewFromInt(10), testDate)
		require.NoError(t, err)
		_, err = executor.Buy(portfolio, "GOOG", decimal.NewFromInt(1_000), decimal.NewFromInt(20), testDate)
		require.NoError(t, err)

		trades := executor.Trades()
		require.Len(t, trades, 2)
		require.Equal(t, "AAPL", trades[0].Symbol)
		require.Equal(t, "GOOG", trades[1].Symbol)
		require.NotEqual(t, trades[0].ID, trades[1].ID)
	})
}

func TestBuyRejections(t *testing.T) {
	tests := []struct {
		name   string
		cash   int64
		amount int64
		price  int64
	}{
		{name: "amount exceeds cash", cash: 500, amount: 1_000, price: 50},
		{name: "non-positive amount", cash: 1_000, amount: 0, price: 50},
		{name: "non-positive price", cash: 1_000, amount: 500, price: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			portfolio := domain.NewPortfolio(decimal.NewFromInt(tc.cash))
			executor := NewExecutor()

			_, err := executor.Buy(portfolio, "AAPL", decimal.NewFromInt(tc.amount), decimal.NewFromInt(tc.price), testDate)
			var rejected OrderRejectedError
			require.ErrorAs(t, err, &rejected)
			require.Equal(t, "AAPL", rejected.Symbol)

			// no partial fills: portfolio untouched
			require.True(t, portfolio.Cash.Equal(decimal.NewFromInt(tc.cash)))
			_, ok := portfolio.Position("AAPL")
			require.False(t, ok)
			require.Empty(t, executor.Trades())
		})
	}
}
