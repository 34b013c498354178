package trading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCost(t *testing.T) {
	model, err := NewCostModel(0.001, 1.0)
	require.NoError(t, err)

	t.Run("floor applies to small trades", func(t *testing.T) {
		require.InDelta(t, 1.0, model.Cost(500), 1e-9)
	})

	t.Run("percentage applies past the floor", func(t *testing.T) {
		require.InDelta(t, 5.0, model.Cost(5_000), 1e-9)
	})

	t.Run("trade direction does not matter", func(t *testing.T) {
		require.InDelta(t, model.Cost(5_000), model.Cost(-5_000), 1e-9)
	})

	t.Run("zero trade value charges the floor", func(t *testing.T) {
		require.InDelta(t, 1.0, model.Cost(0), 1e-9)
	})
}

func TestNewCostModel(t *testing.T) {
	_, err := NewCostModel(-0.001, 1.0)
	require.Error(t, err)

	_, err = NewCostModel(0.001, -1.0)
	require.Error(t, err)
}
