package universe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"factorsim/internal/domain"
)

func TestSelect(t *testing.T) {
	filter := NewFilter(0.3)

	t.Run("keeps fits at or above the threshold in lexical order", func(t *testing.T) {
		exposures := map[string]domain.FactorExposure{
			"C": {RSquared: 0.35},
			"A": {RSquared: 0.5},
			"B": {RSquared: 0.2},
		}
		require.Equal(t, []string{"A", "C"}, filter.Select(exposures))
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		exposures := map[string]domain.FactorExposure{
			"X": {RSquared: 0.3},
		}
		require.Equal(t, []string{"X"}, filter.Select(exposures))
	})

	t.Run("empty input yields empty universe", func(t *testing.T) {
		require.Empty(t, filter.Select(nil))
	})

	t.Run("all below threshold yields empty universe", func(t *testing.T) {
		exposures := map[string]domain.FactorExposure{
			"A": {RSquared: 0.1},
			"B": {RSquared: -0.4},
		}
		require.Empty(t, filter.Select(exposures))
	})
}
