package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	dates []time.Time
}

func (h *recordingHandler) OnDate(date time.Time) error {
	h.dates = append(h.dates, date)
	return nil
}

func day(d int) time.Time {
	return time.Date(2022, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestRun(t *testing.T) {
	t.Run("visits every date in order", func(t *testing.T) {
		handler := &recordingHandler{}
		dates := []time.Time{day(3), day(4), day(5)}

		require.NoError(t, New(handler).Run(dates))
		require.Equal(t, dates, handler.dates)
	})

	t.Run("rejects out-of-order dates before running any", func(t *testing.T) {
		handler := &recordingHandler{}
		err := New(handler).Run([]time.Time{day(3), day(5), day(4)})
		require.Error(t, err)
		require.Empty(t, handler.dates, "no date may run when the sequence is invalid")
	})

	t.Run("rejects duplicate dates", func(t *testing.T) {
		err := New(&recordingHandler{}).Run([]time.Time{day(3), day(3)})
		require.Error(t, err)
	})

	t.Run("after-date hook runs per date", func(t *testing.T) {
		engine := New(&recordingHandler{})
		seen := []time.Time{}
		engine.AfterDate = func(date time.Time) error {
			seen = append(seen, date)
			return nil
		}

		require.NoError(t, engine.Run([]time.Time{day(3), day(4)}))
		require.Equal(t, []time.Time{day(3), day(4)}, seen)
	})
}
