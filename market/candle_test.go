package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func candlesFromCloses(closes ...float64) []Candle {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	candles := make([]Candle, len(closes))
	for i, c := range closes {
		candles[i] = Candle{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return candles
}

func TestPctChanges(t *testing.T) {
	t.Parallel()

	changes := PctChanges(candlesFromCloses(100, 102, 51))

	assert.Len(t, changes, 2)
	assert.InDelta(t, 2.0, changes[0], 1e-9)
	assert.InDelta(t, -50.0, changes[1], 1e-9)
}

func TestPctChangesShortSeries(t *testing.T) {
	t.Parallel()

	assert.Nil(t, PctChanges(nil))
	assert.Nil(t, PctChanges(candlesFromCloses(100)))
}

func TestPctChangesZeroClose(t *testing.T) {
	t.Parallel()

	changes := PctChanges(candlesFromCloses(0, 100))

	assert.Len(t, changes, 1)
	assert.Equal(t, 0.0, changes[0])
}

func TestCloses(t *testing.T) {
	t.Parallel()

	closes := Closes(candlesFromCloses(1, 2, 3))
	assert.Equal(t, []float64{1, 2, 3}, closes)
}
