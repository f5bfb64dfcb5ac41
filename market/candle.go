package market

import "time"

// Candle represents OHLC (Open, High, Low, Close) data for one venue and one
// time bucket. Candles are immutable once fetched; sequences are chronological.
type Candle struct {
	Time time.Time

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume float64
}

// PctChanges returns the percent change between consecutive closes.
// The result has len(candles)-1 entries; entry i is the change from
// candles[i] to candles[i+1]. A zero previous close yields a zero change
// rather than Inf.
func PctChanges(candles []Candle) []float64 {
	if len(candles) < 2 {
		return nil
	}

	changes := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, (candles[i].Close-prev)/prev*100)
	}
	return changes
}

// Closes extracts the close prices from a candle sequence.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
