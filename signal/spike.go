// Package signal detects short-window volatility spikes in per-venue candle
// series and classifies them into trading signals.
package signal

import (
	"math"
	"time"

	"crospike/market"
)

// Direction of a detected spike.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Spike is one venue's volatility event for the current check cycle.
// Magnitude is the absolute percent change of the triggering move; Direction
// carries its sign. Spikes are ephemeral and recomputed every cycle.
type Spike struct {
	Venue     string
	Direction Direction
	Magnitude float64
	Price     float64
	Time      time.Time
}

const (
	// DefaultLookback is the number of recent periods examined for a spike.
	DefaultLookback = 3
	// DefaultThreshold is the percent change that counts as a spike.
	DefaultThreshold = 1.5
)

// Detector flags a venue when the largest close-to-close move within the
// lookback window reaches the threshold. Detection is per venue; there is no
// cross-venue state.
type Detector struct {
	Lookback  int
	Threshold float64
}

func NewDetector() *Detector {
	return &Detector{
		Lookback:  DefaultLookback,
		Threshold: DefaultThreshold,
	}
}

// Detect scans the last Lookback periods of a chronological candle series.
// Series shorter than the lookback window are skipped (ok=false), never an
// error. When several moves share the maximum magnitude, the earliest wins.
func (d *Detector) Detect(venueName string, candles []market.Candle) (Spike, bool) {
	if len(candles) < d.Lookback {
		return Spike{}, false
	}

	// Candle i's change is measured against candle i-1, so the first candle
	// of the series has no change to score.
	first := len(candles) - d.Lookback
	if first < 1 {
		first = 1
	}

	maxAbs := 0.0
	trigger := -1
	for i := first; i < len(candles); i++ {
		prev := candles[i-1].Close
		if prev == 0 {
			continue
		}
		change := (candles[i].Close - prev) / prev * 100
		if abs := math.Abs(change); abs > maxAbs {
			maxAbs = abs
			trigger = i
		}
	}

	if trigger < 0 || maxAbs < d.Threshold {
		return Spike{}, false
	}

	dir := DirectionUp
	if candles[trigger].Close < candles[trigger-1].Close {
		dir = DirectionDown
	}

	return Spike{
		Venue:     venueName,
		Direction: dir,
		Magnitude: maxAbs,
		Price:     candles[trigger].Close,
		Time:      candles[trigger].Time,
	}, true
}
