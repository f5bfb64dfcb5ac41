package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyEmpty(t *testing.T) {
	t.Parallel()

	c := NewClassifier(2.0)

	sig, reason := c.Classify(nil)
	assert.Nil(t, sig)
	assert.Equal(t, ReasonNoSpikes, reason)
}

func TestClassifySimultaneous(t *testing.T) {
	t.Parallel()

	c := NewClassifier(2.0)

	// One 3% up spike and one 3% down spike with min change 2%:
	// both means clear 2.0*0.8 = 1.6.
	sig, reason := c.Classify(map[string]Spike{
		"kucoin":  {Venue: "kucoin", Direction: DirectionUp, Magnitude: 3.0},
		"binance": {Venue: "binance", Direction: DirectionDown, Magnitude: 3.0},
	})

	require.NotNil(t, sig, reason)
	assert.Equal(t, TypeSimultaneous, sig.Type)
	assert.InDelta(t, 3.0, sig.UpMean, 1e-9)
	assert.InDelta(t, 3.0, sig.DownMean, 1e-9)
	assert.Equal(t, []string{"binance", "kucoin"}, sig.Venues)
	assert.Len(t, sig.Spikes, 2)
}

func TestClassifySimultaneousOneSideWeak(t *testing.T) {
	t.Parallel()

	c := NewClassifier(2.0)

	// Down mean 1.0 is under 1.6, so rule 1 fails; mixed directions mean the
	// unidirectional rules cannot apply either.
	sig, reason := c.Classify(map[string]Spike{
		"kucoin":  {Direction: DirectionUp, Magnitude: 3.0},
		"binance": {Direction: DirectionDown, Magnitude: 1.0},
	})

	assert.Nil(t, sig)
	assert.Equal(t, ReasonBelowBar, reason)
}

func TestClassifyStrongUpward(t *testing.T) {
	t.Parallel()

	c := NewClassifier(2.0)

	tests := []struct {
		name      string
		magnitude float64
		want      bool
	}{
		// Bar is 2.0*1.2 = 2.4.
		{"passes", 2.5, true},
		{"exact", 2.4, true},
		{"fails", 2.3, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sig, reason := c.Classify(map[string]Spike{
				"kucoin": {Direction: DirectionUp, Magnitude: tt.magnitude},
			})

			if !tt.want {
				assert.Nil(t, sig)
				assert.Equal(t, ReasonBelowBar, reason)
				return
			}
			require.NotNil(t, sig)
			assert.Equal(t, TypeStrongUp, sig.Type)
			assert.InDelta(t, tt.magnitude, sig.Mean, 1e-9)
		})
	}
}

func TestClassifyStrongDownward(t *testing.T) {
	t.Parallel()

	c := NewClassifier(2.0)

	sig, _ := c.Classify(map[string]Spike{
		"kucoin":  {Direction: DirectionDown, Magnitude: 2.5},
		"binance": {Direction: DirectionDown, Magnitude: 2.7},
	})

	require.NotNil(t, sig)
	assert.Equal(t, TypeStrongDown, sig.Type)
	assert.InDelta(t, 2.6, sig.Mean, 1e-9)
	assert.Len(t, sig.Spikes, 2)
}

func TestClassifyFactorsAreTunable(t *testing.T) {
	t.Parallel()

	c := &Classifier{MinChange: 2.0, BothFactor: 0.8, SingleFactor: 2.0}

	// With SingleFactor raised to 2.0 the bar becomes 4.0.
	sig, _ := c.Classify(map[string]Spike{
		"kucoin": {Direction: DirectionUp, Magnitude: 3.0},
	})
	assert.Nil(t, sig)
}
