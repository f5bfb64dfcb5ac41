package signal

import (
	"sort"
	"time"
)

// Type tags a classified trading signal.
type Type string

const (
	TypeSimultaneous Type = "simultaneous_spikes"
	TypeStrongUp     Type = "strong_upward"
	TypeStrongDown   Type = "strong_downward"
)

// Reasons reported when no signal is produced.
const (
	ReasonNoSpikes  = "no significant spikes detected"
	ReasonBelowBar  = "no significant trading signals"
)

// Signal is the classifier's aggregate verdict over all venue spikes for one
// check cycle. It is consumed once and discarded.
type Signal struct {
	Type   Type
	Spikes []Spike
	Venues []string
	Time   time.Time

	// UpMean/DownMean are set for simultaneous signals, Mean for
	// unidirectional ones. All are absolute percent magnitudes.
	UpMean   float64
	DownMean float64
	Mean     float64
}

const (
	// DefaultBothFactor scales MinChange for bidirectional volatility.
	// Two-sided churn is a weaker but still actionable indicator, so the bar
	// is lower than for a one-sided move.
	DefaultBothFactor = 0.8
	// DefaultSingleFactor scales MinChange for one-sided moves.
	DefaultSingleFactor = 1.2
)

// Classifier aggregates per-venue spikes into a single trading signal. The
// factors are policy constants and may be tuned per deployment.
type Classifier struct {
	MinChange    float64
	BothFactor   float64
	SingleFactor float64
}

func NewClassifier(minChange float64) *Classifier {
	return &Classifier{
		MinChange:    minChange,
		BothFactor:   DefaultBothFactor,
		SingleFactor: DefaultSingleFactor,
	}
}

// Classify applies an ordered rule chain over the venue->spike map. The first
// matching rule wins:
//
//  1. up and down spikes present, both mean magnitudes >= MinChange*BothFactor
//     -> simultaneous_spikes
//  2. only up spikes, mean >= MinChange*SingleFactor -> strong_upward
//  3. only down spikes, mean >= MinChange*SingleFactor -> strong_downward
//  4. otherwise no signal
//
// A nil signal comes with a human-readable reason.
func (c *Classifier) Classify(spikes map[string]Spike) (*Signal, string) {
	if len(spikes) == 0 {
		return nil, ReasonNoSpikes
	}

	var ups, downs []Spike
	for _, s := range spikes {
		if s.Direction == DirectionUp {
			ups = append(ups, s)
		} else {
			downs = append(downs, s)
		}
	}

	venues := make([]string, 0, len(spikes))
	for v := range spikes {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	switch {
	case len(ups) >= 1 && len(downs) >= 1:
		upMean := meanMagnitude(ups)
		downMean := meanMagnitude(downs)
		if upMean >= c.MinChange*c.BothFactor && downMean >= c.MinChange*c.BothFactor {
			return &Signal{
				Type:     TypeSimultaneous,
				Spikes:   append(append([]Spike{}, ups...), downs...),
				Venues:   venues,
				Time:     time.Now(),
				UpMean:   upMean,
				DownMean: downMean,
			}, ""
		}

	case len(ups) >= 1:
		if mean := meanMagnitude(ups); mean >= c.MinChange*c.SingleFactor {
			return &Signal{
				Type:   TypeStrongUp,
				Spikes: ups,
				Venues: venues,
				Time:   time.Now(),
				Mean:   mean,
			}, ""
		}

	case len(downs) >= 1:
		if mean := meanMagnitude(downs); mean >= c.MinChange*c.SingleFactor {
			return &Signal{
				Type:   TypeStrongDown,
				Spikes: downs,
				Venues: venues,
				Time:   time.Now(),
				Mean:   mean,
			}, ""
		}
	}

	return nil, ReasonBelowBar
}

func meanMagnitude(spikes []Spike) float64 {
	if len(spikes) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range spikes {
		sum += s.Magnitude
	}
	return sum / float64(len(spikes))
}
