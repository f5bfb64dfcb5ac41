package bot

import (
	"fmt"
	"time"

	"crospike/config"
	"crospike/pkg/id"
)

// ActivityCap bounds the in-memory activity log. Older entries are evicted
// first; the journal keeps the durable trade history.
const ActivityCap = 20

// Activity is one human-readable event in the bot's recent history.
type Activity struct {
	ID      string
	Time    time.Time
	Message string
}

// Session is a point-in-time snapshot of the bot's state, safe to hand to
// callers: the activity slice is a copy.
type Session struct {
	Running          bool
	TradesToday      int
	SuccessfulTrades int
	FailedTrades     int
	LastCheck        time.Time
	Activity         []Activity
	Trade            config.Trade
}

// session is the live mutable state behind Bot's mutex.
type session struct {
	running          bool
	tradesToday      int
	successfulTrades int
	failedTrades     int
	lastCheck        time.Time
	activity         []Activity
	trade            config.Trade
}

// log appends a formatted activity entry, evicting the oldest entries beyond
// ActivityCap. Caller holds the bot mutex.
func (s *session) log(now time.Time, format string, args ...any) {
	s.activity = append(s.activity, Activity{
		ID:      id.New(),
		Time:    now,
		Message: fmt.Sprintf(format, args...),
	})
	if over := len(s.activity) - ActivityCap; over > 0 {
		s.activity = append(s.activity[:0], s.activity[over:]...)
	}
}

// snapshot copies the live state into an immutable Session.
func (s *session) snapshot() Session {
	activity := make([]Activity, len(s.activity))
	copy(activity, s.activity)
	return Session{
		Running:          s.running,
		TradesToday:      s.tradesToday,
		SuccessfulTrades: s.successfulTrades,
		FailedTrades:     s.failedTrades,
		LastCheck:        s.lastCheck,
		Activity:         activity,
		Trade:            s.trade,
	}
}
