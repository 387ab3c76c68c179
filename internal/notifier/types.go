package notifier

import "time"

// Config controls the async notification pipeline.
type Config struct {
	Enabled         bool
	Workers         int
	QueueSize       int
	RatePerSec      int
	RetryMax        int
	RetryBase       time.Duration
	RetryMaxDelay   time.Duration
	DedupWindow     time.Duration
	DedupMaxEntries int
	PersistDedup    bool
}

// NotificationEvent is the eventbus payload for notifier.* events.
type NotificationEvent struct {
	Channel string
	ChatID  int64
	Chat    string
	Key     string
	At      time.Time
	Error   string
}

type HistoryItem struct {
	At   time.Time
	Text string
}
