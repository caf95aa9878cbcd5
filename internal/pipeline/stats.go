package pipeline

import "sync/atomic"

// Stats counts request outcomes across all chats. Safe for concurrent use.
type Stats struct {
	requests  atomic.Int64
	delivered atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests  int64 `json:"requests"`
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
	Failed    int64 `json:"failed"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Requests:  s.requests.Load(),
		Delivered: s.delivered.Load(),
		Dropped:   s.dropped.Load(),
		Failed:    s.failed.Load(),
	}
}
