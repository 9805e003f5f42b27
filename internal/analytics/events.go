package analytics

import "time"

type EventType string

const (
	EventSearch      EventType = "search"
	EventZeroResult  EventType = "zero_result"
	EventIndexBuild  EventType = "index_build"
	EventArchiveOpen EventType = "archive_open"
)

// SearchEvent describes one answered query.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Archive   string    `json:"archive"`
	Query     string    `json:"query"`
	Terms     []string  `json:"terms"`
	TotalHits int       `json:"total_hits"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Built     bool      `json:"built"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// BuildEvent describes a finished index build or an archive being opened.
type BuildEvent struct {
	Type       EventType `json:"type"`
	Archive    string    `json:"archive"`
	Status     string    `json:"status"`
	Entries    int       `json:"entries"`
	Indexed    int       `json:"indexed"`
	Skipped    int       `json:"skipped"`
	Terms      int       `json:"terms"`
	DurationMs int64     `json:"duration_ms"`
	TOCSource  string    `json:"toc_source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// SearchEventType picks the event type for a query outcome.
func SearchEventType(totalHits int) EventType {
	if totalHits == 0 {
		return EventZeroResult
	}
	return EventSearch
}
