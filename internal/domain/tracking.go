package domain

import (
	"encoding/json"
	"time"
)

// Event types counted separately in visitor statistics.
const (
	EventTypePageview = "pageview"
	EventTypeEvent    = "event"
)

// TrackingEvent is a single persisted visitor-tracking record.
type TrackingEvent struct {
	PK         string
	SK         string
	ID         string
	Type       string
	Day        string
	SessionID  string
	ClientIP   string
	Data       json.RawMessage
	ReceivedAt time.Time
	TTL        int64
}

// TrackingStats aggregates tracking events over a range of days.
type TrackingStats struct {
	Days    []DayTypeCount `json:"days"`
	Summary StatsSummary   `json:"summary"`
}

// DayTypeCount is the number of events of one type recorded on one day.
type DayTypeCount struct {
	Day     string `json:"day"`
	Type    string `json:"type"`
	Entries int    `json:"entries"`
}

type StatsSummary struct {
	TotalPageviews int       `json:"totalPageviews"`
	TotalEvents    int       `json:"totalEvents"`
	TotalEntries   int       `json:"totalEntries"`
	UniqueSessions int       `json:"uniqueSessions"`
	DateRange      DateRange `json:"dateRange"`
}

// DateRange bounds the server timestamps of the aggregated events. Both ends
// are nil when no events were found.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}
