package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"portfolio-chat/internal/domain"
)

const (
	dayLayout        = "2006-01-02"
	defaultStatsDays = 30
	maxStatsDays     = 365
)

var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// EventStore persists tracking events partitioned by UTC day.
type EventStore interface {
	PutEvent(ctx context.Context, event domain.TrackingEvent) error
	// QueryDay returns the events of day, restricted to eventType unless it is empty.
	QueryDay(ctx context.Context, day, eventType string) ([]domain.TrackingEvent, error)
}

// EventBuilder derives storage keys for a new event.
type EventBuilder func(id, eventType string, data json.RawMessage, sessionID, clientIP string, now time.Time) domain.TrackingEvent

type TrackService struct {
	store    EventStore
	newEvent EventBuilder
	now      func() time.Time
}

type TrackInput struct {
	Type     string
	Data     json.RawMessage
	ClientIP string
}

type TrackOutput struct {
	ID        string
	Timestamp time.Time
}

func NewTrackService(store EventStore, newEvent EventBuilder) (*TrackService, error) {
	if store == nil {
		return nil, errors.New("usecase: event store must not be nil")
	}
	if newEvent == nil {
		return nil, errors.New("usecase: event builder must not be nil")
	}
	return &TrackService{store: store, newEvent: newEvent, now: time.Now}, nil
}

// Track validates and stores one visitor-tracking event.
func (s *TrackService) Track(ctx context.Context, in TrackInput) (TrackOutput, error) {
	eventType := strings.TrimSpace(in.Type)
	data := bytes.TrimSpace(in.Data)
	if eventType == "" || len(data) == 0 || string(data) == "null" {
		return TrackOutput{}, newError(ErrorInvalidInput, "missing_type_or_data", nil)
	}
	if !eventTypePattern.MatchString(eventType) {
		return TrackOutput{}, newError(ErrorInvalidInput, "invalid_type", nil)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return TrackOutput{}, newError(ErrorInvalidInput, "data_not_object", err)
	}

	now := s.now().UTC()
	event := s.newEvent(newUUID(), eventType, data, sessionID(fields), in.ClientIP, now)
	if err := s.store.PutEvent(ctx, event); err != nil {
		return TrackOutput{}, newError(ErrorInternal, "dynamodb_write_error", err)
	}
	slog.Info("tracking event saved", "type", eventType, "id", event.ID, "session", event.SessionID)
	return TrackOutput{ID: event.ID, Timestamp: now}, nil
}

// Stats aggregates the events of the last days UTC days, today included.
// Non-positive days select the default window; larger windows are capped.
func (s *TrackService) Stats(ctx context.Context, days int) (domain.TrackingStats, error) {
	if days <= 0 {
		days = defaultStatsDays
	}
	if days > maxStatsDays {
		days = maxStatsDays
	}

	stats := domain.TrackingStats{Days: []domain.DayTypeCount{}}
	sessions := make(map[string]struct{})
	today := s.now().UTC()
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dayLayout)
		events, err := s.store.QueryDay(ctx, day, "")
		if err != nil {
			return domain.TrackingStats{}, newError(ErrorInternal, "dynamodb_query_error", err)
		}
		stats.Days = append(stats.Days, countByType(day, events)...)
		for _, e := range events {
			addToSummary(&stats.Summary, e)
			if e.SessionID != "" {
				sessions[e.SessionID] = struct{}{}
			}
		}
	}
	stats.Summary.UniqueSessions = len(sessions)
	return stats, nil
}

// Events lists the events of one type recorded on day (YYYY-MM-DD).
func (s *TrackService) Events(ctx context.Context, eventType, day string) ([]domain.TrackingEvent, error) {
	if !eventTypePattern.MatchString(eventType) {
		return nil, newError(ErrorInvalidInput, "invalid_type", nil)
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return nil, newError(ErrorInvalidInput, "invalid_day", err)
	}
	events, err := s.store.QueryDay(ctx, day, eventType)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_query_error", err)
	}
	if len(events) == 0 {
		return nil, newError(ErrorNotFound, "no_events", nil)
	}
	return events, nil
}

func sessionID(fields map[string]json.RawMessage) string {
	raw, ok := fields["sessionId"]
	if !ok {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}
	return strings.TrimSpace(id)
}

func countByType(day string, events []domain.TrackingEvent) []domain.DayTypeCount {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Type]++
	}
	out := make([]domain.DayTypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, domain.DayTypeCount{Day: day, Type: t, Entries: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func addToSummary(sum *domain.StatsSummary, e domain.TrackingEvent) {
	sum.TotalEntries++
	switch e.Type {
	case domain.EventTypePageview:
		sum.TotalPageviews++
	case domain.EventTypeEvent:
		sum.TotalEvents++
	}
	at := e.ReceivedAt
	if at.IsZero() {
		return
	}
	if sum.DateRange.Start == nil || at.Before(*sum.DateRange.Start) {
		sum.DateRange.Start = &at
	}
	if sum.DateRange.End == nil || at.After(*sum.DateRange.End) {
		sum.DateRange.End = &at
	}
}

var newUUID = func() string {
	return uuid.NewString()
}
