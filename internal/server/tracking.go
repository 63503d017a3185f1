package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-chat/internal/domain"
	"portfolio-chat/internal/usecase"
)

type trackRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type trackResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

type eventView struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	SessionID  string          `json:"sessionId,omitempty"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"serverTimestamp"`
}

type eventsResponse struct {
	Type    string      `json:"type"`
	Date    string      `json:"date"`
	Entries int         `json:"entries"`
	Data    []eventView `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) trackingEnabled(c *gin.Context) bool {
	if s.tracker == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "tracking disabled"})
		return false
	}
	return true
}

func (s *Server) trackHandler(c *gin.Context) {
	if !s.trackingEnabled(c) {
		return
	}
	var req trackRequest
	body, err := readBody(c)
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "Invalid JSON body", Code: string(usecase.ErrorInvalidInput)})
		return
	}

	out, err := s.tracker.Track(c.Request.Context(), usecase.TrackInput{
		Type:     req.Type,
		Data:     req.Data,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, trackResponse{
		Success:   true,
		Message:   "Data tracked successfully",
		ID:        out.ID,
		Timestamp: out.Timestamp,
	})
}

func (s *Server) statsHandler(c *gin.Context) {
	if !s.trackingEnabled(c) {
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "days must be a positive integer", Code: string(usecase.ErrorInvalidInput)})
			return
		}
		days = n
	}

	stats, err := s.tracker.Stats(c.Request.Context(), days)
	if err != nil {
		writeUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) eventsHandler(c *gin.Context) {
	if !s.trackingEnabled(c) {
		return
	}
	eventType, day := c.Param("type"), c.Param("date")

	events, err := s.tracker.Events(c.Request.Context(), eventType, day)
	if err != nil {
		writeUsecaseError(c, err)
		return
	}
	views := make([]eventView, 0, len(events))
	for _, e := range events {
		views = append(views, toEventView(e))
	}
	c.JSON(http.StatusOK, eventsResponse{Type: eventType, Date: day, Entries: len(views), Data: views})
}

func toEventView(e domain.TrackingEvent) eventView {
	data := e.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return eventView{
		ID:         e.ID,
		Type:       e.Type,
		SessionID:  e.SessionID,
		Data:       data,
		ReceivedAt: e.ReceivedAt,
	}
}

var reasonMessages = map[string]string{
	"missing_type_or_data": "Missing type or data",
	"invalid_type":         "Invalid type",
	"invalid_day":          "Invalid date, expected YYYY-MM-DD",
	"data_not_object":      "data must be a JSON object",
	"no_events":            "No data found",
}

func writeUsecaseError(c *gin.Context, err error) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		slog.Error("tracking request failed", "err", err, "correlation_id", c.GetString(correlationKey))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Internal server error", Code: string(usecase.ErrorInternal)})
		return
	}

	status := http.StatusInternalServerError
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		status = http.StatusBadRequest
	case usecase.ErrorNotFound:
		status = http.StatusNotFound
	}
	msg, ok := reasonMessages[ucErr.Reason]
	if !ok || status == http.StatusInternalServerError {
		slog.Error("tracking request failed", "err", err, "correlation_id", c.GetString(correlationKey))
		msg = "Internal server error"
	}
	c.JSON(status, errorResponse{Error: msg, Code: string(ucErr.Code)})
}
