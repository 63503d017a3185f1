// Package server exposes the chat and visitor-tracking endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portfolio-chat/internal/domain"
	"portfolio-chat/internal/usecase"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 10 << 20
)

type ChatResponder interface {
	Respond(ctx context.Context, message string) domain.ChatResponse
}

type Tracker interface {
	Track(ctx context.Context, in usecase.TrackInput) (usecase.TrackOutput, error)
	Stats(ctx context.Context, days int) (domain.TrackingStats, error)
	Events(ctx context.Context, eventType, day string) ([]domain.TrackingEvent, error)
}

type Server struct {
	addr    string
	engine  *gin.Engine
	chat    ChatResponder
	tracker Tracker
}

// New builds the router. tracker may be nil, in which case the tracking
// routes answer 503.
func New(addr string, chat ChatResponder, tracker Tracker) (*Server, error) {
	if chat == nil {
		return nil, errors.New("server: chat responder must not be nil")
	}
	s := &Server{
		addr:    addr,
		engine:  gin.New(),
		chat:    chat,
		tracker: tracker,
	}
	s.engine.Use(correlationID(), cors(), requestLogger(), recovery())
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", s.home)

	api := s.engine.Group("/api")
	api.POST("/chat", s.chatHandler)
	api.POST("/track", s.trackHandler)
	api.GET("/stats", s.statsHandler)
	api.GET("/data/:type/:date", s.eventsHandler)
}

// Handler returns the router for embedding in other transports.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "err", err)
		}
	}()

	slog.Info("chat server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) home(c *gin.Context) {
	endpoints := gin.H{"chat": "/api/chat (POST)"}
	if s.tracker != nil {
		endpoints["track"] = "/api/track (POST)"
		endpoints["stats"] = "/api/stats (GET)"
		endpoints["data"] = "/api/data/:type/:date (GET)"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "AI Chatbot API is running!",
		"endpoints": endpoints,
	})
}

func (s *Server) chatHandler(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.chatError(c, err)
		return
	}
	message, err := usecase.ParseChatMessage(body)
	if err != nil {
		s.chatError(c, err)
		return
	}

	resp := s.chat.Respond(c.Request.Context(), message)
	status := http.StatusOK
	if resp.Source == domain.SourceError {
		status = http.StatusInternalServerError
	}
	c.JSON(status, resp)
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return c.GetRawData()
}

func (s *Server) chatError(c *gin.Context, err error) {
	slog.Warn("chat request rejected", "err", err, "correlation_id", c.GetString(correlationKey))
	c.JSON(http.StatusInternalServerError, domain.ChatResponse{
		Response: usecase.ApologyMessage,
		Source:   domain.SourceError,
	})
}
