package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"portfolio-chat/internal/domain"
	"portfolio-chat/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	correlationKey    = "correlation_id"
)

// correlationID echoes the caller's correlation id or assigns a new one.
func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(correlationHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(correlationKey, id)
		c.Header(correlationHeader, id)
		c.Next()
	}
}

// cors allows every origin on every route and answers preflights directly.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Correlation-Id")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		h.Set("Access-Control-Expose-Headers", correlationHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"correlation_id", c.GetString(correlationKey),
		)
	}
}

// recovery turns a panic into the chat apology so the handler stays total.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("request panicked", "panic", recovered, "path", c.Request.URL.Path, "correlation_id", c.GetString(correlationKey))
		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.ChatResponse{
			Response: usecase.ApologyMessage,
			Source:   domain.SourceError,
		})
	})
}
