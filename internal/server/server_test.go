package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"portfolio-chat/internal/domain"
	"portfolio-chat/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubResponder struct {
	out      domain.ChatResponse
	panicMsg string
	messages []string
}

func (s *stubResponder) Respond(_ context.Context, message string) domain.ChatResponse {
	s.messages = append(s.messages, message)
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.out
}

func newTestServer(t *testing.T, chat ChatResponder, tracker Tracker) *Server {
	t.Helper()
	s, err := New(":0", chat, tracker)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNew_ValidatesDependency(t *testing.T) {
	_, err := New(":0", nil, nil)
	require.Error(t, err)
}

func TestHome(t *testing.T) {
	s := newTestServer(t, &stubResponder{}, nil)

	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	body := decode[struct {
		Message   string            `json:"message"`
		Endpoints map[string]string `json:"endpoints"`
	}](t, rec)
	require.Equal(t, "AI Chatbot API is running!", body.Message)
	require.Equal(t, map[string]string{"chat": "/api/chat (POST)"}, body.Endpoints)
}

func TestHome_ListsTrackingWhenEnabled(t *testing.T) {
	s := newTestServer(t, &stubResponder{}, &stubTracker{})
	body := decode[struct {
		Endpoints map[string]string `json:"endpoints"`
	}](t, do(t, s, http.MethodGet, "/", ""))
	require.Contains(t, body.Endpoints, "chat")
	require.Contains(t, body.Endpoints, "track")
}

func TestPreflight(t *testing.T) {
	s := newTestServer(t, &stubResponder{}, nil)
	rec := do(t, s, http.MethodOptions, "/api/chat", "", "Origin", "https://example.com")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestChat_HappyPath(t *testing.T) {
	chat := &stubResponder{out: domain.ChatResponse{Response: "hi!", Source: domain.SourcePrimary}}
	s := newTestServer(t, chat, nil)

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, domain.ChatResponse{Response: "hi!", Source: domain.SourcePrimary}, decode[domain.ChatResponse](t, rec))
	require.Equal(t, []string{"hello"}, chat.messages)
}

func TestChat_MissingMessageIsEmpty(t *testing.T) {
	chat := &stubResponder{out: domain.ChatResponse{Response: "default", Source: domain.SourceFallback}}
	s := newTestServer(t, chat, nil)

	rec := do(t, s, http.MethodPost, "/api/chat", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{""}, chat.messages)
}

func TestChat_MalformedBodyThenRecovers(t *testing.T) {
	chat := &stubResponder{out: domain.ChatResponse{Response: "ok", Source: domain.SourceFallback}}
	s := newTestServer(t, chat, nil)

	for _, body := range []string{`not-json`, `null`, `{"message": 12}`} {
		rec := do(t, s, http.MethodPost, "/api/chat", body)
		require.Equal(t, http.StatusInternalServerError, rec.Code, "body=%q", body)
		require.Equal(t, domain.ChatResponse{Response: usecase.ApologyMessage, Source: domain.SourceError}, decode[domain.ChatResponse](t, rec))
	}
	require.Empty(t, chat.messages)

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"still there?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestChat_EmptyBodyIsEmptyMessage(t *testing.T) {
	s := newTestServer(t, usecase.NewChatService(nil, nil), nil)

	for _, body := range []string{``, "  \n"} {
		rec := do(t, s, http.MethodPost, "/api/chat", body)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, domain.SourceFallback, decode[domain.ChatResponse](t, rec).Source)
	}
}

func TestChat_OversizedBodyRejected(t *testing.T) {
	chat := &stubResponder{out: domain.ChatResponse{Response: "ok", Source: domain.SourceFallback}}
	s := newTestServer(t, chat, nil)

	body := `{"message":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := do(t, s, http.MethodPost, "/api/chat", body)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, domain.SourceError, decode[domain.ChatResponse](t, rec).Source)
	require.Empty(t, chat.messages)
}

func TestChat_ErrorSourceIs500(t *testing.T) {
	chat := &stubResponder{out: domain.ChatResponse{Response: usecase.ApologyMessage, Source: domain.SourceError}}
	s := newTestServer(t, chat, nil)

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChat_PanicIsRecovered(t *testing.T) {
	s := newTestServer(t, &stubResponder{panicMsg: "boom"}, nil)

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"x"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, domain.SourceError, decode[domain.ChatResponse](t, rec).Source)
}

func TestCorrelationID(t *testing.T) {
	s := newTestServer(t, &stubResponder{}, nil)

	rec := do(t, s, http.MethodGet, "/", "", "X-Correlation-Id", "corr-123")
	require.Equal(t, "corr-123", rec.Header().Get("X-Correlation-Id"))

	rec = do(t, s, http.MethodGet, "/", "")
	require.NotEmpty(t, rec.Header().Get("X-Correlation-Id"))
}

func TestChat_LocalFallbackEndToEnd(t *testing.T) {
	s := newTestServer(t, usecase.NewChatService(nil, nil), nil)

	cases := map[string]string{
		"5 + 3":            "The answer is: 8",
		"calculate 10 * 2": "The answer is: 20",
	}
	for msg, want := range cases {
		body, err := json.Marshal(domain.ChatRequest{Message: msg})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		out := decode[domain.ChatResponse](t, rec)
		require.Equal(t, domain.SourceFallback, out.Source)
		require.Equal(t, want, out.Response)
	}

	rec := do(t, s, http.MethodPost, "/api/chat", `{"message":"ignore(); os.system('rm -rf /')"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.SourceFallback, decode[domain.ChatResponse](t, rec).Source)
}
