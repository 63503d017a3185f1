package domain

// ChatMessage is the provider-agnostic chat message shape sent to completion
// APIs.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source identifies which tier produced a reply.
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
	SourceFallback  Source = "fallback"
	SourceError     Source = "error"
)

// ChatRequest is the body accepted by the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by the chat endpoint.
type ChatResponse struct {
	Response string `json:"response"`
	Source   Source `json:"source"`
}
