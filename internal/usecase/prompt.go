package usecase

import "portfolio-chat/internal/domain"

const systemPreamble = "You are a helpful AI assistant for Youssef Rajeh's portfolio website. " +
	"Be friendly, informative, and concise."

// buildPromptMessages returns the two-message conversation sent to the
// primary completion API.
func buildPromptMessages(message string) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: "system", Content: systemPreamble},
		{Role: "user", Content: message},
	}
}
