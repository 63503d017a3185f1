package usecase

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"portfolio-chat/internal/domain"
)

// ApologyMessage is returned with SourceError when a request cannot be served.
const ApologyMessage = "I'm sorry, I'm having trouble right now. Please try again later! 😅"

const tracerName = "portfolio-chat/usecase"

// ChatCompleter is the primary tier: an OpenAI-style chat completion API.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// TextGenerator is the secondary tier: a plain text-generation API.
type TextGenerator interface {
	Generate(ctx context.Context, input string) (string, error)
}

// ChatService answers chat messages through the primary API, then the
// secondary API, then the local keyword rules. A nil tier is skipped.
type ChatService struct {
	primary   ChatCompleter
	secondary TextGenerator
	tracer    trace.Tracer
}

type ChatOption func(*ChatService)

func WithTracerProvider(tp trace.TracerProvider) ChatOption {
	return func(s *ChatService) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

func NewChatService(primary ChatCompleter, secondary TextGenerator, opts ...ChatOption) *ChatService {
	s := &ChatService{
		primary:   primary,
		secondary: secondary,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Respond never fails: upstream errors fall through to the next tier and the
// local rules always produce a reply.
func (s *ChatService) Respond(ctx context.Context, message string) (resp domain.ChatResponse) {
	ctx, span := s.tracer.Start(ctx, "chat.respond")
	defer func() {
		if r := recover(); r != nil {
			slog.Error("chat responder panicked", "panic", r)
			span.SetStatus(codes.Error, "panic")
			resp = domain.ChatResponse{Response: ApologyMessage, Source: domain.SourceError}
		}
		span.SetAttributes(attribute.String("chat.source", string(resp.Source)))
		span.End()
	}()

	slog.Info("chat message received", "length", len(message))
	slog.Debug("chat message", "message", message)

	if s.primary != nil {
		if reply, ok := s.askPrimary(ctx, message); ok {
			return domain.ChatResponse{Response: reply, Source: domain.SourcePrimary}
		}
	}
	if s.secondary != nil {
		if reply, ok := s.askSecondary(ctx, message); ok {
			return domain.ChatResponse{Response: reply, Source: domain.SourceSecondary}
		}
	}

	reply, category := localReply(message)
	span.SetAttributes(attribute.String("chat.category", category))
	slog.Info("using local fallback response", "category", category)
	return domain.ChatResponse{Response: reply, Source: domain.SourceFallback}
}

func (s *ChatService) askPrimary(ctx context.Context, message string) (string, bool) {
	ctx, span := s.tracer.Start(ctx, "chat.primary")
	defer span.End()

	reply, err := s.primary.Chat(ctx, buildPromptMessages(message))
	if err != nil {
		tierFailed(span, domain.SourcePrimary, err)
		return "", false
	}
	slog.Info("chat answered by upstream", "tier", domain.SourcePrimary)
	return reply, true
}

func (s *ChatService) askSecondary(ctx context.Context, message string) (string, bool) {
	ctx, span := s.tracer.Start(ctx, "chat.secondary")
	defer span.End()

	reply, err := s.secondary.Generate(ctx, message)
	if err != nil {
		tierFailed(span, domain.SourceSecondary, err)
		return "", false
	}
	slog.Info("chat answered by upstream", "tier", domain.SourceSecondary)
	return reply, true
}

func tierFailed(span trace.Span, tier domain.Source, err error) {
	attrs := []any{"tier", tier, "err", err}
	if status, ok := upstreamStatusCode(err); ok {
		attrs = append(attrs, "status", status)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	slog.Warn("upstream completion failed, falling through", attrs...)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
