// Package app assembles the chat service and its optional AWS-backed features
// from a Config. Both entry points in cmd share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"

	"portfolio-chat/internal/config"
	"portfolio-chat/internal/integrations/huggingface"
	"portfolio-chat/internal/integrations/openai"
	"portfolio-chat/internal/integrations/paramstore"
	"portfolio-chat/internal/observability"
	"portfolio-chat/internal/repository"
	"portfolio-chat/internal/server"
	"portfolio-chat/internal/usecase"
)

type App struct {
	Config config.Config
	Server *server.Server

	shutdown []func(context.Context) error
}

func defaultLoadAWSConfig(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx)
}

var loadAWSConfig = defaultLoadAWSConfig

// New wires every component. API keys missing from cfg are looked up in the
// parameter store when PARAM_PREFIX is set.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{}

	var tracker server.Tracker
	if cfg.NeedsAWS() {
		awsCfg, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("app: load AWS config: %w", err)
		}
		if cfg.ParamPrefix != "" {
			tokens, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
			if err != nil {
				return nil, fmt.Errorf("app: parameter store: %w", err)
			}
			cfg = cfg.WithParamStoreKeys(ctx, tokens)
		}
		if cfg.TrackingTable != "" {
			repo, err := repository.New(awsdynamodb.NewFromConfig(awsCfg), cfg.TrackingTable)
			if err != nil {
				return nil, fmt.Errorf("app: tracking repository: %w", err)
			}
			svc, err := usecase.NewTrackService(repo, repository.NewEvent)
			if err != nil {
				return nil, fmt.Errorf("app: tracking service: %w", err)
			}
			tracker = svc
		}
	}

	tp, err := observability.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("app: tracing: %w", err)
	}
	var chatOpts []usecase.ChatOption
	if tp != nil {
		chatOpts = append(chatOpts, usecase.WithTracerProvider(tp))
		a.shutdown = append(a.shutdown, tp.Shutdown)
	}

	primary, secondary, err := tiers(cfg)
	if err != nil {
		return nil, err
	}
	logTiers(cfg, tracker != nil)

	srv, err := server.New(cfg.Addr(), usecase.NewChatService(primary, secondary, chatOpts...), tracker)
	if err != nil {
		return nil, fmt.Errorf("app: server: %w", err)
	}
	a.Config = cfg
	a.Server = srv
	return a, nil
}

// tiers returns nil interfaces for tiers without a usable key.
func tiers(cfg config.Config) (usecase.ChatCompleter, usecase.TextGenerator, error) {
	var (
		primary   usecase.ChatCompleter
		secondary usecase.TextGenerator
	)
	if cfg.PrimaryEnabled() {
		c, err := openai.NewClient(cfg.OpenAIAPIKey,
			openai.WithBaseURL(cfg.OpenAIBaseURL),
			openai.WithModel(cfg.OpenAIModel),
			openai.WithTimeout(cfg.UpstreamTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("app: openai client: %w", err)
		}
		primary = c
	}
	if cfg.SecondaryEnabled() {
		c, err := huggingface.NewClient(cfg.HuggingFaceAPIKey,
			huggingface.WithBaseURL(cfg.HuggingFaceBaseURL),
			huggingface.WithModel(cfg.HuggingFaceModel),
			huggingface.WithTimeout(cfg.UpstreamTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("app: hugging face client: %w", err)
		}
		secondary = c
	}
	return primary, secondary, nil
}

func logTiers(cfg config.Config, tracking bool) {
	if !cfg.PrimaryEnabled() {
		slog.Warn("OPENAI_API_KEY not configured, primary tier disabled")
	}
	if !cfg.SecondaryEnabled() {
		slog.Warn("HUGGING_FACE_API_KEY not configured, secondary tier disabled")
	}
	slog.Info("chat service configured",
		"primary", cfg.PrimaryEnabled(),
		"secondary", cfg.SecondaryEnabled(),
		"tracking", tracking,
		"tracing", cfg.OTLPEndpoint != "",
	)
}

// Shutdown flushes telemetry.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range a.shutdown {
		errs = append(errs, fn(ctx))
	}
	return errors.Join(errs...)
}
