package app

import (
	"context"
	"log/slog"

	slackapi "github.com/slack-go/slack"

	"SafetyDigest/internal/config"
	"SafetyDigest/internal/domain"
	"SafetyDigest/internal/infrastructure/email"
	"SafetyDigest/internal/infrastructure/gmail"
	"SafetyDigest/internal/infrastructure/llm"
	"SafetyDigest/internal/infrastructure/resolver"
	"SafetyDigest/internal/infrastructure/slack"
	"SafetyDigest/internal/usecase"
)

// Application wires configuration into the digest pipeline.
type Application struct {
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New assembles all collaborators. Sources with missing credentials are wired
// as empty contributors rather than aborting the run.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}

	var referenceSource *slack.Collector
	if cfg.Slack.BotToken != "" {
		client := slackapi.New(cfg.Slack.BotToken)
		referenceSource = slack.NewCollector(client, cfg.Slack.Channel, logger.With("component", "slack"))
	} else {
		logger.Warn("slack token not configured, reference collection disabled")
	}

	gmailLogger := logger.With("component", "gmail")
	var newsletterSource *gmail.Collector
	if cfg.Gmail.CredentialsJSON != "" {
		service, err := gmail.NewService(ctx, cfg.Gmail.CredentialsJSON)
		if err != nil {
			logger.Warn("gmail service unavailable", "error", err)
			newsletterSource = gmail.NewCollector(nil, cfg.Gmail.Label, gmailLogger)
		} else {
			newsletterSource = gmail.NewCollector(service, cfg.Gmail.Label, gmailLogger)
		}
	} else {
		newsletterSource = gmail.NewCollector(nil, cfg.Gmail.Label, gmailLogger)
	}

	docResolver := resolver.New(nil, cfg.Resolver, logger.With("component", "resolver"))
	producer := llm.NewClaudeProducer(cfg.Claude)
	sink := email.NewSender(cfg.Email)

	deps := usecase.PipelineDeps{
		Newsletters: newsletterSource,
		Resolver:    docResolver,
		Producer:    producer,
		Sink:        sink,
		Logger:      logger.With("component", "pipeline"),
	}
	if referenceSource != nil {
		deps.References = referenceSource
	}

	return &Application{pipeline: usecase.NewPipeline(cfg.Digest, deps), logger: logger}
}

// Run executes a single digest cycle.
func (a *Application) Run(ctx context.Context) error {
	report, err := a.pipeline.Run(ctx)
	a.logReport(report)
	return err
}

func (a *Application) logReport(report domain.Report) {
	a.logger.Info("run report",
		"references", report.ReferencesFound,
		"newsletters", report.NewslettersFound,
		"resolved", report.Resolved,
		"succeeded", report.Succeeded,
		"failed", report.Failed)
}
