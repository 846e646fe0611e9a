package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"PubMedScanner/internal/config"
	"PubMedScanner/internal/infrastructure/ledger"
	"PubMedScanner/internal/infrastructure/llm"
	"PubMedScanner/internal/infrastructure/mail"
	"PubMedScanner/internal/infrastructure/pubmed"
	"PubMedScanner/internal/infrastructure/scheduler"
	"PubMedScanner/internal/infrastructure/telegram"
	"PubMedScanner/internal/logging"
	"PubMedScanner/internal/ports"
	"PubMedScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	store    *ledger.SQLiteLedger
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := ledger.Open(cfg.Ledger.Path, baseLogger.With("component", "ledger"))
	if err != nil {
		return nil, fmt.Errorf("open novelty ledger: %w", err)
	}

	client := pubmed.NewClient(cfg.PubMed.BaseURL, nil)
	parser := pubmed.NewParser()
	retriever := usecase.NewRetriever(client, parser, baseLogger.With("component", "retriever"))

	summarizer := llm.NewGeminiClient(cfg.Gemini)

	var notifier ports.Notifier
	if cfg.Notifications.Mail.From != "" && cfg.Notifications.Mail.To != "" {
		notifier = mail.NewNotifier(cfg.Notifications.Mail)
	} else {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Searcher:   client,
		Retriever:  retriever,
		Ledger:     store,
		Summarizer: summarizer,
		Notifier:   notifier,
		Journals:   cfg.PubMed.Journals,
		Topic:      cfg.PubMed.Topic,
		DaysBack:   cfg.PubMed.DaysBack,
		MaxResults: cfg.PubMed.MaxResults,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, store: store, logger: baseLogger}, nil
}

// Run executes the pipeline: one pass by default, or on the internal
// daily scheduler when enabled. Runs are strictly sequential either way;
// overlapping executions are never started.
func (a *Application) Run(ctx context.Context) error {
	defer a.store.Close()

	if a.cfg.Scheduler.Enabled {
		runner := usecase.NewRunner(scheduler.NewDailyScheduler(), a.pipeline)
		if err := runner.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		<-ctx.Done()
		return runner.Stop(context.Background())
	}

	now := time.Now().In(a.cfg.Scheduler.Location())
	result, err := a.pipeline.Run(ctx, now)
	if err != nil {
		return err
	}

	a.logger.Info("discovery finished",
		"found", result.TotalFound,
		"novel", len(result.NovelArticles))
	return nil
}
