package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/document-classifier/internal/config"
	"github.com/kirillkom/document-classifier/internal/core/domain"
	"github.com/kirillkom/document-classifier/internal/core/ports"
	"github.com/kirillkom/document-classifier/internal/core/usecase"
	"github.com/kirillkom/document-classifier/internal/infrastructure/extractor/dispatch"
	"github.com/kirillkom/document-classifier/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/document-classifier/internal/infrastructure/extractor/tesseract"
	"github.com/kirillkom/document-classifier/internal/infrastructure/llm/hfinference"
	"github.com/kirillkom/document-classifier/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-classifier/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-classifier/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/document-classifier/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-classifier/internal/infrastructure/resilience"
	"github.com/kirillkom/document-classifier/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-classifier/internal/observability/metrics"
)

type Options struct {
	Service string
	// Registerer receives classification and circuit breaker metrics; nil
	// disables them.
	Registerer prometheus.Registerer
	// RequireQueue fails New when NATS_URL is empty.
	RequireQueue bool
	// SkipStaging leaves UploadUC nil for binaries that never accept uploads.
	SkipStaging bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Extractor   *dispatch.Extractor
	Classifiers usecase.Classifiers
	Report      ports.ReportWriter

	UploadUC  *usecase.ClassifyUploadUseCase
	EnqueueUC ports.JobScheduler
	ProcessUC *usecase.ProcessJobUseCase
	History   ports.ClassificationHistory
	Queue     ports.JobQueue

	// ReadinessChecks pings the optional backends that were configured.
	ReadinessChecks map[string]func(context.Context) error

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (app *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	app = &App{Config: cfg, Logger: logger, ReadinessChecks: map[string]func(context.Context) error{}}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	var observer ports.ClassificationObserver
	var breakerObserver resilience.StateObserver
	if opts.Registerer != nil {
		classificationMetrics := metrics.NewClassificationMetrics(opts.Service, opts.Registerer)
		observer = classificationMetrics
		breakerObserver = classificationMetrics.ObserveBreaker
	}

	app.Extractor = newExtractor(cfg, logger)

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.ScorerRetryMaxAttempts,
		BreakerEnabled:   cfg.ScorerBreakerEnabled,
	}, logger)
	if breakerObserver != nil {
		executor.OnStateChange(breakerObserver)
	}
	scorer, err := newScorer(cfg, executor, logger)
	if err != nil {
		return nil, err
	}

	app.Classifiers = usecase.Classifiers{
		domain.StrategyFilename: usecase.NewFilenameClassifier(app.Extractor, observer, logger),
		domain.StrategyZeroShot: usecase.NewZeroShotClassifier(app.Extractor, usecase.NewSerializedScorer(scorer), observer, logger),
	}
	app.Report = xlsx.NewWriter(logger)

	var store ports.ClassificationStore
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closeFns = append(app.closeFns, func() { _ = db.Close() })

		repo := postgres.NewClassificationRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo
		app.History = repo
		app.ReadinessChecks["postgres"] = repo.Ping
	} else {
		logger.Info("classification_history_disabled", "reason", "POSTGRES_DSN is empty")
	}

	if cfg.NATSURL != "" {
		queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig(), logger),
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init job queue: %w", err)
		}
		app.closeFns = append(app.closeFns, queue.Close)
		app.Queue = queue
		app.EnqueueUC = usecase.NewEnqueueJobUseCase(queue, app.Classifiers)
	} else if opts.RequireQueue {
		return nil, domain.WrapError(domain.ErrInvalidInput, "init job queue", errors.New("NATS_URL is required"))
	}
	app.ProcessUC = usecase.NewProcessJobUseCase(app.Classifiers, store, logger)

	if !opts.SkipStaging {
		staging, err := localfs.New(cfg.StagingDir, int64(cfg.MaxUploadMB)<<20)
		if err != nil {
			return nil, fmt.Errorf("init staging: %w", err)
		}
		strategy := cfg.ClassifierStrategy()
		classifier, err := app.Classifiers.For(strategy)
		if err != nil {
			return nil, err
		}
		app.UploadUC = usecase.NewClassifyUploadUseCase(staging, classifier, strategy, store, cfg.AllowedUploadExts, logger)
	}

	return app, nil
}

func newExtractor(cfg config.Config, logger *slog.Logger) *dispatch.Extractor {
	ocr := tesseract.New(tesseract.Config{
		Binary:   cfg.TesseractBin,
		Lang:     cfg.TesseractLang,
		PSM:      cfg.TesseractPSM,
		Pdftoppm: cfg.PdftoppmBin,
	}, nil, logger)

	var pageOCR pdftext.PageOCR
	if cfg.PDFOCRFallback {
		pageOCR = ocr
	}
	return dispatch.New(ocr, pdftext.New(pageOCR, logger), cfg.ImageExts, logger)
}

func newScorer(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (ports.LabelScorer, error) {
	switch cfg.ScorerBackend {
	case config.ScorerBackendHF:
		return hfinference.New(hfinference.Config{
			BaseURL: cfg.HFInferenceURL,
			Model:   cfg.HFModel,
			Token:   cfg.HFAPIToken,
			Timeout: time.Duration(cfg.ScorerTimeoutSeconds) * time.Second,
		}, executor, logger), nil
	case config.ScorerBackendOllama:
		return ollama.NewScorer(ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, executor), logger), nil
	default:
		return nil, fmt.Errorf("unknown scorer backend %q", cfg.ScorerBackend)
	}
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
