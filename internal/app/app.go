// -------------------------------------------------------------------------
// Application wiring - builds every service from configuration and owns
// their lifecycle.
// -------------------------------------------------------------------------

package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/nuntio/internal/browser"
	"github.com/ternarybob/nuntio/internal/common"
	"github.com/ternarybob/nuntio/internal/handlers"
	"github.com/ternarybob/nuntio/internal/interfaces"
	"github.com/ternarybob/nuntio/internal/services/feeds"
	"github.com/ternarybob/nuntio/internal/services/mailbox"
	"github.com/ternarybob/nuntio/internal/services/mailer"
	"github.com/ternarybob/nuntio/internal/services/pipeline"
	"github.com/ternarybob/nuntio/internal/services/publisher"
	"github.com/ternarybob/nuntio/internal/services/scheduler"
	"github.com/ternarybob/nuntio/internal/services/writer"
	storage "github.com/ternarybob/nuntio/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Storage
	DB             *storage.BadgerDB
	HistoryStorage interfaces.HistoryStorage

	// Messaging
	MailboxService      interfaces.MailboxService
	NotificationService interfaces.NotificationService

	// Pipeline services
	FeedService      interfaces.FeedService
	WriterService    interfaces.WriterService
	PublishService   interfaces.PublishService
	PipelineService  *pipeline.Service
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	NewsHandler     *handlers.NewsHandler
	WriterHandler   *handlers.WriterHandler
	PublishHandler  *handlers.PublishHandler
	PipelineHandler *handlers.PipelineHandler
	HistoryHandler  *handlers.HistoryHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.DB.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.SchedulerService.Start(); err != nil {
		app.DB.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Bool("pipeline_enabled", cfg.Pipeline.Enabled).
		Str("writer_provider", cfg.Writer.Provider).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage opens the Badger history store.
func (a *App) initStorage() error {
	db, err := storage.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.HistoryStorage = storage.NewHistoryStorage(db, a.Logger)

	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices builds the publishing pipeline from configuration.
func (a *App) initServices() error {
	a.MailboxService = mailbox.NewService(a.Config.IMAP, a.Logger)
	a.NotificationService = mailer.NewService(a.Config.SMTP, a.Config.Reporting.Operator, a.Logger)

	reporter := browser.NewReporter(
		a.NotificationService,
		a.Config.Secrets(),
		common.GetLogFilePath(a.Logger),
		a.Config.Reporting.LogExcerptBytes,
		a.Config.Reporting.AttachScreenshots,
		a.Logger,
	)

	// The code fetcher needs a working mailbox; without one the login flow
	// fails with CodeUnavailable if a verification step appears.
	var codes publisher.CodeFetcher
	if a.Config.Social.OTP.Sender != "" {
		fetcher, err := publisher.NewMailboxCodeFetcher(a.MailboxService, a.Config.Social.OTP, a.Logger)
		if err != nil {
			return fmt.Errorf("building code fetcher: %w", err)
		}
		codes = fetcher
	}

	a.PublishService = publisher.NewService(a.Config, reporter, codes, a.HistoryStorage, a.Logger)
	a.FeedService = feeds.NewService(a.Config.Feeds, a.Logger)

	writerService, err := writer.NewService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("building writer service: %w", err)
	}
	a.WriterService = writerService

	a.PipelineService = pipeline.NewService(a.FeedService, a.WriterService, a.PublishService, a.HistoryStorage, a.Logger)
	a.SchedulerService = scheduler.NewService(a.Config.Pipeline, func(ctx context.Context) error {
		_, err := a.PipelineService.Run(ctx)
		return err
	}, a.Logger)

	return nil
}

// initHandlers builds the HTTP handlers.
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.NewsHandler = handlers.NewNewsHandler(a.FeedService, a.Logger)
	a.WriterHandler = handlers.NewWriterHandler(a.WriterService, a.Logger)
	a.PublishHandler = handlers.NewPublishHandler(a.PublishService, a.Logger)
	a.PipelineHandler = handlers.NewPipelineHandler(a.SchedulerService, a.Logger)
	a.HistoryHandler = handlers.NewHistoryHandler(a.HistoryStorage, a.Logger)
}

// Close shuts the application down in reverse dependency order.
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		a.SchedulerService.Stop()
		a.Logger.Info().Msg("Scheduler stopped")
	}

	if a.DB != nil {
		a.DB.RunGC()
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close database")
			return err
		}
		a.Logger.Info().Msg("Database closed")
	}

	return nil
}
