package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/handlers"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/events"
	"github.com/ternarybob/vigil/internal/services/identity"
	"github.com/ternarybob/vigil/internal/services/monitor"
	"github.com/ternarybob/vigil/internal/services/query"
	"github.com/ternarybob/vigil/internal/services/registry"
	"github.com/ternarybob/vigil/internal/services/scheduler"
	"github.com/ternarybob/vigil/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// Services
	EventService     interfaces.EventService
	IdentityService  interfaces.IdentityService
	QueryService     interfaces.QueryService
	RegistryService  interfaces.RegistryService
	MonitorService   interfaces.MonitorService
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	QueryHandler    *handlers.QueryHandler
	RegistryHandler *handlers.RegistryHandler
	MonitorHandler  *handlers.MonitorHandler
	ForecastHandler *handlers.ForecastHandler
	SessionHandler  *handlers.SessionHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	app.EventService = events.NewService(logger)

	app.IdentityService = identity.NewService(
		&cfg.Identity,
		storageManager.SessionStorage(),
		app.EventService,
		logger,
	)

	if err := app.initQueryService(); err != nil {
		return nil, err
	}

	app.RegistryService = registry.NewService(
		&cfg.Registry,
		storageManager.AidRecordStorage(),
		app.IdentityService,
		app.EventService,
		logger,
	)

	app.MonitorService = monitor.NewSimulator(
		&cfg.Monitor,
		cfg.MonitorInterval(),
		storageManager.ReadingStorage(),
		app.EventService,
		logger,
	)

	app.SchedulerService = scheduler.NewService(cfg, storageManager.ReadingStorage(), logger)

	app.initHandlers()

	return app, nil
}

// initQueryService resolves the API key and builds the grounded query client.
func (a *App) initQueryService() error {
	apiKey, err := common.ResolveAPIKey(a.ctx, a.StorageManager.KeyValueStorage(), "gemini_api_key", a.Config.Query.APIKey)
	if err != nil {
		// The dashboard still works without a key; queries fail at call time.
		a.Logger.Warn().Msg("No generation API key configured, query panel disabled until one is set")
		apiKey = ""
	}

	opts := []query.ClientOption{
		query.WithLogger(a.Logger),
		query.WithModel(a.Config.Query.Model),
		query.WithHTTPClient(&http.Client{Timeout: a.Config.QueryTimeout()}),
	}
	if a.Config.Query.Endpoint != "" {
		opts = append(opts, query.WithBaseURL(a.Config.Query.Endpoint))
	}

	a.QueryService = query.NewClient(apiKey, opts...)
	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.QueryHandler = handlers.NewQueryHandler(a.QueryService, a.Logger)
	a.RegistryHandler = handlers.NewRegistryHandler(a.RegistryService, a.Logger)
	a.MonitorHandler = handlers.NewMonitorHandler(a.MonitorService, a.StorageManager.ReadingStorage(), a.Logger)
	a.ForecastHandler = handlers.NewForecastHandler(a.Logger)
	a.SessionHandler = handlers.NewSessionHandler(a.IdentityService, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.RegistryService, a.MonitorService, a.Config, a.Logger)
}

// Start launches the background services.
func (a *App) Start() error {
	// Settle the session up front so the first submission never waits on login.
	if _, err := a.IdentityService.EnsureSession(a.ctx); err != nil {
		return fmt.Errorf("failed to settle session: %w", err)
	}

	if err := a.MonitorService.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	if err := a.SchedulerService.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	return nil
}

// Close shuts down all components in reverse dependency order.
func (a *App) Close() error {
	a.cancelCtx()

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler shutdown failed")
		}
	}

	if a.MonitorService != nil {
		if err := a.MonitorService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Monitor shutdown failed")
		}
	}

	if a.EventService != nil {
		a.EventService.Close()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	return nil
}
