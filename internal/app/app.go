package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/simulai/simulai/config"
	"github.com/simulai/simulai/internal/database"
	"github.com/simulai/simulai/internal/domain"
	httpHandler "github.com/simulai/simulai/internal/http"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/internal/repository"
	"github.com/simulai/simulai/internal/service"
	"github.com/simulai/simulai/pkg/liquid"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/ratelimiter"
	"github.com/simulai/simulai/pkg/tracing"
)

// DefaultMaintenanceInterval is how often expired password resets are purged
const DefaultMaintenanceInterval = time.Hour

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetHandler() http.Handler

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitSessionStore() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

type sessionStore interface {
	domain.SessionStateStore
	io.Closer
}

// App encapsulates the application dependencies and configuration
type App struct {
	config       *config.Config
	logger       logger.Logger
	db           *sql.DB
	sessionStore sessionStore
	registry     *prometheus.Registry
	metrics      *service.Metrics
	limiter      *ratelimiter.RateLimiter

	// Repositories
	userRepo          domain.UserRepository
	companyRepo       domain.CompanyRepository
	scenarioRepo      domain.ScenarioRepository
	conversationRepo  domain.ConversationRepository
	reportRepo        domain.ReportRepository
	settingRepo       domain.SettingRepository
	passwordResetRepo domain.PasswordResetRepository

	// Services
	settingService      *service.SettingService
	emailService        *service.EmailService
	authService         *service.AuthService
	userService         *service.UserService
	companyService      *service.CompanyService
	scenarioService     *service.ScenarioService
	sessionService      *service.SessionService
	conversationService *service.ConversationService
	reportService       *service.ReportService
	avatarService       *service.AvatarService

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx         context.Context
	shutdownCancel      context.CancelFunc
	activeRequests      int64
	requestWg           sync.WaitGroup
	shutdownTimeout     time.Duration
	maintenanceInterval time.Duration
	maintenanceDone     chan struct{}
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithSessionStore replaces the store picked from the Redis configuration
func WithSessionStore(store sessionStore) AppOption {
	return func(a *App) {
		a.sessionStore = store
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithMaintenanceInterval changes how often background cleanup runs
func WithMaintenanceInterval(interval time.Duration) AppOption {
	return func(a *App) {
		a.maintenanceInterval = interval
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:              cfg,
		logger:              logger.NewLoggerWithOptions(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile}),
		mux:                 http.NewServeMux(),
		registry:            prometheus.NewRegistry(),
		serverStarted:       make(chan struct{}),
		shutdownCtx:         shutdownCtx,
		shutdownCancel:      shutdownCancel,
		shutdownTimeout:     30 * time.Second,
		maintenanceInterval: DefaultMaintenanceInterval,
	}

	for _, opt := range opts {
		opt(app)
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = service.NewMetrics(app.registry)

	return app
}

// InitTracing initializes OpenCensus tracing
func (a *App) InitTracing() error {
	tracingConfig := &a.config.Tracing

	if err := tracing.InitTracing(tracingConfig, a.logger); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if tracingConfig.Enabled {
		a.logger.WithField("trace_exporter", tracingConfig.TraceExporter).
			WithField("metrics_exporter", tracingConfig.MetricsExporter).
			WithField("sampling_rate", tracingConfig.SamplingProbability).
			Info("Tracing initialized successfully")
	}

	return nil
}

// InitDB connects to PostgreSQL, applies the migrations and seeds the root admin
func (a *App) InitDB() error {
	if a.db != nil {
		return nil
	}

	password := a.config.Database.Password
	maskedPassword := ""
	if len(password) > 0 {
		maskedPassword = fmt.Sprintf("%c...%c", password[0], password[len(password)-1])
	}
	a.logger.Info(fmt.Sprintf("Connecting to database %s:%d, user %s, sslmode %s, password: %s, dbname: %s",
		a.config.Database.Host, a.config.Database.Port, a.config.Database.User, a.config.Database.SSLMode, maskedPassword, a.config.Database.DBName))

	if err := database.EnsureSystemDatabaseExists(database.GetPostgresDSN(&a.config.Database), a.config.Database.DBName); err != nil {
		return fmt.Errorf("failed to ensure system database exists: %w", err)
	}

	db, err := database.Connect(a.config)
	if err != nil {
		return err
	}

	if err := database.InitializeDatabase(context.Background(), db, a.config, a.logger); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	a.db = db
	return nil
}

// InitSessionStore connects to Redis when configured and falls back to memory
func (a *App) InitSessionStore() error {
	if a.sessionStore != nil {
		return nil
	}

	if a.config.Redis.Addr == "" {
		a.logger.Warn("Redis is not configured, session timers are kept in memory")
		a.sessionStore = repository.NewMemorySessionStateStore()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := repository.NewRedisSessionStateStore(ctx, a.config.Redis.Addr, a.config.Redis.Password, a.config.Redis.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.logger.WithField("addr", a.config.Redis.Addr).Info("Session timers stored in Redis")
	a.sessionStore = store
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.userRepo = repository.NewUserRepository(a.db)
	a.companyRepo = repository.NewCompanyRepository(a.db)
	a.scenarioRepo = repository.NewScenarioRepository(a.db)
	a.conversationRepo = repository.NewConversationRepository(a.db)
	a.reportRepo = repository.NewReportRepository(a.db)
	a.settingRepo = repository.NewSQLSettingRepository(a.db)
	a.passwordResetRepo = repository.NewPasswordResetRepository(a.db)

	return nil
}

// InitServices initializes all services
func (a *App) InitServices() error {
	if a.userRepo == nil {
		return fmt.Errorf("repositories must be initialized before services")
	}
	if a.sessionStore == nil {
		return fmt.Errorf("session store must be initialized before services")
	}

	templates := liquid.NewRenderer()

	a.settingService = service.NewSettingService(a.settingRepo, a.config.Security.SecretKey, templates, a.logger)
	a.emailService = service.NewEmailService(a.settingService, a.config.SMTP, a.config.FrontendURL, a.logger, a.metrics)
	storage := service.NewS3Storage(a.settingService, a.config.AWS, a.logger)

	a.limiter = ratelimiter.NewRateLimiter()
	a.authService = service.NewAuthService(service.AuthServiceConfig{
		Users:          a.userRepo,
		PasswordResets: a.passwordResetRepo,
		Tokens:         service.NewTokenService(a.config.Security.JWTSecret, a.config.Security.TokenTTL),
		Emails:         a.emailService,
		RateLimiter:    a.limiter,
		Logger:         a.logger,
		Metrics:        a.metrics,
		SecretKey:      a.config.Security.SecretKey,
		FrontendURL:    a.config.FrontendURL,
	})

	a.userService = service.NewUserService(a.userRepo, a.companyRepo, a.logger)
	a.companyService = service.NewCompanyService(a.companyRepo, storage, a.logger, a.metrics)
	a.scenarioService = service.NewScenarioService(service.ScenarioServiceConfig{
		Scenarios: a.scenarioRepo,
		Users:     a.userRepo,
		Storage:   storage,
		Emails:    a.emailService,
		Logger:    a.logger,
		Metrics:   a.metrics,
	})
	a.sessionService = service.NewSessionService(service.SessionServiceConfig{
		Scenarios:     a.scenarioRepo,
		Users:         a.userRepo,
		Conversations: a.conversationRepo,
		Store:         a.sessionStore,
		StateTTL:      a.config.Session.StateTTL,
		Logger:        a.logger,
		Metrics:       a.metrics,
	})
	a.conversationService = service.NewConversationService(a.conversationRepo, a.scenarioRepo, a.userRepo, a.sessionService, a.logger)
	a.reportService = service.NewReportService(service.ReportServiceConfig{
		Reports:       a.reportRepo,
		Conversations: a.conversationRepo,
		Scenarios:     a.scenarioRepo,
		Users:         a.userRepo,
		Settings:      a.settingService,
		Assistants:    service.NewAssistantFactory(a.settingService, a.metrics),
		Templates:     templates,
		Logger:        a.logger,
		Metrics:       a.metrics,
	})
	a.avatarService = service.NewAvatarService(a.settingService, a.logger)

	return nil
}

// InitHandlers registers every route on a fresh mux
func (a *App) InitHandlers() error {
	if a.authService == nil {
		return fmt.Errorf("services must be initialized before handlers")
	}

	a.mux = http.NewServeMux()
	secureCookie := !a.config.IsDevelopment()

	var db httpHandler.Pinger
	if a.db != nil {
		db = a.db
	}

	handlers := []interface{ RegisterRoutes(*http.ServeMux) }{
		httpHandler.NewRootHandler(a.config.Version, db, a.registry, a.logger),
		httpHandler.NewAuthHandler(a.authService, a.config.Security.TokenTTL, secureCookie, a.logger),
		httpHandler.NewUserHandler(a.userService, a.authService, a.logger),
		httpHandler.NewCompanyHandler(a.companyService, a.authService, a.logger),
		httpHandler.NewScenarioHandler(a.scenarioService, a.authService, a.logger),
		httpHandler.NewSessionHandler(a.sessionService, a.authService, a.logger),
		httpHandler.NewConversationHandler(a.conversationService, a.authService, a.logger),
		httpHandler.NewReportHandler(a.reportService, a.authService, a.logger),
		httpHandler.NewSettingHandler(a.settingService, a.authService, a.logger),
		httpHandler.NewEmailHandler(a.emailService, a.authService, a.logger),
		httpHandler.NewAvatarHandler(a.avatarService, a.authService, a.logger),
	}
	for _, h := range handlers {
		h.RegisterRoutes(a.mux)
	}

	return nil
}

// GetHandler returns the mux wrapped in the middleware chain
func (a *App) GetHandler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.gracefulShutdownMiddleware(handler)
	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}
	return middleware.CORSMiddleware(a.config.FrontendURL)(handler)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).
		WithField("frontend_url", a.config.FrontendURL).
		Info(fmt.Sprintf("Server starting on %s", addr))

	a.serverMu.Lock()
	if a.serverStarted != nil {
		select {
		case <-a.serverStarted:
		default:
			close(a.serverStarted)
		}
	}
	a.serverStarted = make(chan struct{})
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.GetHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	a.startMaintenance()

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}

	return a.server.ListenAndServe()
}

// startMaintenance purges expired password resets until shutdown
func (a *App) startMaintenance() {
	if a.authService == nil || a.maintenanceDone != nil {
		return
	}
	a.maintenanceDone = make(chan struct{})

	go func() {
		defer close(a.maintenanceDone)
		ticker := time.NewTicker(a.maintenanceInterval)
		defer ticker.Stop()

		for {
			select {
			case <-a.shutdownCtx.Done():
				return
			case <-ticker.C:
				n, err := a.authService.PurgeExpiredResets(a.shutdownCtx)
				if err == nil && n > 0 {
					a.logger.WithField("count", n).Info("Purged expired password resets")
				}
			}
		}
	}()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources()
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithField("error", err.Error()).Warn("HTTP server shutdown did not complete cleanly")
		shutdownErr = err
	} else {
		a.logger.Info("HTTP server shutdown completed")
	}

	requestsDone := make(chan struct{})
	go func() {
		a.requestWg.Wait()
		close(requestsDone)
	}()
	select {
	case <-requestsDone:
	case <-shutdownCtx.Done():
		a.logger.WithField("active_requests", a.getActiveRequestCount()).Warn("Shutdown timeout reached, forcing shutdown")
	}

	if a.maintenanceDone != nil {
		<-a.maintenanceDone
	}

	if cleanupErr := a.cleanupResources(); cleanupErr != nil && shutdownErr == nil {
		shutdownErr = cleanupErr
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}
	return shutdownErr
}

// cleanupResources closes the database, the session store and flushes exporters
func (a *App) cleanupResources() error {
	a.logger.Info("Cleaning up resources...")
	var firstErr error

	if a.limiter != nil {
		a.limiter.Stop()
	}

	if a.sessionStore != nil {
		if err := a.sessionStore.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing session store")
			firstErr = err
		}
	}

	if a.db != nil {
		if a.config.Tracing.Enabled {
			if err := ocsql.RecordStats(a.db, 5*time.Second); err != nil {
				a.logger.WithField("error", err.Error()).Error("Failed to record final database stats for tracing")
			}
		}
		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	tracing.Flush()
	a.logger.Info("Resource cleanup completed")
	return firstErr
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created and initialized
// Returns true if the server started successfully, false if context expired
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting SimulAI application")

	steps := []func() error{
		a.InitTracing,
		a.InitDB,
		a.InitSessionStore,
		a.InitRepositories,
		a.InitServices,
		a.InitHandlers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
}

// GetShutdownContext returns the context cancelled when shutdown starts
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks active requests and refuses new ones once shutdown started
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		next.ServeHTTP(w, r)
	})
}

var _ AppInterface = (*App)(nil)
