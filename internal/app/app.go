package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/config"
	"github.com/taskflow-ai/taskflow-api/internal/database"
	"github.com/taskflow-ai/taskflow-api/internal/handlers"
	"github.com/taskflow-ai/taskflow-api/internal/metrics"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"github.com/taskflow-ai/taskflow-api/internal/router"
	"github.com/taskflow-ai/taskflow-api/internal/services"
	"gorm.io/gorm"
)

type App struct {
	cfg          *config.Config
	log          *slog.Logger
	server       *http.Server
	recovery     *services.RecoveryService
	cleanupFuncs []func()
}

// Open connects to the configured database and runs migrations.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if err := database.Connect(cfg); err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database.GetDB(), nil
}

// NewRecoveryService wires the recovery ledger on top of db.
func NewRecoveryService(db *gorm.DB, log *slog.Logger, m *metrics.Metrics) *services.RecoveryService {
	return services.NewRecoveryService(
		repository.NewRecoveryRepository(db),
		repository.NewOrganizationRepository(db),
		services.WithRecoveryMetrics(m),
		services.WithRecoveryLogger(log),
	)
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	gin.SetMode(cfg.GinMode)

	db, err := Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := redisStore.NewStore(
		10,
		"tcp",
		cfg.RedisHost+":"+cfg.RedisPort,
		"",
		cfg.RedisPassword,
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to create redis session store: %w", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	m := metrics.New()

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	recovery := NewRecoveryService(db, log, m)

	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Warn("OPENAI_API_KEY not set, task generation is disabled")
	}

	authService := services.NewAuthService(userRepo)
	orgService := services.NewOrganizationService(orgRepo, recovery)
	projectService := services.NewProjectService(projectRepo, columnRepo, orgRepo, recovery)
	taskService := services.NewTaskService(taskRepo, projectRepo, columnRepo, orgRepo, recovery, aiService)

	engine := router.New(cfg, log, m, store,
		router.Repositories{
			Organizations: orgRepo,
			Projects:      projectRepo,
			Tasks:         taskRepo,
		},
		router.Handlers{
			Auth:         handlers.NewAuthHandler(authService),
			Organization: handlers.NewOrganizationHandler(orgService),
			Project:      handlers.NewProjectHandler(projectService),
			Task:         handlers.NewTaskHandler(taskService),
			Recovery:     handlers.NewRecoveryHandler(recovery),
		},
	)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:      cfg,
		log:      log,
		server:   server,
		recovery: recovery,
		cleanupFuncs: []func(){
			func() {
				if err := database.Close(); err != nil {
					log.Error("failed to close database", "error", err)
				}
			},
		},
	}, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down within the
// configured timeout.
func (a *App) Run() error {
	stopSweeper := func() {}
	if a.cfg.RecoverySweepEnabled {
		stopSweeper = background(func(ctx context.Context) {
			a.recovery.StartSweepTicker(ctx, a.cfg.RecoverySweepInterval)
		})
		a.log.Info("recovery sweeper started", "interval", a.cfg.RecoverySweepInterval)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		stopSweeper()
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(ctx)
	// A purge in flight must finish before the pool closes.
	stopSweeper()
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.log.Info("server stopped")
	return nil
}

// background runs fn in a goroutine. The returned stop cancels fn's context
// and blocks until fn has returned.
func background(fn func(ctx context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func (a *App) cleanup() {
	for _, fn := range a.cleanupFuncs {
		fn()
	}
}
