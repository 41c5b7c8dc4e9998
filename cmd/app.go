package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TasksFlow/TasksFlowBackend/app/handler"
	"github.com/TasksFlow/TasksFlowBackend/internal/jobs"
	"github.com/TasksFlow/TasksFlowBackend/pkg/config"
	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/monitoring"
	mysqlstore "github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql"
	redisstore "github.com/TasksFlow/TasksFlowBackend/pkg/store/redis"
	"github.com/TasksFlow/TasksFlowBackend/pkg/taskmanager"
)

// Application manages the lifecycle of the entire application
type Application struct {
	// Infrastructure components
	config      *config.Config
	mysqlRepo   *mysqlstore.Repository
	redisClient *redisstore.Client

	// Collaborators
	taskManager taskmanager.TaskManager

	// Monitoring core
	sampler         *monitoring.Sampler
	collector       *monitoring.Collector
	overviewService *monitoring.OverviewService

	// Handler layer
	monitoringHandler *handler.MonitoringHandler
	streamHandler     *handler.OverviewStreamHandler

	// HTTP server
	httpServer *http.Server
	ginEngine  *gin.Engine

	// Background tasks
	jobsManager *jobs.Manager

	// Context management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Cleanup functions, executed in reverse registration order
	cleanupFuncs []func()
}

// NewApplication creates a new Application instance
func NewApplication() *Application {
	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		ctx:          ctx,
		cancel:       cancel,
		cleanupFuncs: make([]func(), 0),
	}
}

// Initialize initializes all application components
func (app *Application) Initialize() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuration", app.initConfig},
		{"Logging", app.initLogger},
		{"MySQL", app.initMySQL},
		{"Redis", app.initRedis},
		{"Task Manager", app.initTaskManager},
		{"Monitoring", app.initMonitoring},
		{"Background Tasks", app.initJobs},
		{"Handler Layer", app.initHandlers},
		{"HTTP Server", app.initHTTPServer},
	}

	for _, step := range steps {
		logger.InfoCtx(app.ctx, "Initializing %s...", step.name)
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	logger.InfoCtx(app.ctx, "Application initialization completed")
	return nil
}

// Start starts all application components
func (app *Application) Start() error {
	logger.InfoCtx(app.ctx, "Starting application components...")

	// 1. Start the collection loop
	app.collector.Start()

	// 2. Start background jobs
	if app.jobsManager != nil {
		app.jobsManager.Start()
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			app.jobsManager.Wait()
		}()
	}

	// 3. Start HTTP server
	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		addr := fmt.Sprintf(":%d", app.config.Server.Port)
		logger.InfoCtx(app.ctx, "HTTP server listening on: %s", addr)
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalCtx(app.ctx, "HTTP server error: %v", err)
		}
	}()

	logger.InfoCtx(app.ctx, "All components started successfully")
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown(timeout time.Duration) error {
	logger.InfoCtx(app.ctx, "Starting graceful shutdown (timeout: %v)...", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// 1. Stop the collection loop; the in-flight cycle finishes first
	app.collector.Stop()

	// 2. Cancel background jobs
	app.cancel()
	if app.jobsManager != nil {
		app.jobsManager.Stop()
	}

	// 3. Stop HTTP server (stop accepting new requests)
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(app.ctx, "HTTP server shutdown error: %v", err)
	}

	// 4. Wait for background goroutines
	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoCtx(app.ctx, "All background tasks completed")
	case <-shutdownCtx.Done():
		logger.WarnCtx(app.ctx, "Shutdown timeout, some tasks may not have completed")
	}

	// 5. Execute cleanup functions in reverse registration order
	for i := len(app.cleanupFuncs) - 1; i >= 0; i-- {
		app.cleanupFuncs[i]()
	}

	logger.Sync()
	logger.InfoCtx(app.ctx, "Graceful shutdown completed")
	return nil
}

// registerCleanup registers cleanup function
func (app *Application) registerCleanup(cleanup func()) {
	app.cleanupFuncs = append(app.cleanupFuncs, cleanup)
}
