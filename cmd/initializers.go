package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TasksFlow/TasksFlowBackend/app/handler"
	"github.com/TasksFlow/TasksFlowBackend/app/router"
	"github.com/TasksFlow/TasksFlowBackend/pkg/config"
	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/monitoring"
	"github.com/TasksFlow/TasksFlowBackend/pkg/notification"
	mysqlstore "github.com/TasksFlow/TasksFlowBackend/pkg/store/mysql"
	redisstore "github.com/TasksFlow/TasksFlowBackend/pkg/store/redis"
	"github.com/TasksFlow/TasksFlowBackend/pkg/taskmanager"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.Sync()
	})
	return nil
}

// initMySQL initializes MySQL and migrates the metric tables
func (app *Application) initMySQL() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		app.config.MySQL.User,
		app.config.MySQL.Password,
		app.config.MySQL.Host,
		app.config.MySQL.Port,
		app.config.MySQL.Database,
	)

	repo, err := mysqlstore.NewRepository(dsn)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate metric tables: %w", err)
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})
	return nil
}

// initRedis initializes Redis. Redis is optional: without it the task-queue
// gauges read zero and the overview cache is disabled.
func (app *Application) initRedis() error {
	if app.config.Redis.Addr == "" {
		logger.InfoCtx(app.ctx, "Redis not configured, task queue introspection disabled")
		return nil
	}

	client, err := redisstore.NewClient(app.config)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})
	return nil
}

// initTaskManager wires the queue introspection collaborator
func (app *Application) initTaskManager() error {
	if app.redisClient == nil {
		app.taskManager = taskmanager.NewNullTaskManager()
		return nil
	}

	tm := taskmanager.NewAsynqTaskManager(app.config)
	app.taskManager = tm
	app.registerCleanup(func() {
		tm.Close()
	})
	return nil
}

// initMonitoring wires the sampler, collector and overview service
func (app *Application) initMonitoring() error {
	gpuBackend := monitoring.ProbeGPUBackend(app.ctx, app.config.Monitoring.GPUEnabled)
	app.sampler = monitoring.NewSampler(gpuBackend, app.taskManager)

	thresholds := monitoring.ThresholdsFromConfig(app.config.Monitoring.Thresholds)
	interval := time.Duration(app.config.Monitoring.Interval) * time.Second

	app.collector = monitoring.NewCollector(
		app.sampler,
		thresholds,
		interval,
		app.mysqlRepo.SystemMetrics,
		app.mysqlRepo.GPUMetrics,
		app.mysqlRepo.TaskMetrics,
		app.mysqlRepo.Alert,
	)

	notifier := notification.NewFeishuNotifier()
	if notifier.Enabled() {
		app.collector.SetNotifier(notifier)
	}

	var cache monitoring.OverviewCache
	if app.redisClient != nil {
		cache = redisstore.NewSnapshotCache(app.redisClient)
	}
	app.overviewService = monitoring.NewOverviewService(
		app.mysqlRepo.SystemMetrics,
		app.mysqlRepo.GPUMetrics,
		app.mysqlRepo.Alert,
		cache,
	)
	return nil
}

// initHandlers initializes handler layer
func (app *Application) initHandlers() error {
	app.monitoringHandler = handler.NewMonitoringHandler(
		app.mysqlRepo,
		app.collector,
		app.overviewService,
		app.config.Monitoring.RetentionDays,
	)
	app.streamHandler = handler.NewOverviewStreamHandler(
		app.overviewService,
		time.Duration(app.config.Monitoring.Interval)*time.Second,
	)
	return nil
}

// initHTTPServer initializes the gin engine and HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()
	r := router.NewRouter(app.monitoringHandler, app.streamHandler)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}
	return nil
}
