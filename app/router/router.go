package router

import (
	"github.com/gin-gonic/gin"

	"github.com/TasksFlow/TasksFlowBackend/app/handler"
	"github.com/TasksFlow/TasksFlowBackend/app/middleware"
)

// Router wires the monitoring API onto a gin engine
type Router struct {
	monitoringHandler *handler.MonitoringHandler
	streamHandler     *handler.OverviewStreamHandler
}

// NewRouter creates a new Router
func NewRouter(monitoringHandler *handler.MonitoringHandler, streamHandler *handler.OverviewStreamHandler) *Router {
	return &Router{
		monitoringHandler: monitoringHandler,
		streamHandler:     streamHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestContextMiddleware())
	engine.Use(middleware.Logger())

	api := engine.Group("/api/v1/monitoring")

	// Loop state is public so probes and dashboards can check liveness
	api.GET("/status", r.monitoringHandler.GetStatus)

	authed := api.Group("")
	authed.Use(middleware.Auth())
	{
		authed.GET("/overview", r.monitoringHandler.GetOverview)

		system := authed.Group("/system")
		{
			system.GET("/latest", r.monitoringHandler.GetLatestSystem)
			system.GET("/history", r.monitoringHandler.GetSystemHistory)
			system.GET("/aggregated", r.monitoringHandler.GetAggregatedSystem)
		}

		gpu := authed.Group("/gpu")
		{
			gpu.GET("/latest", r.monitoringHandler.GetLatestGPUs)
			gpu.GET("/summary", r.monitoringHandler.GetGPUSummary)
			gpu.GET("/:gpu_index/latest", r.monitoringHandler.GetLatestGPU)
			gpu.GET("/:gpu_index/history", r.monitoringHandler.GetGPUHistory)
		}

		tasks := authed.Group("/tasks")
		{
			tasks.GET("/active", r.monitoringHandler.GetActiveTasks)
			tasks.GET("/:task_id", r.monitoringHandler.GetTaskHistory)
			tasks.GET("/:task_id/summary", r.monitoringHandler.GetTaskSummary)
		}

		alerts := authed.Group("/alerts")
		{
			alerts.GET("", r.monitoringHandler.ListAlerts)
			alerts.GET("/statistics", r.monitoringHandler.GetAlertStatistics)
			alerts.PUT("/:alert_id/resolve", middleware.AdminRequired(), r.monitoringHandler.ResolveAlert)
		}

		authed.POST("/collect", middleware.AdminRequired(), r.monitoringHandler.TriggerCollect)
		authed.DELETE("/cleanup", middleware.AdminRequired(), r.monitoringHandler.TriggerCleanup)

		if r.streamHandler != nil {
			authed.GET("/ws/overview", r.streamHandler.Stream)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
