package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/TasksFlow/TasksFlowBackend/pkg/logger"
	"github.com/TasksFlow/TasksFlowBackend/pkg/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins, production should use stricter checks
	},
}

// OverviewStreamHandler pushes the monitoring overview over a websocket
type OverviewStreamHandler struct {
	overview *monitoring.OverviewService
	interval time.Duration
}

// NewOverviewStreamHandler creates a stream handler pushing every interval
func NewOverviewStreamHandler(overview *monitoring.OverviewService, interval time.Duration) *OverviewStreamHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &OverviewStreamHandler{overview: overview, interval: interval}
}

// Stream upgrades the connection and pushes one overview payload immediately,
// then one per interval until the client disconnects
// GET /api/v1/monitoring/ws/overview
func (h *OverviewStreamHandler) Stream(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to upgrade to websocket: %v", err)
		return
	}
	defer ws.Close()

	ctx := c.Request.Context()

	// Reads are discarded; the read loop exists to observe the client closing
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := ws.WriteJSON(h.overview.Overview(ctx)); err != nil {
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			if err := ws.WriteJSON(h.overview.Overview(ctx)); err != nil {
				return
			}
		}
	}
}
