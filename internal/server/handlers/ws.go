package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/streamcast/internal/events"
)

const writeTimeout = 10 * time.Second

// WebSocketHandler bridges the event broadcaster to websocket clients
type WebSocketHandler struct {
	logger      hclog.Logger
	broadcaster *events.Broadcaster
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler creates the websocket handler
func NewWebSocketHandler(logger hclog.Logger, broadcaster *events.Broadcaster) *WebSocketHandler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &WebSocketHandler{
		logger:      logger,
		broadcaster: broadcaster,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWebSocket upgrades the connection and streams session events to
// the client until it disconnects. The connected acknowledgement is
// queued at subscribe time, so it is always delivered first.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "failed to upgrade connection: " + err.Error(),
		})
		return
	}
	defer conn.Close()

	obs := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(obs)

	h.logger.Debug("websocket client connected", "observer_id", obs.ID)

	// Writer: drain observer events to the connection
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range obs.Events() {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.broadcaster.Unsubscribe(obs)
				return
			}
		}
	}()

	// Reader: detect disconnect; clients are not expected to send much
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.broadcaster.Unsubscribe(obs)
	<-done
	h.logger.Debug("websocket client disconnected", "observer_id", obs.ID)
}
