package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mantonx/streamcast/internal/logger"
	"github.com/mantonx/streamcast/internal/server/handlers"
)

// registerRoutes wires all API routes to their handlers
func registerRoutes(r *gin.Engine, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(deps.Manager)
	streamsHandler := handlers.NewStreamsHandler(deps.Manager)
	extractHandler := handlers.NewExtractHandler(deps.Extractor)
	recordingsHandler := handlers.NewRecordingsHandler(deps.Recordings)
	wsHandler := handlers.NewWebSocketHandler(logger.New("websocket"), deps.Manager.Broadcaster())

	r.GET("/health", healthHandler.Health)
	r.GET("/ws", wsHandler.HandleWebSocket)

	api := r.Group("/api")
	{
		api.GET("/streams", streamsHandler.ListStreams)
		api.GET("/recordings", recordingsHandler.ListRecordings)
		api.POST("/extract-stream", extractHandler.ExtractStream)

		streamGroup := api.Group("/stream")
		{
			streamGroup.POST("/start", streamsHandler.StartStream)
			streamGroup.POST("/stop", streamsHandler.StopStream)
		}
	}
}
