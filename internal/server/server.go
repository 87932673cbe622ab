// Package server provides HTTP server functionality for the Streamcast
// application.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mantonx/streamcast/internal/extractor"
	"github.com/mantonx/streamcast/internal/logger"
	"github.com/mantonx/streamcast/internal/middleware"
	"github.com/mantonx/streamcast/internal/recordings"
	"github.com/mantonx/streamcast/internal/stream"
)

// Dependencies holds the collaborators the router needs
type Dependencies struct {
	Manager    *stream.Manager
	Extractor  *extractor.Extractor
	Recordings *recordings.Catalog
	EnableCORS bool
}

// SetupRouter configures and returns the main router
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger.New("http")))

	if deps.EnableCORS {
		r.Use(corsMiddleware())
	}

	registerRoutes(r, deps)
	return r
}

// corsMiddleware allows cross-origin control panel access
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
