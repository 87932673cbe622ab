// Package handlers contains the HTTP handlers for the control API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/streamcast/internal/stream"
	"github.com/mantonx/streamcast/internal/types"
)

// StreamsHandler serves stream start/stop/list requests
type StreamsHandler struct {
	manager *stream.Manager
}

// NewStreamsHandler creates stream control handlers
func NewStreamsHandler(manager *stream.Manager) *StreamsHandler {
	return &StreamsHandler{manager: manager}
}

// StartStreamRequest is the body of POST /api/stream/start
type StartStreamRequest struct {
	SourceURL    string               `json:"sourceUrl"`
	Destinations []stream.Destination `json:"destinations"`
	Settings     stream.Settings      `json:"settings"`
}

// StopStreamRequest is the body of POST /api/stream/stop
type StopStreamRequest struct {
	StreamID string `json:"streamId"`
}

// ListStreams returns a snapshot of all registered sessions
func (h *StreamsHandler) ListStreams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"streams": h.manager.List(),
	})
}

// StartStream starts a new multi-destination stream session
func (h *StreamsHandler) StartStream(c *gin.Context) {
	var req StartStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid request body: " + err.Error(),
		})
		return
	}

	id, err := h.manager.Start(req.SourceURL, req.Destinations, req.Settings)
	if err != nil {
		c.JSON(types.HTTPStatusFromErrorCode(types.CodeFromError(err)), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"streamId": id,
	})
}

// StopStream stops a running stream session
func (h *StreamsHandler) StopStream(c *gin.Context) {
	var req StopStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.StreamID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "streamId is required",
		})
		return
	}

	if err := h.manager.Stop(req.StreamID); err != nil {
		c.JSON(types.HTTPStatusFromErrorCode(types.CodeFromError(err)), gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
