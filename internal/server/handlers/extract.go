package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/streamcast/internal/extractor"
)

// ExtractHandler serves source URL resolution requests
type ExtractHandler struct {
	extractor *extractor.Extractor
}

// NewExtractHandler creates the extract-stream handler
func NewExtractHandler(ex *extractor.Extractor) *ExtractHandler {
	return &ExtractHandler{extractor: ex}
}

// ExtractRequest is the body of POST /api/extract-stream
type ExtractRequest struct {
	URL string `json:"url"`
}

// ExtractStream resolves a page URL to a direct media URL. Callers key
// behavior off the success field, so resolution failures still return
// 200; only an entirely absent url is a 400.
func (h *ExtractHandler) ExtractStream(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "url is required",
		})
		return
	}

	streamURL, err := h.extractor.Extract(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"stream_url":   streamURL,
		"original_url": req.URL,
	})
}
