package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mantonx/streamcast/internal/recordings"
)

// RecordingsHandler serves the recording file listing
type RecordingsHandler struct {
	catalog *recordings.Catalog
}

// NewRecordingsHandler creates the recordings handler
func NewRecordingsHandler(catalog *recordings.Catalog) *RecordingsHandler {
	return &RecordingsHandler{catalog: catalog}
}

// ListRecordings returns all recording files. An absent recordings
// directory yields an empty list, not an error.
func (h *RecordingsHandler) ListRecordings(c *gin.Context) {
	infos, err := h.catalog.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"recordings": infos,
		"total":      len(infos),
	})
}
