package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/mantonx/streamcast/internal/stream"
)

// HealthHandler serves the health/status endpoint
type HealthHandler struct {
	manager *stream.Manager
}

// NewHealthHandler creates the health handler
func NewHealthHandler(manager *stream.Manager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// Health reports service status plus basic host load
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if h.manager != nil {
		resp["active_streams"] = h.manager.ActiveCount()
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		resp["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp["memory_percent"] = vm.UsedPercent
	}

	c.JSON(http.StatusOK, resp)
}
