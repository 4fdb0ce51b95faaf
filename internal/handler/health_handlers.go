package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/navid-fn/coinview/internal/resilience"
)

type HealthHandler struct {
	monitor *resilience.HealthMonitor
}

func NewHealthHandler(monitor *resilience.HealthMonitor) *HealthHandler {
	return &HealthHandler{
		monitor: monitor,
	}
}

// Health returns every check. Unhealthy is a 503, degraded is still a 200.
func (h *HealthHandler) Health(c *gin.Context) {
	overall := h.monitor.GetOverallHealth()
	status := http.StatusOK
	if overall == resilience.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"checks":    h.monitor.GetHealth(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *HealthHandler) Ready(c *gin.Context) {
	if h.monitor.GetOverallHealth() == resilience.HealthStatusUnhealthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
