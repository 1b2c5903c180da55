package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wardenhq/warden/internal/alerts"
)

// AlertHandler exposes query and resolve operations over recorded alerts.
type AlertHandler struct {
	manager *alerts.Manager
}

// NewAlertHandler creates an AlertHandler.
func NewAlertHandler(manager *alerts.Manager) *AlertHandler {
	return &AlertHandler{manager: manager}
}

// List returns alerts newest first, optionally filtered by type, severity
// and resolved state.
func (h *AlertHandler) List(c *gin.Context) {
	filter := alerts.Filter{
		Type:     c.Query("type"),
		Severity: alerts.Severity(c.Query("severity")),
	}
	if v := c.Query("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resolved filter"})
			return
		}
		filter.Resolved = &resolved
	}

	limit := parseLimit(c.Query("limit"), 50)
	c.JSON(http.StatusOK, gin.H{"alerts": h.manager.List(filter, limit)})
}

// Resolve marks an alert resolved.
func (h *AlertHandler) Resolve(c *gin.Context) {
	id := c.Param("id")
	if !h.manager.Resolve(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": id})
}

// parseLimit parses a limit query value with a fallback, capping at 1000.
func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > 1000 {
		return 1000
	}
	return n
}
