package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/alerts"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/version"
)

// Health status thresholds: unresolved critical alerts in the last day and
// an unusually large block list degrade the reported status.
const (
	criticalAlertLookback = 24 * time.Hour
	blockListWarnSize     = 100
)

// HealthHandler computes the service health from configuration and the live
// security state.
type HealthHandler struct {
	cfg    config.Config
	alerts *alerts.Manager
	blocks *admission.BlockList
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg config.Config, mgr *alerts.Manager, blocks *admission.BlockList) *HealthHandler {
	return &HealthHandler{cfg: cfg, alerts: mgr, blocks: blocks}
}

// Check responds with an overall status plus the issues behind it and what
// an operator should do about them.
func (h *HealthHandler) Check(c *gin.Context) {
	status := "healthy"
	issues := []string{}
	recommendations := []string{}

	degrade := func(to string) {
		if to == "critical" || status == "healthy" {
			status = to
		}
	}

	if h.cfg.JWTSecret == "" {
		degrade("critical")
		issues = append(issues, "operator token secret is not configured")
		recommendations = append(recommendations, "set WARDEN_JWT_SECRET")
	}

	if n := h.alerts.UnresolvedCritical(criticalAlertLookback); n > 0 {
		degrade("critical")
		issues = append(issues, fmt.Sprintf("%d unresolved critical alerts in the last 24h", n))
		recommendations = append(recommendations, "review and resolve critical alerts")
	}

	if n := h.blocks.Len(); n > blockListWarnSize {
		degrade("warning")
		issues = append(issues, fmt.Sprintf("block list holds %d identifiers", n))
		recommendations = append(recommendations, "audit the block list for stale entries")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":          status,
		"issues":          issues,
		"recommendations": recommendations,
		"service":         version.Name,
		"version":         version.Full(),
	})
}
