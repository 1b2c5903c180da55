package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/alerts"
	"github.com/wardenhq/warden/internal/api/middleware"
	"github.com/wardenhq/warden/internal/metrics"
	"github.com/wardenhq/warden/internal/services"
	"github.com/wardenhq/warden/internal/util"
)

// SecurityHandler is the operator control surface over the block list, the
// failed-auth tracker and the audit trail.
type SecurityHandler struct {
	blocks  *admission.BlockList
	tracker *admission.FailedAuthTracker
	catalog *admission.RuleCatalog
	alerter admission.Alerter
	audit   *services.AuditService
}

// NewSecurityHandler creates a SecurityHandler.
func NewSecurityHandler(blocks *admission.BlockList, tracker *admission.FailedAuthTracker, catalog *admission.RuleCatalog, alerter admission.Alerter, audit *services.AuditService) *SecurityHandler {
	return &SecurityHandler{blocks: blocks, tracker: tracker, catalog: catalog, alerter: alerter, audit: audit}
}

// ListBlocks returns the live block list.
func (h *SecurityHandler) ListBlocks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blocks": h.blocks.List()})
}

type BlockRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Reason     string `json:"reason" binding:"required"`
	// Duration in Go syntax ("1h", "30m"). Empty means permanent.
	Duration string `json:"duration"`
}

// Block adds a manual block. Blocking an already-blocked identifier
// replaces the entry.
func (h *SecurityHandler) Block(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ttl time.Duration
	if req.Duration != "" {
		d, err := time.ParseDuration(req.Duration)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
		ttl = d
	}

	ent := h.blocks.Block(util.SanitizeForLog(req.Identifier), util.Truncate(util.SanitizeForLog(req.Reason), 512), ttl)
	metrics.SetActiveBlocks(h.blocks.Len())

	if h.alerter != nil {
		h.alerter.Raise(alerts.TypeManualBlock, alerts.SeverityMedium,
			"identifier blocked by operator",
			map[string]string{
				"identifier": ent.Identifier,
				"reason":     ent.Reason,
				"operator":   middleware.Operator(c),
			})
	}

	c.JSON(http.StatusCreated, ent)
}

// Unblock lifts a block. Unblocking an unknown identifier succeeds.
func (h *SecurityHandler) Unblock(c *gin.Context) {
	identifier := c.Param("identifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing identifier"})
		return
	}
	h.blocks.Unblock(identifier)
	metrics.SetActiveBlocks(h.blocks.Len())
	c.JSON(http.StatusOK, gin.H{"unblocked": identifier})
}

type AuthAttemptRequest struct {
	Account string `json:"account" binding:"required"`
	Source  string `json:"source" binding:"required"`
	Success bool   `json:"success"`
}

// ReportAuthAttempt lets the host service feed authentication outcomes into
// the failed-auth tracker.
func (h *SecurityHandler) ReportAuthAttempt(c *gin.Context) {
	var req AuthAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := util.SanitizeForLog(req.Account)
	source := util.SanitizeForLog(req.Source)
	h.tracker.RecordAttempt(account, source, req.Success)

	c.JSON(http.StatusAccepted, gin.H{
		"account":  account,
		"source":   source,
		"failures": h.tracker.Failures(account, source),
	})
}

// ListEvents returns recent persisted security events.
func (h *SecurityHandler) ListEvents(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 100)
	events, err := h.audit.ListEvents(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// Status reports the engine's static configuration and live block count.
func (h *SecurityHandler) Status(c *gin.Context) {
	classes := make([]gin.H, 0)
	for _, class := range h.catalog.Classes() {
		rule, err := h.catalog.Get(class)
		if err != nil {
			continue
		}
		classes = append(classes, gin.H{
			"class":        string(class),
			"window":       rule.Window.String(),
			"max_requests": rule.MaxRequests,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"rule_classes":  classes,
		"active_blocks": h.blocks.Len(),
	})
}
