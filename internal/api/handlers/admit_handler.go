package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/util"
)

// AdmitHandler exposes the per-request admission contract as an RPC-style
// endpoint for host services that run Warden as a sidecar instead of
// mounting the gin middleware.
type AdmitHandler struct {
	gate    *admission.Gatekeeper
	catalog *admission.RuleCatalog
}

// NewAdmitHandler creates an AdmitHandler.
func NewAdmitHandler(gate *admission.Gatekeeper, catalog *admission.RuleCatalog) *AdmitHandler {
	return &AdmitHandler{gate: gate, catalog: catalog}
}

type AdmitRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	RuleClass  string `json:"rule_class" binding:"required"`
	// Account ties auth-flow checks to the failed-auth tracker key space.
	Account string `json:"account"`
}

type AdmitResponse struct {
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason,omitempty"`
	Blocked    bool   `json:"blocked"`
	Limit      int    `json:"limit"`
	Remaining  int    `json:"remaining"`
	Reset      int64  `json:"reset,omitempty"`
	RetryAfter int64  `json:"retry_after,omitempty"`
}

// Admit evaluates one request on behalf of the host service. Unknown rule
// classes are a caller bug and answer 400; abuse outcomes are data, so a
// denial still answers 200 with allowed=false.
func (h *AdmitHandler) Admit(c *gin.Context) {
	var req AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	class := admission.RuleClass(req.RuleClass)
	if !h.catalog.Has(class) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown rule class"})
		return
	}

	identifier := util.SanitizeForLog(req.Identifier)
	if req.Account != "" {
		identifier = identifier + ":" + util.SanitizeForLog(req.Account)
	}

	v := h.gate.Admit(identifier, class)

	resp := AdmitResponse{
		Allowed:   v.Allowed,
		Reason:    string(v.Reason),
		Blocked:   v.Blocked,
		Limit:     v.Limit,
		Remaining: v.Remaining,
	}
	if !v.ResetAt.IsZero() {
		resp.Reset = v.ResetAt.Unix()
	}
	if !v.Allowed && v.RetryAfter > 0 {
		secs := int64(v.RetryAfter.Seconds())
		if secs < 1 {
			secs = 1
		}
		resp.RetryAfter = secs
	}

	c.JSON(http.StatusOK, resp)
}
