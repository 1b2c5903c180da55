package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/services"
)

// AuthHandler issues operator tokens. Every attempt, success or failure, is
// reported to the failed-auth tracker so repeated operator login failures
// escalate like any other credential-stuffing source.
type AuthHandler struct {
	auth    *services.AuthService
	tracker *admission.FailedAuthTracker
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *services.AuthService, tracker *admission.FailedAuthTracker) *AuthHandler {
	return &AuthHandler{auth: auth, tracker: tracker}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies operator credentials and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if h.tracker != nil {
		h.tracker.RecordAttempt(req.Username, c.ClientIP(), err == nil)
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
