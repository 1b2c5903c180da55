package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/alerts"
	"github.com/wardenhq/warden/internal/api/handlers"
	"github.com/wardenhq/warden/internal/api/middleware"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/services"
)

// Deps collects everything the route table needs. Constructed once in main
// and passed by reference; no package-level singletons.
type Deps struct {
	Cfg      config.Config
	Gate     *admission.Gatekeeper
	Catalog  *admission.RuleCatalog
	Blocks   *admission.BlockList
	Tracker  *admission.FailedAuthTracker
	Alerts   *alerts.Manager
	Audit    *services.AuditService
	Auth     *services.AuthService
	Registry *prometheus.Registry
}

// Register wires up the API routes.
func Register(router *gin.Engine, d Deps) {
	healthHandler := handlers.NewHealthHandler(d.Cfg, d.Alerts, d.Blocks)
	authHandler := handlers.NewAuthHandler(d.Auth, d.Tracker)
	admitHandler := handlers.NewAdmitHandler(d.Gate, d.Catalog)
	securityHandler := handlers.NewSecurityHandler(d.Blocks, d.Tracker, d.Catalog, d.Alerts, d.Audit)
	alertHandler := handlers.NewAlertHandler(d.Alerts)

	router.GET("/api/v1/health", healthHandler.Check)
	if d.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")

	// The operator login is itself guarded by the auth rule class so
	// credential stuffing against Warden consumes auth quota.
	api.POST("/auth/login", middleware.Admission(d.Gate, admission.RuleAuth), authHandler.Login)

	// Sidecar admission endpoint: host services call this once per inbound
	// request.
	api.POST("/admit", admitHandler.Admit)

	security := api.Group("/security")
	security.Use(middleware.RequireAuth(d.Auth), middleware.Admission(d.Gate, admission.RuleAdmin))
	{
		security.GET("/status", securityHandler.Status)
		security.GET("/blocks", securityHandler.ListBlocks)
		security.POST("/blocks", securityHandler.Block)
		security.DELETE("/blocks/:identifier", securityHandler.Unblock)
		security.POST("/auth-attempts", securityHandler.ReportAuthAttempt)
		security.GET("/events", securityHandler.ListEvents)
		security.GET("/alerts", alertHandler.List)
		security.POST("/alerts/:id/resolve", alertHandler.Resolve)
	}
}
