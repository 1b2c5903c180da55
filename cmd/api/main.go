package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/alerts"
	"github.com/wardenhq/warden/internal/api/routes"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/database"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/metrics"
	"github.com/wardenhq/warden/internal/server"
	"github.com/wardenhq/warden/internal/services"
	"github.com/wardenhq/warden/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Logging with rotation, to both stdout and file.
	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	_ = os.MkdirAll(logDir, 0o755)
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "warden.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(!cfg.IsProduction(), io.MultiWriter(os.Stdout, rotator))

	logger.Log().Infof("starting %s %s", version.Name, version.Full())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	// Rule catalog: defaults plus config overrides, validated up front.
	rules := admission.DefaultRules()
	for class, setting := range cfg.RuleOverrides {
		rules[admission.RuleClass(class)] = admission.Rule{Window: setting.Window, MaxRequests: setting.MaxRequests}
	}
	catalog, err := admission.NewRuleCatalog(rules)
	if err != nil {
		log.Fatalf("rule catalog: %v", err)
	}

	notifier := services.NewNotificationService(cfg.NotifyURLs)
	alertMgr := alerts.NewManager(notifier)
	defer alertMgr.Close()

	audit := services.NewAuditService(db)
	defer audit.Close()

	store := admission.NewCounterStore(nil)
	blocks := admission.NewBlockList(nil)
	gate := admission.NewGatekeeper(admission.GatekeeperConfig{
		Blocks:             blocks,
		Burst:              admission.NewBurstDetector(store, nil, cfg.BurstWindow, cfg.BurstCeiling),
		Limiter:            admission.NewLimiter(store, catalog),
		Alerter:            alertMgr,
		Events:             audit,
		BurstBlockDuration: cfg.BurstBlockDuration,
	})
	tracker := admission.NewFailedAuthTracker(store, blocks, alertMgr, cfg.FailedAuthWindow, cfg.FailedAuthThreshold)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	// Background maintenance: expiry sweeps and retention pruning.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", func() {
		store.Sweep()
		blocks.Sweep()
		metrics.SetActiveBlocks(blocks.Len())
	}); err != nil {
		log.Fatalf("schedule sweep: %v", err)
	}
	if _, err := scheduler.AddFunc("@every 1h", func() {
		alertMgr.Prune(cfg.AlertRetention)
		if _, err := audit.PruneBefore(time.Now().Add(-cfg.EventRetention)); err != nil {
			logger.WithComponent("audit").WithError(err).Error("prune security events")
		}
	}); err != nil {
		log.Fatalf("schedule pruning: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(cfg, routes.Deps{
		Cfg:      cfg,
		Gate:     gate,
		Catalog:  catalog,
		Blocks:   blocks,
		Tracker:  tracker,
		Alerts:   alertMgr,
		Audit:    audit,
		Auth:     services.NewAuthService(cfg),
		Registry: registry,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log().Infof("listening on :%s", cfg.HTTPPort)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
