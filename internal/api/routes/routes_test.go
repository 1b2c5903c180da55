package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wardenhq/warden/internal/admission"
	"github.com/wardenhq/warden/internal/alerts"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{
		AdminUser:         "admin",
		AdminPasswordHash: string(hash),
		JWTSecret:         "secret",
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SecurityEvent{}))

	mgr := alerts.NewManager(nil)
	t.Cleanup(mgr.Close)
	audit := services.NewAuditService(db)
	t.Cleanup(audit.Close)

	catalog, err := admission.NewRuleCatalog(admission.DefaultRules())
	require.NoError(t, err)
	store := admission.NewCounterStore(nil)
	blocks := admission.NewBlockList(nil)
	gate := admission.NewGatekeeper(admission.GatekeeperConfig{
		Blocks:  blocks,
		Burst:   admission.NewBurstDetector(store, nil, 0, 0),
		Limiter: admission.NewLimiter(store, catalog),
		Alerter: mgr,
		Events:  audit,
	})
	tracker := admission.NewFailedAuthTracker(store, blocks, mgr, 15*time.Minute, 5)

	router := gin.New()
	Register(router, Deps{
		Cfg:      cfg,
		Gate:     gate,
		Catalog:  catalog,
		Blocks:   blocks,
		Tracker:  tracker,
		Alerts:   mgr,
		Audit:    audit,
		Auth:     services.NewAuthService(cfg),
		Registry: prometheus.NewRegistry(),
	})
	return router
}

func do(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := do(r, "POST", "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	return resp["token"]
}

func TestRoutes_HealthAndMetricsArePublic(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(r, "GET", "/api/v1/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, "GET", "/metrics", "", nil).Code)
}

func TestRoutes_SecuritySurfaceRequiresAuth(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "/api/v1/security/status", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "GET", "/api/v1/security/blocks", "bogus", nil).Code)
}

func TestRoutes_OperatorFlow(t *testing.T) {
	r := newTestRouter(t)
	token := login(t, r)

	w := do(r, "POST", "/api/v1/security/blocks", token, gin.H{"identifier": "9.9.9.9", "reason": "abuse"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, "GET", "/api/v1/security/blocks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "9.9.9.9")

	// The manual block raised an alert visible on the alert surface.
	w = do(r, "GET", "/api/v1/security/alerts?type=manual_block", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "manual_block")

	w = do(r, "DELETE", "/api/v1/security/blocks/9.9.9.9", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_AdmitEndToEnd(t *testing.T) {
	r := newTestRouter(t)

	// A blocked identifier is denied through the sidecar endpoint while the
	// response stays 200.
	token := login(t, r)
	w := do(r, "POST", "/api/v1/security/blocks", token, gin.H{"identifier": "6.6.6.6", "reason": "abuse"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, "POST", "/api/v1/admit", "", gin.H{"identifier": "6.6.6.6", "rule_class": "api"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["allowed"])
	assert.Equal(t, "blocked", resp["reason"])
}

func TestRoutes_LoginIsRateLimited(t *testing.T) {
	r := newTestRouter(t)

	// The auth class allows five requests per window; the sixth answers 429
	// before the handler runs.
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, do(r, "POST", "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "pw"}).Code)
	}
	w := do(r, "POST", "/api/v1/auth/login", "", gin.H{"username": "admin", "password": "pw"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
