package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/alerts"
)

func newAlertRouter(t *testing.T) (*gin.Engine, *alerts.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr := alerts.NewManager(nil)
	t.Cleanup(mgr.Close)

	h := NewAlertHandler(mgr)
	r := gin.New()
	r.GET("/alerts", h.List)
	r.POST("/alerts/:id/resolve", h.Resolve)
	return r, mgr
}

func listAlerts(t *testing.T, r *gin.Engine, query string) []alerts.Alert {
	t.Helper()
	req, _ := http.NewRequest("GET", "/alerts"+query, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Alerts []alerts.Alert `json:"alerts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Alerts
}

func TestAlertHandler_ListWithFilters(t *testing.T) {
	r, mgr := newAlertRouter(t)

	mgr.Raise(alerts.TypeRateLimit, alerts.SeverityLow, "a", nil)
	mgr.Raise(alerts.TypeBurstTraffic, alerts.SeverityHigh, "b", nil)
	resolved := mgr.Raise(alerts.TypeSuspiciousActivity, alerts.SeverityHigh, "c", nil)
	mgr.Resolve(resolved.ID)

	assert.Len(t, listAlerts(t, r, ""), 3)
	assert.Len(t, listAlerts(t, r, "?severity=high"), 2)
	assert.Len(t, listAlerts(t, r, "?type=burst_traffic"), 1)
	assert.Len(t, listAlerts(t, r, "?resolved=false"), 2)
	assert.Len(t, listAlerts(t, r, "?limit=1"), 1)
}

func TestAlertHandler_ListRejectsBadResolvedFilter(t *testing.T) {
	r, _ := newAlertRouter(t)

	req, _ := http.NewRequest("GET", "/alerts?resolved=maybe", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertHandler_Resolve(t *testing.T) {
	r, mgr := newAlertRouter(t)
	a := mgr.Raise(alerts.TypeRateLimit, alerts.SeverityLow, "x", nil)

	req, _ := http.NewRequest("POST", "/alerts/"+a.ID+"/resolve", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	got, ok := mgr.Get(a.ID)
	require.True(t, ok)
	assert.True(t, got.Resolved)
}

func TestAlertHandler_ResolveUnknownIs404(t *testing.T) {
	r, _ := newAlertRouter(t)

	req, _ := http.NewRequest("POST", "/alerts/nope/resolve", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 50, parseLimit("", 50))
	assert.Equal(t, 50, parseLimit("abc", 50))
	assert.Equal(t, 50, parseLimit("-3", 50))
	assert.Equal(t, 10, parseLimit("10", 50))
	assert.Equal(t, 1000, parseLimit("5000", 50))
}
