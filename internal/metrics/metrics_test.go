package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.RecordLogin("success")
		m.RecordUserCreate("created")
		m.RecordStatusChange("disable", "ok")
		m.ObserveHash(time.Millisecond)
		m.RecordHTTP("/login", http.StatusOK, time.Millisecond)
		m.RecordMigration()
	})
}

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RecordLogin("success")
	m.RecordLogin("success")
	m.RecordLogin("invalid_credentials")
	m.RecordStatusChange("enable", "not_found")
	m.RecordMigration()

	require.Equal(t, 2.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("invalid_credentials")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StatusChanges.WithLabelValues("enable", "not_found")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.MigrationsTotal))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordHTTP("/login", http.StatusUnauthorized, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `route="/login"`), body)
	require.True(t, strings.Contains(body, `code="401"`), body)
}
