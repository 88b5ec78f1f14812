package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/secretstore/internal/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakePinger struct {
	err error
}

func (p fakePinger) PingContext(ctx context.Context) error {
	return p.err
}

func newTestServer(db Pinger, provider *metrics.Provider) *OpsServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOpsServer("localhost", 0, db, logger, provider)
}

func get(t *testing.T, s *OpsServer, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestOpsServer_Health(t *testing.T) {
	w, body := get(t, newTestServer(nil, nil), "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestOpsServer_Ready(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		code   int
		status string
	}{
		{name: "Success_DatabaseReachable", db: fakePinger{}, code: http.StatusOK, status: "ready"},
		{
			name:   "Error_DatabaseDown",
			db:     fakePinger{err: errors.New("connection refused")},
			code:   http.StatusServiceUnavailable,
			status: "not ready",
		},
		{name: "Error_NoDatabase", db: nil, code: http.StatusServiceUnavailable, status: "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := get(t, newTestServer(tt.db, nil), "/ready")

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.status, body["status"])
		})
	}
}

func TestOpsServer_Metrics(t *testing.T) {
	t.Run("Success_Mounted", func(t *testing.T) {
		provider, err := metrics.NewProvider("secretstore_test")
		require.NoError(t, err)
		defer func() {
			assert.NoError(t, provider.Shutdown(context.Background()))
		}()

		w, _ := get(t, newTestServer(fakePinger{}, provider), "/metrics")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("Success_DisabledReturnsNotFound", func(t *testing.T) {
		w, _ := get(t, newTestServer(fakePinger{}, nil), "/metrics")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOpsServer_Shutdown(t *testing.T) {
	s := newTestServer(nil, nil)
	assert.NoError(t, s.Shutdown(context.Background()))
}
