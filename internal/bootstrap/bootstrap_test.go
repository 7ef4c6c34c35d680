package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/rostertag/internal/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Mode = "test"
	cfg.Server.Host = "127.0.0.1"
	cfg.Metrics.Namespace = "bootstrap_test"
	return cfg
}

func TestOpen_NothingEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false

	in, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer in.Close()

	assert.Nil(t, in.Metrics)
	assert.Nil(t, in.MetricsHandler())
	assert.Nil(t, in.Cache)
	assert.Nil(t, in.Runs)
	assert.Empty(t, in.HealthChecks())
	assert.Len(t, in.ServiceOptions(), 1)

	svc, err := in.NewService(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Extraction.TextColumn, svc.Config().TextColumn)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	in, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.NotNil(t, in.Cache)
	require.NotNil(t, in.Locks)
	require.NotNil(t, in.MetricsHandler())
	checks := in.HealthChecks()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"](context.Background()))
	assert.Len(t, in.ServiceOptions(), 2)

	require.NoError(t, in.Close())
	assert.NoError(t, in.Close(), "second close is a no-op")
}

func TestOpen_RedisUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = "127.0.0.1:1"
	cfg.Redis.DialTimeout = 200 * time.Millisecond

	_, err := Open(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewAPIServer_Routes(t *testing.T) {
	cfg := testConfig()
	cfg.Server.CORSOrigins = []string{"https://ui.example.com"}
	cfg.Server.RateLimitRPS = 100

	api, err := NewAPIServer(context.Background(), cfg, "v0.0.1", nil)
	require.NoError(t, err)
	defer api.Infra.Close()
	defer api.limiter.Stop()

	h := api.Server.Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := `{"glossary":[{"full_term":"Sergeant","abbreviations":"Sgt","term_type":"Role Term"}],"records":[{"Name":"Sgt Smith"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"Role_Terms":["SGT"]`)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bootstrap_test_http_requests_total")
}

func TestAPIServer_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	cfg.Metrics.Enabled = false

	api, err := NewAPIServer(context.Background(), cfg, "v0.0.1", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.Run(ctx, time.Second) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

//Personal.AI order the ending
