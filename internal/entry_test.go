package internal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/clock"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Storage.SQLite.Path = filepath.Join(dir, "fieldaudit.db")
	cfg.Storage.Fallback.Path = filepath.Join(dir, "fallback")
	cfg.Assets.Dir = filepath.Join(dir, "assets")
	cfg.Report.ExportDir = filepath.Join(dir, "exports")
	require.NoError(t, os.MkdirAll(cfg.Assets.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Assets.Dir, "logo.txt"), []byte("logo"), 0o644))
	require.NoError(t, cfg.Validate())
	return cfg
}

func testOptions(cfg *Config, clk clock.Clock) []Option {
	return []Option{WithConfig(cfg), WithLogOutput(io.Discard), WithClock(clk)}
}

func buildRuntime(t *testing.T, cfg *Config, clk clock.Clock) *runtime {
	t.Helper()
	app, err := newApplication(testOptions(cfg, clk))
	require.NoError(t, err)
	rt, err := app.build(context.Background(), app.newLogger(), true)
	require.NoError(t, err)
	t.Cleanup(func() { rt.close(context.Background()) })
	return rt
}

func TestNewApplicationRequiresConfig(t *testing.T) {
	_, err := newApplication(nil)
	assert.Error(t, err)
}

func TestHandlerRoutes(t *testing.T) {
	cfg := testConfig(t)
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rt := buildRuntime(t, cfg, clk)
	srv := httptest.NewServer(rt.handler(cfg))
	defer srv.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	code, body := get("/health/live")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get("/health/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"assets":"fieldaudit-`)

	code, body = get("/assets/logo.txt")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "logo", body)

	code, _ = get("/assets/missing.png")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = get("/api/form")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"facility_name"`)
}

func TestAuthTokenGuardsAPI(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth = AuthConfig{Mode: AuthModeToken, Token: "s3cret"}
	rt := buildRuntime(t, cfg, clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	srv := httptest.NewServer(rt.handler(cfg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/form")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/form", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEditSurvivesRestartThenExportAndReset(t *testing.T) {
	cfg := testConfig(t)
	clk := clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	app, err := newApplication(testOptions(cfg, clk))
	require.NoError(t, err)
	rt, err := app.build(context.Background(), app.newLogger(), false)
	require.NoError(t, err)
	require.NoError(t, rt.service.SetField(context.Background(), "facility_name", "Acme Plant"))
	rt.close(context.Background())

	res, err := Export(context.Background(), "", testOptions(cfg, clk)...)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Report.ExportDir, "ITAC-Energy-Audit-Acme-Plant-2026-03-01.pdf"), res.Path)
	assert.Equal(t, 1, res.Pages)
	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	err = Reset(context.Background(), false, testOptions(cfg, clk)...)
	assert.True(t, errors.Is(err, apperr.ErrResetDeclined))

	require.NoError(t, Reset(context.Background(), true, testOptions(cfg, clk)...))

	rt = buildRuntime(t, cfg, clk)
	v, _ := rt.service.Value("facility_name")
	assert.Empty(t, v)
}

func TestOpenFallback(t *testing.T) {
	b, err := openFallback(context.Background(), FallbackConfig{Driver: FallbackNone})
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = openFallback(context.Background(), FallbackConfig{Driver: FallbackFile, Path: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "file", b.Name())

	_, err = openFallback(context.Background(), FallbackConfig{Driver: FallbackRedis, RedisURL: "not a url"})
	assert.Error(t, err)
}
