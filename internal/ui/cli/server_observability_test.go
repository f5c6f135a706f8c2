package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"juparc/internal/core/app"
	"juparc/internal/core/config"
	"juparc/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservabilityServer(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Enabled = true
	cfg.DB.Path = filepath.Join(t.TempDir(), "juparc.db")
	a := app.New(cfg)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	server := NewObservabilityServer("127.0.0.1:0", app.NewHealthService(a))
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() { _ = server.Stop(context.Background()) })

	resp, err := http.Get("http://" + server.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var status app.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "up", status.Status)
	assert.Equal(t, "ok", status.Components["store"])

	metrics, err := http.Get("http://" + server.Addr() + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestObservabilityServer_BindFailure(t *testing.T) {
	first := NewObservabilityServer("127.0.0.1:0", app.NewHealthService(app.New(nil)))
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	second := NewObservabilityServer(first.Addr(), app.NewHealthService(app.New(nil)))
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}
