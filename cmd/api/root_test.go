package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobarin/speechgate/internal/api"
	"github.com/bobarin/speechgate/internal/config"
	"github.com/bobarin/speechgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/speech", redactURL("postgres://user:secret@db:5432/speech"))
	assert.Equal(t, "redis://localhost:6379", redactURL("redis://localhost:6379"))
}

func TestBuildDependenciesWiresExecEngine(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Speech.Mode = config.SpeechModePersist
	cfg.Speech.Exec.Command = `sh -c 'cat >/dev/null; printf RIFF1234'`
	cfg.Archive.Root = filepath.Join(root, "archives")
	cfg.Catalog.Path = filepath.Join(root, "catalog.db")
	require.NoError(t, cfg.Validate())

	deps, err := buildDependencies(context.Background(), &cfg, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close() })

	router := api.NewRouter(api.NewHandler(deps.Backend, deps.Files, nil), api.RouterConfig{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/speech", strings.NewReader(`{"input":"hello"}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"bytes":8`)

	list, err := deps.Files.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, models.PurposeAssistantsOutput, list.Data[0].Purpose)
}
