package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "http://localhost:8000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.PokemonTTL)
	assert.Equal(t, 3*time.Minute, cfg.Cache.MovesTTL)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
api:
  base_url: https://pokemon.example.com/api/v1
  timeout: 3s
cache:
  moves_ttl: 1m
storage:
  driver: blob
blob:
  driver: s3
  s3:
    bucket: trainer-state
    path_style: true
log:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("POKEMONTODO_API_BASE_URL", "http://override:9000/api/v1")
	t.Setenv("POKEMONTODO_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Minute, cfg.Cache.MovesTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.PokemonTTL)
	assert.Equal(t, "trainer-state", cfg.Blob.S3.Bucket)
	assert.True(t, cfg.Blob.S3.PathStyle)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("POKEMONTODO_STORAGE_DRIVER", "redis")
	_, err := Load("")
	require.ErrorContains(t, err, "storage.driver")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadServerAndMCPFromEnv(t *testing.T) {
	t.Setenv("POKEMONTODO_SERVER_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("POKEMONTODO_MCP_TRANSPORT", "http")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "http", cfg.MCP.Transport)

	t.Setenv("POKEMONTODO_MCP_TRANSPORT", "websocket")
	_, err = Load("")
	require.ErrorContains(t, err, "mcp.transport")
}

func TestValidateS3NeedsBucket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Driver = "blob"
	cfg.Blob.Driver = "s3"
	require.ErrorContains(t, cfg.Validate(), "bucket")
}

func TestResolvePath(t *testing.T) {
	assert.Equal(t, "explicit.yaml", ResolvePath("explicit.yaml"))
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, "", ResolvePath(""))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "pokemon", "pk-1")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "pk-1", entry["pokemon"])

	buf.Reset()
	NewLogger(LogConfig{Level: "bogus"}, &buf).Info("text")
	assert.Contains(t, buf.String(), "msg=text")
}
