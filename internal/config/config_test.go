package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := New()
	v.Set("server.root_model", "person")

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "schema.json", cfg.Server.SchemaPath)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, 256, cfg.Events.Buffer)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filterd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  schema_path: /etc/filterd/schema.json
  root_model: fieldsmodel
session:
  idle_timeout: 5m
log:
  level: debug
`), 0o600))

	t.Setenv("FILTERD_LOG_FORMAT", "console")
	t.Setenv("FILTERD_SERVER_PORT", "9191")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port, "environment beats the file")
	assert.Equal(t, "/etc/filterd/schema.json", cfg.Server.SchemaPath)
	assert.Equal(t, "fieldsmodel", cfg.Server.RootModel)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"port too high", "server.port", 70000},
		{"no schema", "server.schema_path", ""},
		{"no root model", "server.root_model", ""},
		{"zero idle timeout", "session.idle_timeout", "0s"},
		{"negative buffer", "events.buffer", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set("server.root_model", "person")
			v.Set(tt.key, tt.val)
			_, err := Load(v, "")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
