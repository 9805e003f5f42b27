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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 200*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, 4, cfg.Indexer.Workers)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.Postgres.Enabled)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viewer.yaml")
	data := []byte(`
server:
  port: 9000
archive:
  root: /srv/help/manual
indexer:
  workers: 2
search:
  debounce: 350ms
  maxResults: 50
  defaultLimit: 20
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	t.Setenv("HV_LOGGING_FORMAT", "json")
	t.Setenv("HV_REDIS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/srv/help/manual", cfg.Archive.Root)
	assert.Equal(t, 2, cfg.Indexer.Workers)
	assert.Equal(t, 350*time.Millisecond, cfg.Search.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Indexer.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Search.MaxResults = 10
	cfg.Search.DefaultLimit = 20
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", p.DSN())
}
