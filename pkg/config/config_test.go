package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "document-events", cfg.Kafka.Topics.DocumentEvents)
	assert.Equal(t, []string{".pdf", ".txt"}, cfg.Ingestion.AllowedExtensions)
	assert.False(t, cfg.Redis.Enabled)
	assert.Zero(t, cfg.Server.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.Server.RateLimit.Window)
}

func TestLoadYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: 8088
  rateLimit:
    requests: 120
    window: 30s
storage:
  driver: badger
  badgerDir: /tmp/ds
redis:
  enabled: true
  cacheTTL: 2m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("DS_SERVER_PORT", "9999")
	t.Setenv("DS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DS_KAFKA_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Server.RateLimit.Requests)
	assert.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/ds", cfg.Storage.BadgerDir)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DS_STORAGE_DRIVER", "sqlite")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=require", p.DSN())
}
