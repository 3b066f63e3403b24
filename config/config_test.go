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

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverDynamo, cfg.Storage.Driver)
	assert.Equal(t, "Actions", cfg.Storage.Tables.Actions)
	assert.Equal(t, 60*time.Second, cfg.Matching.PassExpiry)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.IdleTTL)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "circloth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
storage:
  driver: sqlite
  dsn: "file::memory:"
matching:
  pass_expiry: 2m
`), 0o600))

	t.Setenv("CIRCLOTH_REDIS_ADDR", "localhost:6379")
	t.Setenv("CIRCLOTH_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "file::memory:", cfg.Storage.DSN)
	assert.Equal(t, 2*time.Minute, cfg.Matching.PassExpiry)
	assert.True(t, cfg.Redis.Enabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		storage StorageConfig
		expiry  time.Duration
		wantErr bool
	}{
		{"dynamo without dsn", StorageConfig{Driver: DriverDynamo}, time.Minute, false},
		{"postgres without dsn", StorageConfig{Driver: DriverPostgres}, time.Minute, true},
		{"unknown driver", StorageConfig{Driver: "mongo"}, time.Minute, true},
		{"negative expiry", StorageConfig{Driver: DriverDynamo}, -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Storage: tt.storage, Matching: MatchingConfig{PassExpiry: tt.expiry}}
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
