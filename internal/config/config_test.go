package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, "eventmatch", cfg.NATSSubjectPrefix)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EVENTMATCH_DB_DRIVER", "postgres")
	t.Setenv("EVENTMATCH_DATABASE_URL", "postgres://localhost/eventmatch?sslmode=disable")
	t.Setenv("EVENTMATCH_TOKEN_TTL", "2h")
	t.Setenv("EVENTMATCH_WORKERS", "8")
	t.Setenv("EVENTMATCH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Logger().Enabled(t.Context(), slog.LevelDebug))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown driver", env: map[string]string{"EVENTMATCH_DB_DRIVER": "mysql"}},
		{name: "no workers", env: map[string]string{"EVENTMATCH_WORKERS": "0"}},
		{name: "bad level", env: map[string]string{"EVENTMATCH_LOG_LEVEL": "loud"}},
		{name: "bad duration", env: map[string]string{"EVENTMATCH_TOKEN_TTL": "forever"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
