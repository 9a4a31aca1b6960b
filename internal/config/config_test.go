package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Second, cfg.PumpInterval)
	assert.Equal(t, 6, cfg.MaxPartySize)
	assert.Equal(t, 100, cfg.MaxGuildSize)
	assert.Equal(t, 64, cfg.MaxGuildNameLength)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_DSN", "scened:scened@tcp(localhost:3306)/scened")
	t.Setenv("PUMP_INTERVAL", "250ms")
	t.Setenv("MAX_PARTY_SIZE", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.PumpInterval)
	assert.Equal(t, 4, cfg.MaxPartySize)
}

func TestLoad_Memory_NeedsNoDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DB_DSN", "")

	_, err := Load()
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET": ""}},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "postgres"}},
		{name: "bad interval", env: map[string]string{"PUMP_INTERVAL": "soon"}},
		{name: "negative interval", env: map[string]string{"PUMP_INTERVAL": "-1s"}},
		{name: "bad party size", env: map[string]string{"MAX_PARTY_SIZE": "six"}},
		{name: "zero guild size", env: map[string]string{"MAX_GUILD_SIZE": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
