package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/oppie/internal/config"
)

func TestLoadDefaultsWithEnvSecret(t *testing.T) {
	t.Setenv("OPPIE_JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.UseRedis())
}

func TestLoadParsesFileAndEnvWins(t *testing.T) {
	t.Setenv("OPPIE_JWT_SECRET", "")
	t.Setenv("PORT", "9999")

	dir := t.TempDir()
	path := filepath.Join(dir, "oppie.toml")
	content := strings.Join([]string{
		`data_dir = "/srv/docs"`,
		``,
		`[server]`,
		`port = 3000`,
		``,
		`[auth]`,
		`jwt_secret = "file-secret"`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/docs", cfg.DataDir)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	// Environment overrides the file value
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("OPPIE_JWT_SECRET", "test-secret")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadRejectsMissingSecret(t *testing.T) {
	t.Setenv("OPPIE_JWT_SECRET", "")

	_, err := config.Load("")
	require.Error(t, err)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("OPPIE_JWT_SECRET", "test-secret")
	t.Setenv("PORT", "70000")

	_, err := config.Load("")
	require.Error(t, err)
}

func TestLoadRedisBackendSelection(t *testing.T) {
	t.Setenv("OPPIE_JWT_SECRET", "test-secret")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.True(t, cfg.UseRedis())
}
