package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ENV_PATH", path)
}

func TestGetApplicationConfig_FromEnvFile(t *testing.T) {
	writeEnv(t, `SECRET=jwt-secret
POSTGRES__DB_NAME=altera
POSTGRES__AUTH__USER=altera
POSTGRES__AUTH__PASSWORD=pw
ELEVENLABS__API_KEY=xi-key
CORS_ALLOWED_ORIGINS=https://app.altera.ai, http://localhost:5173
`)
	v, err := InitConfig()
	require.NoError(t, err)

	cfg, err := GetApplicationConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "jwt-secret", cfg.Secret)
	assert.Equal(t, "altera", cfg.PostgresConfig.Auth.User)
	assert.Equal(t, 5432, cfg.PostgresConfig.Port)
	assert.Equal(t, "xi-key", cfg.ElevenLabsConfig.ApiKey)
	assert.Equal(t, 600, cfg.InterviewConfig.MinTotalSeconds)
	assert.Equal(t, 10, cfg.InterviewConfig.DemoMinSeconds)
	assert.Equal(t, 30, cfg.InterviewConfig.DemoMaxSeconds)
	assert.Equal(t, "local", cfg.AssetStoreConfig.StorageType)
	assert.Equal(t, []string{"https://app.altera.ai", "http://localhost:5173"}, cfg.AllowedOrigins())
}

func TestGetApplicationConfig_MissingSecretFailsValidation(t *testing.T) {
	writeEnv(t, `POSTGRES__DB_NAME=altera
POSTGRES__AUTH__USER=altera
POSTGRES__AUTH__PASSWORD=pw
ELEVENLABS__API_KEY=xi-key
`)
	v, err := InitConfig()
	require.NoError(t, err)

	_, err = GetApplicationConfig(v)
	assert.Error(t, err)
}

func TestAllowedOrigins_DefaultsToWildcard(t *testing.T) {
	cfg := &AppConfig{}
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins())
}
