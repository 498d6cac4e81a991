package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("PORT", "")
	path := writeFile(t, "config.yml", `
server:
  port: 9090
  projectName: Test API
gemini:
  apiKey: from-yaml
  timeoutSeconds: 5
database:
  uri: mongodb://localhost:27017/credcheck
cors:
  allowOrigins: ["https://example.com"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Test API", cfg.Server.ProjectName)
	assert.Equal(t, "/api/v1", cfg.Server.APIPrefix)
	assert.Equal(t, "from-yaml", cfg.Gemini.ApiKey)
	assert.Equal(t, 5*time.Second, cfg.LLMTimeout())
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, "mongodb://localhost:27017/credcheck", cfg.Database.URI)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("PORT", "")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "Misinformation Detector API", cfg.Server.ProjectName)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, int64(10<<20), cfg.Limits.MaxUploadBytes)
	assert.Equal(t, 10*time.Second, cfg.ImageFetchTimeout())
	assert.Equal(t, 15*time.Second, cfg.CoherenceTimeout())
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout())
	assert.Equal(t, 10*time.Minute, cfg.VoteWindow())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yml", "gemini:\n  apiKey: from-yaml\nserver:\n  port: 9090\n")

	t.Run("environment wins over yaml", func(t *testing.T) {
		t.Setenv("GOOGLE_API_KEY", "from-env")
		t.Setenv("PORT", "7000")
		t.Setenv("REDIS_ADDR", "localhost:6379")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Gemini.ApiKey)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	})

	t.Run("invalid port is rejected", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yml", "server: [unclosed")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to unmarshal yaml")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "CREDCHECK_TEST_VAR=from-dotenv\n")
	os.Unsetenv("CREDCHECK_TEST_VAR")
	t.Cleanup(func() { os.Unsetenv("CREDCHECK_TEST_VAR") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-dotenv", os.Getenv("CREDCHECK_TEST_VAR"))
}
