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
	t.Chdir(t.TempDir())

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5031/api", cfg.Backend.URL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "sqlite", cfg.Session.Store)
	assert.Equal(t, "es", cfg.UI.Language)
	assert.Equal(t, "", cfg.Security.SecretKey)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
backend:
  url: http://api.internal:8080/api
  timeout: 3s
ui:
  language: en
`), 0o600))
	t.Setenv("PORTAFOLIO_SECURITY_SECRET_KEY", "s3cret")
	t.Setenv("PORTAFOLIO_UI_LANGUAGE", "es")

	cfg, err := Load(file, "")
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:8080/api", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "s3cret", cfg.Security.SecretKey)
	assert.Equal(t, "es", cfg.UI.Language)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PORTAFOLIO_BACKEND_URL=http://dotenv:5031/api\n"), 0o600))
	t.Setenv("PORTAFOLIO_BACKEND_URL", "")
	require.NoError(t, os.Unsetenv("PORTAFOLIO_BACKEND_URL"))

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv:5031/api", cfg.Backend.URL)
	t.Cleanup(func() { _ = os.Unsetenv("PORTAFOLIO_BACKEND_URL") })
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("", "does-not-exist.env")
	assert.NoError(t, err)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load("nope.yaml", "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("", "")
	require.NoError(t, err)

	bad := base
	bad.Backend.URL = "localhost"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Session.Store = "redis"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Session.TTL = 0
	assert.Error(t, bad.Validate())
}
