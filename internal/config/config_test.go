package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, yaml string) (*AppConfig, error) {
	t.Helper()
	dir := t.TempDir()
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	}
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	return load(v)
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	cfg, err := loadFrom(t, `
backend:
  baseurl: http://backend:4943
identity:
  authurl: http://auth:9000
  jwtsecret: s3cret
storage:
  publicbaseurl: https://cdn.example
allowcorsorigins: "http://localhost:5173,https://findavote.example"
`)
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.False(t, cfg.IsProduction())
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	require.Equal(t, "http://backend:4943", cfg.Backend.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "fav_session", cfg.Session.CookieName)
	require.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	require.Equal(t, "s3cret", cfg.Session.CookieSecret)
	require.Equal(t, "findavote-posts", cfg.Storage.Bucket)
	require.Equal(t, "https://cdn.example", cfg.Storage.PublicBaseURL)
	require.Equal(t, []string{"http://localhost:5173", "https://findavote.example"}, cfg.AllowCORSOrigins)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FINDAVOTE_BACKEND_BASEURL", "http://from-env")
	t.Setenv("FINDAVOTE_IDENTITY_AUTHURL", "http://auth-env")
	t.Setenv("FINDAVOTE_IDENTITY_JWTSECRET", "env-secret")
	t.Setenv("FINDAVOTE_SESSION_IDLETTL", "5m")
	t.Setenv("FINDAVOTE_SESSION_COOKIESECRET", "cookie-secret")

	cfg, err := loadFrom(t, "")
	require.NoError(t, err)
	require.Equal(t, "http://from-env", cfg.Backend.BaseURL)
	require.Equal(t, "env-secret", cfg.Identity.JWTSecret)
	require.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	require.Equal(t, "cookie-secret", cfg.Session.CookieSecret)
}

func TestLoad_Validation(t *testing.T) {
	_, err := loadFrom(t, "")
	require.ErrorContains(t, err, "backend.baseurl")

	_, err = loadFrom(t, `
backend: {baseurl: http://b}
identity: {authurl: http://a, jwtsecret: x}
storage: {endpoint: http://minio:9000, bucket: ""}
`)
	require.ErrorContains(t, err, "storage.bucket")
}
