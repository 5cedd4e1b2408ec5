package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, EnvDevelopment, cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "/api/v1", cfg.APIPrefix)
	require.Equal(t, DefaultMaxFileSize, cfg.Uploads.MaxFileSizeBytes)
	require.Equal(t, 2*time.Hour, cfg.Session.TTL)
	require.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	require.Equal(t, "wizard_session", cfg.Session.CookieName)
	require.True(t, cfg.Previews.EnableThumbnails)
	require.False(t, cfg.Reports.CacheEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("UPLOAD_MAX_FILE_SIZE", "1024")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("REPORT_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 15*time.Minute, cfg.Session.TTL)
	require.Equal(t, int64(1024), cfg.Uploads.MaxFileSizeBytes)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, 10*time.Minute, cfg.Reports.CacheTTL)
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
