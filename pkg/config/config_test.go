package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "Asia/Jakarta", cfg.Attendance.Timezone)
	assert.Equal(t, 5, cfg.Statistics.TopVisitorsDefault)
	assert.Equal(t, 50, cfg.Statistics.TopVisitorsMax)
	assert.Equal(t, 5*time.Minute, cfg.Statistics.CacheTTL)
	assert.False(t, cfg.DeviceAuth.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("STATISTICS_CACHE_TTL", "not-a-duration")
	t.Setenv("ENABLE_STATISTICS_CACHE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Statistics.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Statistics.CacheTTL)
}
