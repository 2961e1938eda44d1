package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "public", cfg.Content.Dir)
	assert.Equal(t, "all", cfg.Content.Source)
	assert.Equal(t, "/startup_ipo_game_pack/data/firms.json", cfg.Content.BaseFirms)
	assert.Equal(t, []string{"/nyc_firms.json", "/datasets/nyc_firms.json"}, cfg.Content.JSONOverride)
	assert.Equal(t, []string{"/nyc_firms.csv", "/datasets/nyc_firms.csv"}, cfg.Content.CSVOverride)
	assert.Equal(t, "https://photon.komoot.io/api/", cfg.Geocode.Endpoint)
	assert.Equal(t, "ipo-sim-geocoder/1.0", cfg.Geocode.UserAgent)
	assert.Equal(t, 700*time.Millisecond, cfg.Geocode.Delay())
	assert.Equal(t, 30*time.Second, cfg.Geocode.Timeout())
	assert.Empty(t, cfg.Geocode.MapboxToken)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, 1200, cfg.Batch.TaskDelayMS)
	assert.Equal(t, 300, cfg.Batch.VariantDelayMS)
	assert.Equal(t, "public/datasets", cfg.Batch.PublicDir)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
cache:
  driver: postgres
  dsn: postgres://localhost/ipo
log:
  level: debug
  format: console
server:
  port: 9090
content:
  base_url: https://game.example.com
  source: csv
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Cache.Driver)
	assert.Equal(t, "postgres://localhost/ipo", cfg.Cache.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://game.example.com", cfg.Content.BaseURL)
	assert.Equal(t, "csv", cfg.Content.Source)
	// Defaults still apply for unset values
	assert.Equal(t, 700, cfg.Geocode.DelayMS)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
cache:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("IPOSIM_CACHE_DRIVER", "memory")
	t.Setenv("IPOSIM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("IPOSIM_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadSharedGeocodeEnv(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GEOCODE_ENDPOINT", "http://localhost:2322/api")
	t.Setenv("GEOCODE_USER_AGENT", "generic/1.0")
	t.Setenv("NOMINATIM_USER_AGENT", "nominatim/1.0")
	t.Setenv("MAPBOX_TOKEN", "pk.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:2322/api", cfg.Geocode.Endpoint)
	assert.Equal(t, "nominatim/1.0", cfg.Geocode.UserAgent)
	assert.Equal(t, "pk.test", cfg.Geocode.MapboxToken)
}

func TestLoadPrefixedEnvWins(t *testing.T) {
	chdirTemp(t)
	t.Setenv("GEOCODE_ENDPOINT", "http://shared")
	t.Setenv("IPOSIM_GEOCODE_ENDPOINT", "http://prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://prefixed", cfg.Geocode.Endpoint)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Content.Dir = "public"
	cfg.Cache.Driver = "sqlite"
	cfg.Geocode.DelayMS = 700
	cfg.Batch.CSV = "nyc_firms.csv"
	cfg.Batch.JSON = "nyc_firms.json"
	cfg.Batch.TaskDelayMS = 1200
	cfg.Batch.VariantDelayMS = 300
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"serve", "firms", "resolve", "batch"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.NoError(t, cfg.Validate("firms"))
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Content.Dir = ""
	cfg.Cache.Driver = "redis"
	cfg.Geocode.DelayMS = -1

	err := cfg.Validate("resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content.base_url or content.dir is required")
	assert.Contains(t, err.Error(), `cache.driver "redis"`)
	assert.Contains(t, err.Error(), "geocode.delay_ms must be >= 0")
}

func TestValidateBatch(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.CSV = ""
	cfg.Batch.JSON = ""
	cfg.Batch.TaskDelayMS = -5

	err := cfg.Validate("batch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.csv or batch.json is required")
	assert.Contains(t, err.Error(), "batch delays must be >= 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
