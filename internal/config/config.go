package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Content ContentConfig `yaml:"content" mapstructure:"content"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ContentConfig locates the firm datasets. BaseURL selects HTTP fetching from
// the deployed web bundle; otherwise files are read under Dir.
type ContentConfig struct {
	BaseURL      string   `yaml:"base_url" mapstructure:"base_url"`
	Dir          string   `yaml:"dir" mapstructure:"dir"`
	Source       string   `yaml:"source" mapstructure:"source"`
	BaseFirms    string   `yaml:"base_firms" mapstructure:"base_firms"`
	Economy      string   `yaml:"economy" mapstructure:"economy"`
	JSONOverride []string `yaml:"json_override" mapstructure:"json_override"`
	CSVOverride  []string `yaml:"csv_override" mapstructure:"csv_override"`
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeocodeConfig configures the geocoding providers.
type GeocodeConfig struct {
	MapboxToken  string `yaml:"mapbox_token" mapstructure:"mapbox_token"`
	NominatimURL string `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	DelayMS      int    `yaml:"delay_ms" mapstructure:"delay_ms"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Delay is the spacing between interactive provider calls.
func (g GeocodeConfig) Delay() time.Duration {
	return time.Duration(g.DelayMS) * time.Millisecond
}

// Timeout is the per-request HTTP timeout.
func (g GeocodeConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// CacheConfig configures the geocode cache backend.
type CacheConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// BatchConfig configures the offline batch geocoder.
type BatchConfig struct {
	CSV            string `yaml:"csv" mapstructure:"csv"`
	JSON           string `yaml:"json" mapstructure:"json"`
	PublicDir      string `yaml:"public_dir" mapstructure:"public_dir"`
	TaskDelayMS    int    `yaml:"task_delay_ms" mapstructure:"task_delay_ms"`
	VariantDelayMS int    `yaml:"variant_delay_ms" mapstructure:"variant_delay_ms"`
}

// ServerConfig configures the HTTP data API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("IPOSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names shared with the web client and the dataset tooling.
	bindings := map[string][]string{
		"geocode.endpoint":     {"IPOSIM_GEOCODE_ENDPOINT", "GEOCODE_ENDPOINT"},
		"geocode.user_agent":   {"IPOSIM_GEOCODE_USER_AGENT", "NOMINATIM_USER_AGENT", "GEOCODE_USER_AGENT"},
		"geocode.mapbox_token": {"IPOSIM_GEOCODE_MAPBOX_TOKEN", "MAPBOX_TOKEN", "VITE_MAPBOX_TOKEN"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("content.dir", "public")
	v.SetDefault("content.source", "all")
	v.SetDefault("content.base_firms", "/startup_ipo_game_pack/data/firms.json")
	v.SetDefault("content.economy", "/startup_ipo_game_pack/data/economy.json")
	v.SetDefault("content.json_override", []string{"/nyc_firms.json", "/datasets/nyc_firms.json"})
	v.SetDefault("content.csv_override", []string{"/nyc_firms.csv", "/datasets/nyc_firms.csv"})
	v.SetDefault("content.timeout_secs", 15)
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode.endpoint", "https://photon.komoot.io/api/")
	v.SetDefault("geocode.user_agent", "ipo-sim-geocoder/1.0")
	v.SetDefault("geocode.delay_ms", 700)
	v.SetDefault("geocode.timeout_secs", 30)
	v.SetDefault("cache.driver", "sqlite")
	v.SetDefault("cache.dsn", "geocode_cache.db")
	v.SetDefault("batch.csv", "nyc_firms.csv")
	v.SetDefault("batch.json", "nyc_firms.json")
	v.SetDefault("batch.public_dir", "public/datasets")
	v.SetDefault("batch.task_delay_ms", 1200)
	v.SetDefault("batch.variant_delay_ms", 300)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on: "serve", "firms",
// "resolve" or "batch". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve", "firms", "resolve", "batch":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode != "batch" && c.Content.BaseURL == "" && c.Content.Dir == "" {
		errs = append(errs, "content.base_url or content.dir is required")
	}
	if mode == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, "server.port must be > 0 and <= 65535")
	}
	if mode == "serve" || mode == "resolve" {
		switch strings.ToLower(c.Cache.Driver) {
		case "sqlite", "postgres", "memory":
		default:
			errs = append(errs, fmt.Sprintf("cache.driver %q is not one of sqlite, postgres, memory", c.Cache.Driver))
		}
		if c.Geocode.DelayMS < 0 {
			errs = append(errs, "geocode.delay_ms must be >= 0")
		}
	}
	if mode == "batch" {
		if c.Batch.CSV == "" && c.Batch.JSON == "" {
			errs = append(errs, "batch.csv or batch.json is required")
		}
		if c.Batch.TaskDelayMS < 0 || c.Batch.VariantDelayMS < 0 {
			errs = append(errs, "batch delays must be >= 0")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
