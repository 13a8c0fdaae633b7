package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/veda-group/leadgen-cli/internal/leadfilter"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig       `yaml:"store" mapstructure:"store"`
	Scraper ScraperConfig     `yaml:"scraper" mapstructure:"scraper"`
	Server  ServerConfig      `yaml:"server" mapstructure:"server"`
	Filter  leadfilter.Config `yaml:"filter" mapstructure:"filter"`
	Cities  CitiesConfig      `yaml:"cities" mapstructure:"cities"`
	Log     LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the lead store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ScraperConfig configures the external scraper service client.
type ScraperConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PollIntervalSecs  int     `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	DefaultKeyword    string  `yaml:"default_keyword" mapstructure:"default_keyword"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	PageSize       int      `yaml:"page_size" mapstructure:"page_size"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// CitiesConfig configures city lookup and its bounded cache.
type CitiesConfig struct {
	CacheCapacity int `yaml:"cache_capacity" mapstructure:"cache_capacity"`
	CacheTTLMins  int `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	SweepMins     int `yaml:"sweep_mins" mapstructure:"sweep_mins"`
	MinQueryLen   int `yaml:"min_query_len" mapstructure:"min_query_len"`
	MaxResults    int `yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VEDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	filterDefaults := leadfilter.DefaultConfig()
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.page_size", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("scraper.base_url", "http://127.0.0.1:5000")
	v.SetDefault("scraper.timeout_secs", 15)
	v.SetDefault("scraper.poll_interval_secs", 5)
	v.SetDefault("scraper.requests_per_second", 4)
	v.SetDefault("scraper.default_keyword", "restaurant")
	v.SetDefault("cities.cache_capacity", 256)
	v.SetDefault("cities.cache_ttl_mins", 60)
	v.SetDefault("cities.sweep_mins", 10)
	v.SetDefault("cities.min_query_len", 2)
	v.SetDefault("cities.max_results", 10)
	v.SetDefault("filter.min_phone_digits", filterDefaults.MinPhoneDigits)
	v.SetDefault("filter.tracking_domains", filterDefaults.TrackingDomains)
	v.SetDefault("filter.excluded_websites", filterDefaults.ExcludedWebsites)
	v.SetDefault("filter.tlds", filterDefaults.TLDs)

	// Read config file (optional)
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
