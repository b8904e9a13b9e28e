package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/windcover/internal/resilience"
	"github.com/sells-group/windcover/internal/wind"
)

// Config holds the full application configuration.
type Config struct {
	Turbine   wind.TurbineConfig     `yaml:"turbine" mapstructure:"turbine"`
	Scenario  wind.ScenarioParams    `yaml:"scenario" mapstructure:"scenario"`
	Quality   wind.QualityThresholds `yaml:"quality" mapstructure:"quality"`
	Buildings BuildingsConfig        `yaml:"buildings" mapstructure:"buildings"`
	Wind      WindConfig             `yaml:"wind" mapstructure:"wind"`
	Store     StoreConfig            `yaml:"store" mapstructure:"store"`
	Kafka     KafkaConfig            `yaml:"kafka" mapstructure:"kafka"`
	Influx    InfluxConfig           `yaml:"influx" mapstructure:"influx"`
	Batch     BatchConfig            `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig           `yaml:"server" mapstructure:"server"`
	Log       LogConfig              `yaml:"log" mapstructure:"log"`
}

// BuildingsConfig selects the building inventory and the footprint filter.
type BuildingsConfig struct {
	// Source is "postgis" or "shapefile".
	Source          string  `yaml:"source" mapstructure:"source"`
	ShapefilePath   string  `yaml:"shapefile_path" mapstructure:"shapefile_path"`
	RadiusMeters    float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
	MinConfidence   float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	MinHeightMeters float64 `yaml:"min_height_m" mapstructure:"min_height_m"`
}

// WindConfig selects the wind sample source.
type WindConfig struct {
	// Source is "forecast", "csv" or "postgres".
	Source              string      `yaml:"source" mapstructure:"source"`
	CSVPath             string      `yaml:"csv_path" mapstructure:"csv_path"`
	ForecastURL         string      `yaml:"forecast_url" mapstructure:"forecast_url"`
	UserAgent           string      `yaml:"user_agent" mapstructure:"user_agent"`
	Timezone            string      `yaml:"timezone" mapstructure:"timezone"`
	CacheTTLHours       int         `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	GridToleranceMeters float64     `yaml:"grid_tolerance_m" mapstructure:"grid_tolerance_m"`
	Retry               RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig holds flat retry settings for remote wind providers.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// StoreConfig configures the evaluation history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// KafkaConfig configures the wind sample consumer.
type KafkaConfig struct {
	Brokers        []string `yaml:"brokers" mapstructure:"brokers"`
	Topic          string   `yaml:"topic" mapstructure:"topic"`
	GroupID        string   `yaml:"group_id" mapstructure:"group_id"`
	BatchSize      int      `yaml:"batch_size" mapstructure:"batch_size"`
	BatchTimeoutMs int      `yaml:"batch_timeout_ms" mapstructure:"batch_timeout_ms"`
}

// InfluxConfig configures the time-series sink.
type InfluxConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	Token  string `yaml:"token" mapstructure:"token"`
	Org    string `yaml:"org" mapstructure:"org"`
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
}

// BatchConfig configures multi-point evaluation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimit   int      `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per minute per IP, 0 disables
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Filter returns the building filter.
func (c *Config) Filter() wind.BuildingFilter {
	return wind.BuildingFilter{
		RadiusMeters:    c.Buildings.RadiusMeters,
		MinConfidence:   c.Buildings.MinConfidence,
		MinHeightMeters: c.Buildings.MinHeightMeters,
	}
}

// Location resolves wind.timezone for calendar-day bucketing.
func (c *Config) Location() (*time.Location, error) {
	if c.Wind.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Wind.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Wind.Timezone)
	}
	return loc, nil
}

// RetryPolicy converts wind.retry into a resilience.RetryConfig.
func (c *Config) RetryPolicy() resilience.RetryConfig {
	return resilience.FromSettings(c.Wind.Retry.MaxAttempts, c.Wind.Retry.InitialBackoffMs, c.Wind.Retry.MaxBackoffMs)
}

// CacheTTL returns the wind sample cache lifetime. Zero disables caching.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Wind.CacheTTLHours) * time.Hour
}

// Validate checks the fields a command needs. Section is one of "evaluate",
// "store", "postgres", "serve", "ingest" or "influx".
func (c *Config) Validate(section string) error {
	var missing []string
	switch section {
	case "evaluate":
		if err := c.Turbine.Validate(); err != nil {
			return eris.Wrap(err, "config: turbine")
		}
		if err := c.Scenario.Validate(); err != nil {
			return eris.Wrap(err, "config: scenario")
		}
		if c.Quality.Good <= 0 || c.Quality.Excellent <= c.Quality.Good {
			return eris.Errorf("config: quality thresholds must satisfy 0 < good < excellent (got %g, %g)", c.Quality.Good, c.Quality.Excellent)
		}
		switch c.Wind.Source {
		case "forecast":
			if c.Wind.ForecastURL == "" {
				missing = append(missing, "wind.forecast_url")
			}
		case "csv":
			if c.Wind.CSVPath == "" {
				missing = append(missing, "wind.csv_path")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url")
			}
		default:
			return eris.Errorf("config: unknown wind.source %q", c.Wind.Source)
		}
		switch c.Buildings.Source {
		case "postgis":
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url")
			}
		case "shapefile":
			if c.Buildings.ShapefilePath == "" {
				missing = append(missing, "buildings.shapefile_path")
			}
		default:
			return eris.Errorf("config: unknown buildings.source %q", c.Buildings.Source)
		}
		if _, err := c.Location(); err != nil {
			return err
		}
	case "store":
		switch c.Store.Driver {
		case "sqlite", "postgres":
		default:
			return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	case "serve":
		if c.Server.Port < 1 || c.Server.Port > 65535 {
			return eris.Errorf("config: server.port %d out of range", c.Server.Port)
		}
	case "ingest":
		if len(c.Kafka.Brokers) == 0 {
			missing = append(missing, "kafka.brokers")
		}
		if c.Kafka.Topic == "" {
			missing = append(missing, "kafka.topic")
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
		if c.Kafka.BatchSize < 1 {
			return eris.Errorf("config: kafka.batch_size must be positive (got %d)", c.Kafka.BatchSize)
		}
	case "influx":
		for key, val := range map[string]string{"influx.url": c.Influx.URL, "influx.token": c.Influx.Token, "influx.org": c.Influx.Org, "influx.bucket": c.Influx.Bucket} {
			if val == "" {
				missing = append(missing, key)
			}
		}
	default:
		return eris.Errorf("config: unknown validation section %q", section)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields for %s: %s", section, strings.Join(dedupe(missing), ", "))
	}
	return nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Load reads ./config.yaml when present, then the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path, then the environment. An empty
// path falls back to an optional ./config.yaml; an explicit path must exist.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("WINDCOVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	t := wind.DefaultTurbine()
	v.SetDefault("turbine.rotor_diameter_m", t.RotorDiameterMeters)
	v.SetDefault("turbine.system_efficiency", t.SystemEfficiency)
	v.SetDefault("turbine.air_density", t.AirDensity)
	v.SetDefault("turbine.cut_in_speed", t.CutInSpeed)
	v.SetDefault("turbine.cut_out_speed", t.CutOutSpeed)
	v.SetDefault("turbine.max_generation_kw", t.MaxGenerationKW)
	v.SetDefault("turbine.hub_height_m", t.HubHeightMeters)
	v.SetDefault("scenario.num_turbines", 1)
	v.SetDefault("scenario.daily_load_kwh", 30.0)
	v.SetDefault("quality.good", 200.0)
	v.SetDefault("quality.excellent", 400.0)
	v.SetDefault("buildings.source", "postgis")
	v.SetDefault("buildings.shapefile_path", "")
	v.SetDefault("buildings.radius_meters", 1000.0)
	v.SetDefault("buildings.min_confidence", 0.75)
	v.SetDefault("buildings.min_height_m", 3.0)
	v.SetDefault("wind.source", "forecast")
	v.SetDefault("wind.csv_path", "")
	v.SetDefault("wind.forecast_url", "https://archive-api.open-meteo.com/v1/archive")
	v.SetDefault("wind.user_agent", "windcover/1.0")
	v.SetDefault("wind.timezone", "UTC")
	v.SetDefault("wind.cache_ttl_hours", 24)
	v.SetDefault("wind.grid_tolerance_m", 15000.0)
	v.SetDefault("wind.retry.max_attempts", 3)
	v.SetDefault("wind.retry.initial_backoff_ms", 500)
	v.SetDefault("wind.retry.max_backoff_ms", 30000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "windcover.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "wind-samples")
	v.SetDefault("kafka.group_id", "windcover-ingest")
	v.SetDefault("kafka.batch_size", 500)
	v.SetDefault("kafka.batch_timeout_ms", 2000)
	v.SetDefault("influx.url", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "windcover")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
