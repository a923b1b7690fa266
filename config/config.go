package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the brief generation system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Index     IndexConfig     `mapstructure:"index"`
	Brief     BriefConfig     `mapstructure:"brief"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// Addr renders host:port for client construction.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from either the url or discrete fields.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// IndexConfig controls the aggregation index backend.
type IndexConfig struct {
	// Path is the on-disk bleve index location; empty means in-memory.
	Path string `mapstructure:"path"`
	// MaxBatchItems caps the number of items materialized per generation.
	MaxBatchItems int `mapstructure:"max_batch_items"`
}

// Normalize applies defaults for unset index values.
func (c IndexConfig) Normalize() IndexConfig {
	if c.MaxBatchItems <= 0 {
		c.MaxBatchItems = 1000
	}
	return c
}

// BriefConfig contains brief assembly defaults.
type BriefConfig struct {
	MaxItemsPerSection int           `mapstructure:"max_items_per_section"`
	PriorityThreshold  float64       `mapstructure:"priority_threshold"`
	TimeRangeHours     int           `mapstructure:"time_range_hours"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
}

// Normalize applies defaults for unset brief values.
func (c BriefConfig) Normalize() BriefConfig {
	if c.MaxItemsPerSection <= 0 {
		c.MaxItemsPerSection = 10
	}
	if c.TimeRangeHours <= 0 {
		c.TimeRangeHours = 24
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	return c
}

func (c BriefConfig) Validate() error {
	if c.PriorityThreshold < 0 {
		return fmt.Errorf("brief.priority_threshold cannot be negative")
	}
	return nil
}

// SchedulerConfig controls background scheduled brief generation.
type SchedulerConfig struct {
	Enabled    bool                `mapstructure:"enabled"`
	Interval   time.Duration       `mapstructure:"interval"`
	Recipients []RecipientSchedule `mapstructure:"recipients"`
}

// RecipientSchedule binds a recipient to a cron spec and brief type.
type RecipientSchedule struct {
	UserID    string `mapstructure:"user_id"`
	OrgID     string `mapstructure:"org_id"`
	BriefType string `mapstructure:"brief_type"`
	CronSpec  string `mapstructure:"cron_spec"`
}

// Normalize applies defaults for unset scheduler values.
func (c SchedulerConfig) Normalize() SchedulerConfig {
	if c.Interval <= 0 {
		c.Interval = time.Hour
	}
	for i := range c.Recipients {
		if c.Recipients[i].CronSpec == "" {
			c.Recipients[i].CronSpec = "@daily"
		}
		if c.Recipients[i].BriefType == "" {
			c.Recipients[i].BriefType = "daily"
		}
	}
	return c
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort < 0 {
		return fmt.Errorf("telemetry.metrics_port cannot be negative")
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "30s")
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("index.max_batch_items", 1000)
	viper.SetDefault("brief.max_items_per_section", 10)
	viper.SetDefault("brief.priority_threshold", 0.3)
	viper.SetDefault("brief.time_range_hours", 24)
	viper.SetDefault("brief.cache_ttl", "5m")
	viper.SetDefault("scheduler.interval", "1h")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("BRIEFD")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (BRIEFD_*)

	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Index = config.Index.Normalize()
	config.Brief = config.Brief.Normalize()
	config.Scheduler = config.Scheduler.Normalize()

	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	if err := config.Brief.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
