package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Environment    string        `mapstructure:"environment"`
	Debug          bool          `mapstructure:"debug"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address           string        `mapstructure:"address"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	MaxFailedAttempts int           `mapstructure:"max_failed_attempts"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	MigrationsDir     string        `mapstructure:"migrations_dir"`
}

func (s ServerConfig) Normalize() ServerConfig {
	if strings.TrimSpace(s.Address) == "" {
		s.Address = ":8080"
	}
	if s.TokenTTL <= 0 {
		s.TokenTTL = 30 * time.Minute
	}
	if s.MaxFailedAttempts <= 0 {
		s.MaxFailedAttempts = 5
	}
	if len(s.AllowedOrigins) == 0 {
		s.AllowedOrigins = []string{"*"}
	}
	if strings.TrimSpace(s.MigrationsDir) == "" {
		s.MigrationsDir = "file://migrations"
	}
	return s
}

func (s ServerConfig) Validate() error {
	if len(strings.TrimSpace(s.JWTSecret)) < 16 {
		return fmt.Errorf("server.jwt_secret must be at least 16 characters")
	}
	return nil
}

// ArtifactsConfig controls artifact payload sanitizing.
type ArtifactsConfig struct {
	StrictPayloads bool `mapstructure:"strict_payloads"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

func (t TelemetryConfig) Normalize() TelemetryConfig {
	if strings.TrimSpace(t.MetricsPath) == "" {
		t.MetricsPath = "/metrics"
	}
	return t
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && !strings.HasPrefix(t.MetricsPath, "/") {
		return fmt.Errorf("telemetry.metrics_path must start with /")
	}
	return nil
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	S3       S3Config       `mapstructure:"s3"`
}

// RedisConfig contains Redis connection settings. Redis is optional; an
// empty host disables token revocation.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Enabled() bool { return strings.TrimSpace(r.Host) != "" }

func (r RedisConfig) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required when host is provided")
	}
	return nil
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
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

// S3Config contains object storage configuration.
type S3Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
}

func (s S3Config) Enabled() bool { return strings.TrimSpace(s.Endpoint) != "" }

func (s S3Config) Normalize() S3Config {
	if s.URLExpiry <= 0 {
		s.URLExpiry = 10 * time.Minute
	}
	return s
}

func (s S3Config) Validate() error {
	if strings.TrimSpace(s.Endpoint) == "" && strings.TrimSpace(s.Bucket) == "" {
		return nil
	}
	if strings.TrimSpace(s.Bucket) == "" {
		return fmt.Errorf("storage.s3.bucket required when endpoint is provided")
	}
	if s.URLExpiry > 7*24*time.Hour {
		return fmt.Errorf("storage.s3.url_expiry must not exceed 7 days")
	}
	return nil
}

// Load reads the config file at path (or searches the default locations)
// with WORSTCRM_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config") // name of config file (without extension)
	v.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.max_failed_attempts", 5)
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("telemetry.enabled", true)
	// keys must be known to viper for env-only overrides to unmarshal
	for _, key := range []string{
		"general.environment", "server.jwt_secret", "storage.postgres.url", "storage.redis.host", "storage.redis.port",
		"storage.s3.endpoint", "storage.s3.bucket", "storage.s3.access_key_id", "storage.s3.secret_access_key",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("artifacts.strict_payloads", false)

	if path == "" {
		v.AddConfigPath("./config") // path to look for the config file in
		v.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)                                // bin/
		v.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("WORSTCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match (WORSTCRM_*)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	config.Server = config.Server.Normalize()
	config.Telemetry = config.Telemetry.Normalize()
	config.Storage.S3 = config.Storage.S3.Normalize()

	for _, validate := range []func() error{
		config.Server.Validate,
		config.Telemetry.Validate,
		config.Storage.Postgres.Validate,
		config.Storage.Redis.Validate,
		config.Storage.S3.Validate,
	} {
		if err := validate(); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

// LoadConfig loads config from file and panics when it is unusable.
func LoadConfig(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return cfg
}
