// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"io/fs"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	URL string
}

type ClickHouseConfig struct {
	Host       string
	NativePort int    `mapstructure:"native_port"`
	DBName     string `mapstructure:"db_name"`
	Username   string
	Password   string
}

func (c ClickHouseConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	TTL       time.Duration
}

type AdminConfig struct {
	Email    string
	Password string
}

type AuditConfig struct {
	LogFile string `mapstructure:"log_file"`
}

type GeoIPConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type RateLimitConfig struct {
	PolicyFile string `mapstructure:"policy_file"`
}

type MetricsConfig struct {
	Enabled bool
}

type Config struct {
	Port     string
	GinMode  string `mapstructure:"gin_mode"`
	FEOrigin string `mapstructure:"fe_origin"`

	Database   DatabaseConfig
	ClickHouse ClickHouseConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Audit      AuditConfig
	GeoIP      GeoIPConfig
	RateLimit  RateLimitConfig
	Metrics    MetricsConfig
}

// Origins splits the comma separated frontend origin list.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.FEOrigin, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c Config) Validate() error {
	var errs error

	if c.Port == "" {
		errs = errors.Append(errs, errors.New("port is required"))
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = errors.Append(errs, errors.Errorf("gin mode must be debug, release or test, got %q", c.GinMode))
	}

	if len(c.Origins()) == 0 {
		errs = errors.Append(errs, errors.New("at least one frontend origin is required"))
	}

	if c.JWT.SecretKey == "" {
		errs = errors.Append(errs, errors.New("jwt secret key is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = errors.Append(errs, errors.New("jwt ttl must be positive"))
	}

	if c.Admin.Email == "" || c.Admin.Password == "" {
		errs = errors.Append(errs, errors.New("admin email and password are required"))
	}

	if c.Audit.LogFile == "" {
		errs = errors.Append(errs, errors.New("audit log file is required"))
	}

	if c.ClickHouse.Enabled() {
		if c.ClickHouse.NativePort <= 0 {
			errs = errors.Append(errs, errors.New("clickhouse native port must be positive"))
		}
		if c.ClickHouse.DBName == "" {
			errs = errors.Append(errs, errors.New("clickhouse database name is required"))
		}
	}

	return errs
}

func configure(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("fe_origin", "http://localhost:3000")

	v.SetDefault("database.url", "")

	v.SetDefault("clickhouse.host", "")
	v.SetDefault("clickhouse.native_port", 9000)
	v.SetDefault("clickhouse.db_name", "default")
	v.SetDefault("clickhouse.username", "default")
	v.SetDefault("clickhouse.password", "")

	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.ttl", time.Hour)

	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "admin123")

	v.SetDefault("audit.log_file", "audit.log")
	v.SetDefault("geoip.database_path", "")
	v.SetDefault("ratelimit.policy_file", "")
	v.SetDefault("metrics.enabled", true)
}

// Load reads .env when present, then the environment. The result is validated.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.WrapIf(err, "failed to load .env file")
	}

	v := viper.New()
	configure(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, errors.WrapIf(err, "failed to unmarshal configuration")
	}

	if err := config.Validate(); err != nil {
		return config, errors.WrapIf(err, "invalid configuration")
	}

	return config, nil
}
