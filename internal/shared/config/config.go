package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"review-backend/internal/shared/storage/db"
)

// PathEnvVar overrides the YAML config file location.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when CONFIG_PATH is unset.
var DefaultPaths = []string{"config.yaml", "config.yml"}

// Config holds application configuration.
type Config struct {
	Port             string        `koanf:"port" validate:"required"`
	Env              string        `koanf:"env" validate:"oneof=dev local staging production"`
	LogLevel         string        `koanf:"log_level"`
	CORSAllowOrigins []string      `koanf:"cors_allow_origins"`
	DatabaseURL      string        `koanf:"database_url" validate:"required_if=Env production"`
	BackendBaseURL   string        `koanf:"backend_base_url" validate:"required,url"`
	BackendTimeout   time.Duration `koanf:"backend_timeout" validate:"gt=0"`
	BackendRPS       float64       `koanf:"backend_rps" validate:"gte=0"`
	BackendBurst     int           `koanf:"backend_burst" validate:"gte=0"`
	ObjectStoreType  string        `koanf:"object_store" validate:"oneof=local s3"`
	LocalStoreDir    string        `koanf:"local_store_dir"`
	AWSRegion        string        `koanf:"aws_region"`
	S3Bucket         string        `koanf:"s3_bucket" validate:"required_if=ObjectStoreType s3"`
	S3Prefix         string        `koanf:"s3_prefix"`
	SSEKMSKeyID      string        `koanf:"sse_kms_key_id"`
	ReportTimezone   string        `koanf:"report_timezone"`
	RateLimitRPS     float64       `koanf:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst   int           `koanf:"rate_limit_burst" validate:"gte=0"`
	JobPollInterval  time.Duration `koanf:"job_poll_interval"`
	JobTimeout       time.Duration `koanf:"job_timeout"`

	DBMaxOpenConns    int           `koanf:"db_max_open_conns" validate:"gte=0"`
	DBMaxIdleConns    int           `koanf:"db_max_idle_conns" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `koanf:"db_conn_max_lifetime"`
	DBConnMaxIdleTime time.Duration `koanf:"db_conn_max_idle_time"`
	DBPingTimeout     time.Duration `koanf:"db_ping_timeout"`
	DBConnectRetries  int           `koanf:"db_connect_retries" validate:"gte=0"`
}

func defaults() Config {
	return Config{
		Port:             "8080",
		Env:              "dev",
		LogLevel:         "info",
		CORSAllowOrigins: []string{"http://localhost:3000"},
		BackendBaseURL:   "http://localhost:33333",
		BackendTimeout:   15 * time.Second,
		BackendRPS:       10,
		BackendBurst:     20,
		ObjectStoreType:  "local",
		LocalStoreDir:    "./data",
		ReportTimezone:   "Asia/Seoul",
		RateLimitRPS:     5,
		RateLimitBurst:   20,
		JobPollInterval:  3 * time.Second,
		JobTimeout:       5 * time.Minute,
	}
}

var sliceKeys = []string{"cors_allow_origins"}

var validate = validator.New()

// Load layers struct defaults, an optional YAML file and environment variables,
// then validates the result.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	if err := splitSliceKeys(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// PoolOverrides returns the DB_* settings as pool options. Zero fields keep the caller's defaults.
func (c Config) PoolOverrides() db.Options {
	return db.Options{
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		ConnMaxIdleTime: c.DBConnMaxIdleTime,
		PingTimeout:     c.DBPingTimeout,
		ConnectRetries:  c.DBConnectRetries,
	}
}

// ReportLocation resolves ReportTimezone, falling back to a fixed UTC+9 zone when
// the tz database is unavailable.
func (c Config) ReportLocation() *time.Location {
	if loc, err := time.LoadLocation(c.ReportTimezone); err == nil && c.ReportTimezone != "" {
		return loc
	}
	return time.FixedZone("KST", 9*60*60)
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitSliceKeys turns comma-separated env values into slices.
func splitSliceKeys(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		raw, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		if err := k.Set(key, splitAndTrim(raw)); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := []string{}
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
