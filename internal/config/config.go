package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ミドルウェア名。middlewareSet に並べた順で適用される。
const (
	MiddlewareRequestID = "requestid"
	MiddlewareRealIP    = "realip"
	MiddlewareLogger    = "logger"
	MiddlewareRecoverer = "recoverer"
	MiddlewareCORS      = "cors"
	MiddlewareMetrics   = "metrics"
)

// ストアのドライバ名。
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

// DefaultMiddlewareSet is applied when neither the file nor the environment names one.
var DefaultMiddlewareSet = []string{
	MiddlewareRequestID,
	MiddlewareRealIP,
	MiddlewareLogger,
	MiddlewareRecoverer,
	MiddlewareCORS,
	MiddlewareMetrics,
}

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string `yaml:"issuer"`
	Secret string `yaml:"secret"`
}

// AuthConfig は管理系ルートのトークン検証設定。
type AuthConfig struct {
	JWT      []JWTConfig `yaml:"jwt"`
	Audience string      `yaml:"audience"`
}

// Enabled reports whether at least one verification secret exists.
func (a AuthConfig) Enabled() bool {
	return len(a.JWT) > 0
}

// StoreConfig は回答ストアの接続設定。
type StoreConfig struct {
	Driver             string        `yaml:"driver"`
	MongoURI           string        `yaml:"mongoUri"`
	MongoDatabase      string        `yaml:"mongoDatabase"`
	ResponseCollection string        `yaml:"responseCollection"`
	DatabaseURL        string        `yaml:"databaseUrl"`
	ConnectTimeout     time.Duration `yaml:"connectTimeout"`
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	RoutePrefix     string        `yaml:"routePrefix"`
	MiddlewareSet   []string      `yaml:"middlewareSet"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	Environment     string        `yaml:"environment"`
	LogLevel        string        `yaml:"logLevel"`
	MetricsEnabled  bool          `yaml:"metricsEnabled"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	Store           StoreConfig   `yaml:"store"`
	Auth            AuthConfig    `yaml:"auth"`
}

// Default returns the configuration used before any file or environment override.
func Default() Config {
	return Config{
		Port:            4001,
		RoutePrefix:     "/api",
		MiddlewareSet:   append([]string(nil), DefaultMiddlewareSet...),
		AllowedOrigins:  []string{"*"},
		Environment:     "development",
		LogLevel:        "info",
		MetricsEnabled:  true,
		ShutdownTimeout: 10 * time.Second,
		Store: StoreConfig{
			Driver:             DriverMemory,
			MongoURI:           "mongodb://mongo:27017",
			MongoDatabase:      "riskboard",
			ResponseCollection: "responses",
			ConnectTimeout:     10 * time.Second,
		},
	}
}

// Load はデフォルト値、YAML ファイル、環境変数の順に重ねて設定を作る。
// path が空なら CONFIG_FILE を参照し、それも空ならファイルは読まない。
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.RoutePrefix = NormalizePrefix(cfg.RoutePrefix)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("PORT must be an integer: %q", raw)
		}
		cfg.Port = port
	}
	cfg.Host = envOrDefault("HTTP_HOST", cfg.Host)
	// 空文字のプレフィックスも有効な指定なので LookupEnv で判定する。
	if prefix, ok := os.LookupEnv("ROUTE_PREFIX"); ok {
		cfg.RoutePrefix = strings.TrimSpace(prefix)
	}
	cfg.MiddlewareSet = parseList("MIDDLEWARE_SET", cfg.MiddlewareSet)
	cfg.AllowedOrigins = parseList("API_ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.Environment = envOrDefault("ENVIRONMENT", cfg.Environment)

	if raw := strings.TrimSpace(os.Getenv("METRICS_ENABLED")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("METRICS_ENABLED must be a boolean: %q", raw)
		}
		cfg.MetricsEnabled = enabled
	}

	cfg.Store.Driver = strings.ToLower(envOrDefault("STORE_DRIVER", cfg.Store.Driver))
	cfg.Store.MongoURI = envOrDefault("MONGO_URI", cfg.Store.MongoURI)
	cfg.Store.MongoDatabase = envOrDefault("MONGO_DB", cfg.Store.MongoDatabase)
	cfg.Store.ResponseCollection = envOrDefault("RESPONSE_COLLECTION", cfg.Store.ResponseCollection)
	cfg.Store.DatabaseURL = envOrDefault("DATABASE_URL", cfg.Store.DatabaseURL)

	var err error
	if cfg.Store.ConnectTimeout, err = envDuration("STORE_CONNECT_TIMEOUT", cfg.Store.ConnectTimeout); err != nil {
		return err
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}

	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); secret != "" {
		cfg.Auth.JWT = append(cfg.Auth.JWT, JWTConfig{
			Issuer: envOrDefault("AUTH_JWT_ISSUER", "riskboard-auth"),
			Secret: secret,
		})
	}
	cfg.Auth.Audience = envOrDefault("AUTH_JWT_AUDIENCE", cfg.Auth.Audience)
	return nil
}

// Validate は起動前に設定の整合性を確認する。
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdownTimeout must be positive"))
	}

	seen := make(map[string]struct{}, len(c.MiddlewareSet))
	for _, name := range c.MiddlewareSet {
		if !knownMiddleware(name) {
			errs = append(errs, fmt.Errorf("unknown middleware %q", name))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("middleware %q listed twice", name))
		}
		seen[name] = struct{}{}
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" || c.Store.ResponseCollection == "" {
			errs = append(errs, errors.New("mongo store requires uri, database and collection"))
		}
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres store requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	for i, jwtCfg := range c.Auth.JWT {
		if strings.TrimSpace(jwtCfg.Secret) == "" {
			errs = append(errs, fmt.Errorf("auth.jwt[%d] has an empty secret", i))
		}
	}

	return errors.Join(errs...)
}

// Addr returns the listen address derived from host and port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NormalizePrefix は先頭にスラッシュを付け、末尾のスラッシュを落とす。空文字はそのまま。
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}

func knownMiddleware(name string) bool {
	for _, known := range DefaultMiddlewareSet {
		if name == known {
			return true
		}
	}
	return false
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
