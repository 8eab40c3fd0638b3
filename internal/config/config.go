package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Portal  PortalConfig  `yaml:"portal"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN string `yaml:"dsn"`

	PollInterval    time.Duration `yaml:"-"`
	PollIntervalRaw string        `yaml:"poll_interval"`
}

type AuthConfig struct {
	TokenSecret       string `yaml:"token_secret"`
	AdminUsername     string `yaml:"admin_username"`
	AdminPassword     string `yaml:"admin_password"`
	AdminPasswordHash string `yaml:"admin_password_hash"`

	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl"`
}

type PortalConfig struct {
	LogoutDelay         time.Duration `yaml:"-"`
	StatusClearDelay    time.Duration `yaml:"-"`
	TabIdleTimeout      time.Duration `yaml:"-"`
	LogoutDelayRaw      string        `yaml:"logout_delay"`
	StatusClearDelayRaw string        `yaml:"status_clear_delay"`
	TabIdleTimeoutRaw   string        `yaml:"tab_idle_timeout"`
	MaxTabsPerClient    int           `yaml:"max_tabs_per_client"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Driver:          DriverSQLite,
			DSN:             "data/voteportal.db",
			PollIntervalRaw: "500ms",
		},
		Auth: AuthConfig{
			AdminUsername: "admin",
			AdminPassword: "admin123",
			TokenTTLRaw:   "12h",
		},
		Portal: PortalConfig{
			LogoutDelayRaw:      "3s",
			StatusClearDelayRaw: "3s",
			TabIdleTimeoutRaw:   "24h",
			MaxTabsPerClient:    32,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. ${VAR} references in the file are expanded. An
// empty path skips the file. Only storage and logging are validated here;
// the server calls Validate for the rest.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}
	if err := cfg.Storage.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if _, err := cfg.Logging.SlogLevel(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the variable's value, or nothing when
// it is unset.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"PORTAL_ADDR", &cfg.Server.Addr},
		{"STORAGE_DRIVER", &cfg.Storage.Driver},
		{"DATABASE_URL", &cfg.Storage.DSN},
		{"TOKEN_SECRET", &cfg.Auth.TokenSecret},
		{"ADMIN_PASSWORD_HASH", &cfg.Auth.AdminPasswordHash},
		{"LOG_LEVEL", &cfg.Logging.Level},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.target = v
		}
	}
}

func parseDurations(cfg *Config) error {
	fields := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"storage.poll_interval", cfg.Storage.PollIntervalRaw, &cfg.Storage.PollInterval},
		{"auth.token_ttl", cfg.Auth.TokenTTLRaw, &cfg.Auth.TokenTTL},
		{"portal.logout_delay", cfg.Portal.LogoutDelayRaw, &cfg.Portal.LogoutDelay},
		{"portal.status_clear_delay", cfg.Portal.StatusClearDelayRaw, &cfg.Portal.StatusClearDelay},
		{"portal.tab_idle_timeout", cfg.Portal.TabIdleTimeoutRaw, &cfg.Portal.TabIdleTimeout},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.target = d
	}
	return nil
}

func (s StorageConfig) Validate() error {
	switch s.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %q", s.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", s.Driver)
	}
	return nil
}

// Validate returns the first problem found.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required")
	}
	if c.Auth.AdminUsername == "" {
		return fmt.Errorf("auth.admin_username is required")
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("invalid logging.level %q: %w", l.Level, err)
	}
	return level, nil
}

// NewLogger builds the process logger described by the config.
func (l LoggingConfig) NewLogger() *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
