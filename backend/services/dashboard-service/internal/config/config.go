package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	libconfig "tempdash/backend/libs/config"
	libdb "tempdash/backend/libs/db"
)

// Config defines dashboard service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"DASHBOARD_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		Driver         string `yaml:"driver" env:"DASHBOARD_DB_DRIVER"`
		DSN            string `yaml:"dsn" env:"DASHBOARD_DB_DSN"`
		EnsureSchema   bool   `yaml:"ensureSchema" env:"DASHBOARD_DB_ENSURE_SCHEMA"`
		BootstrapViews bool   `yaml:"bootstrapViews" env:"DASHBOARD_DB_BOOTSTRAP_VIEWS"`
	} `yaml:"database"`
	Source struct {
		Path      string            `yaml:"path" env:"DASHBOARD_SOURCE_PATH"`
		Delimiter string            `yaml:"delimiter" env:"DASHBOARD_SOURCE_DELIMITER"`
		Layouts   []string          `yaml:"layouts" env:"DASHBOARD_SOURCE_LAYOUTS"`
		Timezone  string            `yaml:"timezone" env:"DASHBOARD_SOURCE_TIMEZONE"`
		Renames   map[string]string `yaml:"renames" env:"-"`
	} `yaml:"source"`
	Sync struct {
		OnStartup bool          `yaml:"onStartup" env:"DASHBOARD_SYNC_ON_STARTUP"`
		Watch     bool          `yaml:"watch" env:"DASHBOARD_SYNC_WATCH"`
		Debounce  time.Duration `yaml:"debounce" env:"DASHBOARD_SYNC_DEBOUNCE"`
	} `yaml:"sync"`
	Redis struct {
		Addr     string        `yaml:"addr" env:"DASHBOARD_REDIS_ADDR"`
		Password string        `yaml:"password" env:"DASHBOARD_REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"DASHBOARD_REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"DASHBOARD_REDIS_TTL"`
	} `yaml:"redis"`
	Auth struct {
		Operator      string `yaml:"operator" env:"DASHBOARD_AUTH_OPERATOR"`
		PasswordHash  string `yaml:"passwordHash" env:"DASHBOARD_AUTH_PASSWORD_HASH"`
		JWTSecret     string `yaml:"jwtSecret" env:"DASHBOARD_AUTH_JWT_SECRET"`
		ExpiresInMins int    `yaml:"expiresInMinutes" env:"DASHBOARD_AUTH_JWT_EXPIRES_MINUTES"`
	} `yaml:"auth"`
}

// Load reads configuration from CONFIG_FILE and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path (if set) and the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Defaults()

	var err error
	if path != "" {
		err = libconfig.LoadConfigFile(path, cfg)
	} else {
		err = libconfig.LoadConfig(cfg)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns configuration before file and env overlays.
func Defaults() *Config {
	cfg := &Config{}
	cfg.HTTP.Port = "8085"
	cfg.Database.Driver = libdb.DriverPostgres
	cfg.Database.EnsureSchema = true
	cfg.Source.Path = "readings.csv"
	cfg.Source.Delimiter = ","
	cfg.Sync.OnStartup = true
	cfg.Sync.Watch = true
	cfg.Sync.Debounce = time.Second
	cfg.Redis.TTL = 5 * time.Minute
	cfg.Auth.ExpiresInMins = 60
	return cfg
}

// Validate checks required values and normalizes the rest.
func (c *Config) Validate() error {
	c.Database.Driver = libdb.NormalizeDriver(c.Database.Driver)
	if c.Database.Driver != libdb.DriverPostgres && c.Database.Driver != libdb.DriverSQLite {
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.Source.Path) == "" {
		return errors.New("config: source path required")
	}
	if utf8.RuneCountInString(c.Source.Delimiter) > 1 {
		return fmt.Errorf("config: delimiter %q must be a single character", c.Source.Delimiter)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config: timezone: %w", err)
	}
	if c.AuthEnabled() && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("config: jwt secret required when an operator is configured")
	}
	if c.AuthEnabled() && strings.TrimSpace(c.Auth.PasswordHash) == "" {
		return errors.New("config: auth.passwordHash required when an operator is configured")
	}
	if c.Auth.ExpiresInMins <= 0 {
		c.Auth.ExpiresInMins = 60
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8085"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// DelimiterRune returns the CSV delimiter, 0 meaning the default comma.
func (c *Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Source.Delimiter)
	if r == utf8.RuneError {
		return 0
	}
	return r
}

// Location returns the zone naive timestamps are read in.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Source.Timezone) == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Source.Timezone)
}

// AuthEnabled reports whether the sync endpoint requires a token.
func (c *Config) AuthEnabled() bool {
	return strings.TrimSpace(c.Auth.Operator) != ""
}

// JWTExpiration converts configured expiry to duration.
func (c *Config) JWTExpiration() time.Duration {
	if c.Auth.ExpiresInMins <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.ExpiresInMins) * time.Minute
}

// CacheEnabled reports whether a redis address is configured.
func (c *Config) CacheEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
