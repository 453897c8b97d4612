// Package config loads fixtures-ics settings from a YAML file and the environment.
//
// Environment variables override the file; unset values fall back to the
// defaults below. A missing file is created with those defaults on first run.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pfrederiksen/fixtures-ics/internal/logger"
	"github.com/pfrederiksen/fixtures-ics/internal/match"
	"gopkg.in/yaml.v3"
)

// Cache backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

type Config struct {
	Source    SourceConfig   `yaml:"source"`
	Cache     CacheConfig    `yaml:"cache"`
	SecretKey string         `yaml:"secret_key" env:"SECRET_KEY"`
	HTTP      HTTPConfig     `yaml:"http"`
	Calendar  CalendarConfig `yaml:"calendar"`
	Log       LogConfig      `yaml:"log"`
	Warm      WarmConfig     `yaml:"warm"`
}

type SourceConfig struct {
	BaseURL   string        `yaml:"base_url" env:"SOURCE_BASE_URL" env-default:"https://onefootball.com/en"`
	Timeout   time.Duration `yaml:"timeout" env:"SOURCE_TIMEOUT" env-default:"30s"`
	UserAgent string        `yaml:"user_agent" env:"SOURCE_USER_AGENT"`
}

type CacheConfig struct {
	Backend   string         `yaml:"backend" env:"CACHE_BACKEND" env-default:"memory"`
	Freshness time.Duration  `yaml:"freshness" env:"CACHE_FRESHNESS" env-default:"36h"`
	Dir       string         `yaml:"dir" env:"CACHE_DIR" env-default:"~/.local/share/fixtures-ics"`
	Redis     RedisConfig    `yaml:"redis"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB          int           `yaml:"db" env:"REDIS_DB"`
	Prefix      string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"fixtures:"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"10s"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn" env:"DB_DSN"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"require"`
}

// DatabaseURL returns DSN when set, otherwise a URL built from the parts
func (c PostgresConfig) DatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}

	q := u.Query()
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()

	return u.String()
}

type HTTPConfig struct {
	Listen string `yaml:"listen" env:"HTTP_LISTEN" env-default:":5000"`
}

type CalendarConfig struct {
	EventLength time.Duration `yaml:"event_length" env:"CALENDAR_EVENT_LENGTH" env-default:"120m"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type WarmConfig struct {
	// Schedule is a cron expression; empty disables warming
	Schedule string   `yaml:"schedule" env:"WARM_SCHEDULE"`
	Subjects []string `yaml:"subjects" env:"WARM_SUBJECTS" env-separator:","`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL: "https://onefootball.com/en",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:   BackendMemory,
			Freshness: 36 * time.Hour,
			Dir:       "~/.local/share/fixtures-ics",
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				Prefix:      "fixtures:",
				DialTimeout: 10 * time.Second,
			},
			Postgres: PostgresConfig{
				Port:    5432,
				SSLMode: "require",
			},
		},
		HTTP:     HTTPConfig{Listen: ":5000"},
		Calendar: CalendarConfig{EventLength: 120 * time.Minute},
		Log:      LogConfig{Level: "info"},
		Warm:     WarmConfig{Subjects: []string{}},
	}
}

// Load reads path and applies environment overrides.
// With an empty path only the environment is read. A path that does not
// exist is created with Default before reading.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		return &cfg, cfg.Validate()
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := Save(path, Default()); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return &cfg, cfg.Validate()
}

// Save writes cfg to path as YAML through a temp file and rename.
// The file is created 0600 since it may hold the secret key.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".fixtures-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Validate reports the first setting that cannot work
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Cache.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	case BackendPostgres:
		if c.Cache.Postgres.DSN == "" && c.Cache.Postgres.Host == "" {
			return errors.New("cache.postgres.dsn or cache.postgres.host is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q (want memory, redis, file or postgres)", c.Cache.Backend)
	}

	if c.Cache.Freshness <= 0 {
		return fmt.Errorf("cache.freshness must be positive, got %s", c.Cache.Freshness)
	}
	if c.Calendar.EventLength <= 0 {
		return fmt.Errorf("calendar.event_length must be positive, got %s", c.Calendar.EventLength)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive, got %s", c.Source.Timeout)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}

	if _, err := c.Warm.Targets(); err != nil {
		return err
	}
	return nil
}

// Targets parses the subjects to warm, written as "team/<id>" or "competition/<id>"
func (w WarmConfig) Targets() ([]match.Subject, error) {
	out := make([]match.Subject, 0, len(w.Subjects))
	for _, ref := range w.Subjects {
		s, err := match.ParseSubject(ref)
		if err != nil {
			return nil, fmt.Errorf("warm.subjects: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}
