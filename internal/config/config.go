// Package config loads server configuration from an optional YAML file and
// the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix namespaces environment overrides: PORTFOLIO_DB_PATH -> db_path.
const EnvPrefix = "PORTFOLIO_"

type Config struct {
	Env  string `koanf:"env"`
	Port string `koanf:"port"`

	DBPath      string `koanf:"db_path"`
	ContentPath string `koanf:"content_path"`
	StaticDir   string `koanf:"static_dir"`
	ImagesDir   string `koanf:"images_dir"`
	// ResumePath overrides the résumé path from the content file.
	ResumePath string `koanf:"resume_path"`

	DefaultTheme string        `koanf:"default_theme"`
	RoleInterval time.Duration `koanf:"role_interval"`

	RelayURL     string        `koanf:"relay_url"`
	RelayTimeout time.Duration `koanf:"relay_timeout"`
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     string        `koanf:"smtp_port"`
	SMTPUser     string        `koanf:"smtp_user"`
	SMTPPass     string        `koanf:"smtp_pass"`
	SMTPTo       string        `koanf:"smtp_to"`

	AdminUsername string `koanf:"admin_username"`
	AdminPassword string `koanf:"admin_password"`

	SessionTTL       time.Duration `koanf:"session_ttl"`
	VisitorRetention time.Duration `koanf:"visitor_retention"`
	CleanupInterval  time.Duration `koanf:"cleanup_interval"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

func Default() *Config {
	return &Config{
		Env:              "dev",
		Port:             "8080",
		DBPath:           "data/portfolio.db",
		StaticDir:        "web/static",
		ImagesDir:        "images",
		DefaultTheme:     "light",
		RoleInterval:     2500 * time.Millisecond,
		RelayTimeout:     10 * time.Second,
		SMTPHost:         "smtp.gmail.com",
		SMTPPort:         "587",
		AdminUsername:    "admin",
		SessionTTL:       30 * time.Minute,
		VisitorRetention: 365 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Load starts from Default, overlays the YAML file at path when it exists,
// then the environment. Unprefixed PORT, TO_EMAIL, SMTP_* and ADMIN_*
// variables are honored below their PORTFOLIO_ counterparts; TO_EMAIL sits
// below SMTP_TO.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "reading config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "accessing config %s", path)
		}
	}

	if to := os.Getenv("TO_EMAIL"); to != "" {
		if err := k.Set("smtp_to", to); err != nil {
			return nil, errors.Wrap(err, "loading TO_EMAIL")
		}
	}
	for _, prefix := range []string{"SMTP_", "ADMIN_"} {
		if err := k.Load(env.Provider(prefix, ".", strings.ToLower), nil); err != nil {
			return nil, errors.Wrapf(err, "loading %s env", prefix)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		if err := k.Set("port", port); err != nil {
			return nil, errors.Wrap(err, "loading PORT")
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(err, "loading env overrides")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	cfg.Env = normalizeEnv(cfg.Env)
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("port is required")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path is required")
	}
	switch c.DefaultTheme {
	case "light", "dark":
	default:
		return errors.Errorf("invalid default_theme %q: must be light or dark", c.DefaultTheme)
	}
	if c.RoleInterval <= 0 {
		return errors.New("role_interval must be positive")
	}
	if c.SessionTTL <= 0 || c.CleanupInterval <= 0 {
		return errors.New("session_ttl and cleanup_interval must be positive")
	}
	if c.IsProduction() && c.AdminPassword == "" {
		return errors.New("admin_password is required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}
