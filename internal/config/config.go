package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	OIDC struct {
		Issuer       string
		ClientID     string
		ClientSecret string
		// RedirectURL is optional. When empty the callback URL is derived
		// from each request's own origin, so one config works across
		// deployment environments.
		RedirectURL string
	}
	Notifier struct {
		// Backend selects the change-notification broker: "memory" (default,
		// single process) or "redis" (multi-instance fan-out).
		Backend string
		Redis   struct {
			Addr     string
			Username string
			Password string
			DB       int
		}
	}
	Log struct {
		Level  string
		Pretty bool
	}
	SessionLifetime time.Duration
	InsecureCookies bool
}

// Load reads config from environment (MARKS_ prefix) and optional marks.yaml.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("marks")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("session.lifetime", "720h")
	v.SetDefault("notifier.backend", "memory")
	v.SetDefault("log.level", "info")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.OIDC.Issuer = v.GetString("oidc.issuer")
	cfg.OIDC.ClientID = v.GetString("oidc.client_id")
	cfg.OIDC.ClientSecret = v.GetString("oidc.client_secret")
	cfg.OIDC.RedirectURL = v.GetString("oidc.redirect_url")
	cfg.Notifier.Backend = v.GetString("notifier.backend")
	cfg.Notifier.Redis.Addr = v.GetString("notifier.redis.addr")
	cfg.Notifier.Redis.Username = v.GetString("notifier.redis.username")
	cfg.Notifier.Redis.Password = v.GetString("notifier.redis.password")
	cfg.Notifier.Redis.DB = v.GetInt("notifier.redis.db")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Pretty = v.GetBool("log.pretty")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")

	lifetime, err := time.ParseDuration(v.GetString("session.lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid MARKS_SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("MARKS_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("MARKS_DB_DSN is required")
	}
	if cfg.OIDC.Issuer == "" {
		return nil, fmt.Errorf("MARKS_OIDC_ISSUER is required")
	}
	if cfg.OIDC.ClientID == "" {
		return nil, fmt.Errorf("MARKS_OIDC_CLIENT_ID is required")
	}
	if cfg.OIDC.ClientSecret == "" {
		return nil, fmt.Errorf("MARKS_OIDC_CLIENT_SECRET is required")
	}
	switch cfg.Notifier.Backend {
	case "memory":
	case "redis":
		if cfg.Notifier.Redis.Addr == "" {
			return nil, fmt.Errorf("MARKS_NOTIFIER_REDIS_ADDR is required when notifier.backend is redis")
		}
	default:
		return nil, fmt.Errorf("unsupported notifier backend %q: must be memory or redis", cfg.Notifier.Backend)
	}

	return cfg, nil
}
