// config загружает конфигурацию клиента клиники и веб-фронта.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Способы хранения кэшированного профиля.
const (
	ProfileStoreFile   = "file"
	ProfileStoreRedis  = "redis"
	ProfileStoreMemory = "memory"
)

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	HTTP     HTTPConfig    `yaml:"http"`
	Web      WebConfig     `yaml:"web"`
	Session  SessionConfig `yaml:"session"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// APIConfig: origin бэкенда. Access-токен уходит только на этот origin.
type APIConfig struct {
	URL       string `yaml:"url"        env:"API_URL"        env-default:"http://localhost:3001"`
	UserAgent string `yaml:"user_agent" env:"API_USER_AGENT" env-default:"dental-clinic"`
}

// Origin возвращает scheme://host[:port] без пути и завершающего слэша.
func (a APIConfig) Origin() (string, error) {
	u, err := url.Parse(strings.TrimSpace(a.URL))
	if err != nil {
		return "", fmt.Errorf("invalid api url %q: %w", a.URL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid api url %q: scheme must be http or https", a.URL)
	}

	if u.Host == "" {
		return "", fmt.Errorf("invalid api url %q: empty host", a.URL)
	}

	return u.Scheme + "://" + u.Host, nil
}

// HTTPConfig: публичный сервер веб-фронта с гардом сессии.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"3000"`
}

func (h HTTPConfig) Addr() string { return net.JoinHostPort(h.Host, h.Port) }

// WebConfig описывает защищаемые страницы фронта.
type WebConfig struct {
	StaticDir   string   `yaml:"static_dir"   env:"WEB_STATIC_DIR"   env-default:"./web"`
	LoginPath   string   `yaml:"login_path"   env:"WEB_LOGIN_PATH"   env-default:"/login"`
	PublicPaths []string `yaml:"public_paths" env:"WEB_PUBLIC_PATHS" env-default:"/login,/register,/_next,/static,/favicon.ico"`
}

// SessionConfig: cookie сессии и долговременный кэш профиля.
type SessionConfig struct {
	CookieName      string `yaml:"cookie_name"      env:"SESSION_COOKIE_NAME"      env-default:"refresh_token"`
	ProfileStore    string `yaml:"profile_store"    env:"SESSION_PROFILE_STORE"    env-default:"file"`
	ProfilePath     string `yaml:"profile_path"     env:"SESSION_PROFILE_PATH"     env-default:".clinic/user.json"`
	JarPath         string `yaml:"jar_path"         env:"SESSION_JAR_PATH"         env-default:".clinic/cookies.json"`
	RedisURL        string `yaml:"redis_url"        env:"SESSION_REDIS_URL"`
	RedisPrefix     string `yaml:"redis_prefix"     env:"SESSION_REDIS_PREFIX"     env-default:"clinic:profile:"`
	CoalesceRefresh bool   `yaml:"coalesce_refresh" env:"SESSION_COALESCE_REFRESH" env-default:"false"`
}

// TimeoutConfig: таймауты исходящих вызовов.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"TIMEOUT_REQUEST" env-default:"15s"`
	Guard   time.Duration `yaml:"guard"   env:"TIMEOUT_GUARD"   env-default:"5s"`
}

// Validate проверяет значения, которые cleanenv не умеет проверить сам.
func (c *Config) Validate() error {
	if _, err := c.API.Origin(); err != nil {
		return err
	}

	switch c.Session.ProfileStore {
	case ProfileStoreFile, ProfileStoreMemory:
	case ProfileStoreRedis:
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required for profile_store=redis")
		}
	default:
		return fmt.Errorf("unknown session.profile_store %q", c.Session.ProfileStore)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name must not be empty")
	}

	if !strings.HasPrefix(c.Web.LoginPath, "/") {
		return fmt.Errorf("web.login_path must start with /")
	}

	return nil
}

// MustLoad: паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	finish := func() (*Config, error) {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}

		return &cfg, nil
	}

	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return finish()
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return finish()
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return finish()
}
