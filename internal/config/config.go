package config

import (
	"os"
	"strconv"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Addr          string
	DatabaseURL   string
	SecretKey     []byte
	RedisAddr     string
	RedisPassword string
	SessionMaxAge int
	TemplateDir   string
	StaticDir     string
	LogLevel      string
	Dev           bool
}

// LoadDotenv reads .env into the environment if the file exists.
func LoadDotenv(files ...string) error {
	err := godotenv.Load(files...)
	if err != nil && !os.IsNotExist(errors.Cause(err)) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

// Load reads the configuration from the environment. Malformed numbers are
// reported rather than replaced by their defaults.
func Load() (*Config, error) {
	maxAge, err := getenvInt("SESSION_MAX_AGE", 7*24*60*60)
	if err != nil {
		return nil, err
	}
	cfg := &Config{
		Addr:          getenv("ADDR", ":5000"),
		DatabaseURL:   getenv("DATABASE_URL", "blog.db"),
		SecretKey:     []byte(os.Getenv("SECRET_KEY")),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		SessionMaxAge: maxAge,
		TemplateDir:   getenv("TEMPLATE_DIR", "templates"),
		StaticDir:     getenv("STATIC_DIR", "static"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Dev:           getenv("DEV", "false") == "true",
	}
	if len(cfg.SecretKey) == 0 && cfg.Dev {
		cfg.SecretKey = securecookie.GenerateRandomKey(32)
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if len(c.SecretKey) == 0 {
		return errors.New("SECRET_KEY must be set (or DEV=true for a throwaway key)")
	}
	if c.SessionMaxAge <= 0 {
		return errors.Errorf("SESSION_MAX_AGE must be positive, got %d", c.SessionMaxAge)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}
