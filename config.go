package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gin-gonic/gin"
)

// Config is read from the environment (and .env in development).
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	Env            string        `env:"ENV" envDefault:"development"`
	GinMode        string        `env:"GIN_MODE"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RevealDelay    time.Duration `env:"REVEAL_DELAY" envDefault:"1s"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"2h"`
	SweepInterval  time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
	CookieMaxAge   time.Duration `env:"COOKIE_MAX_AGE" envDefault:"2h"`
	StaticCacheAge time.Duration `env:"STATIC_CACHE_AGE" envDefault:"5m"`
	RateLimitRPS   int           `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// loadConfig parses the process environment into a Config.
func loadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// loadConfigFrom parses the given variables instead of the process environment.
func loadConfigFrom(environ map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: environ})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the server runs in release mode.
func (c Config) IsProduction() bool {
	return c.GinMode == gin.ReleaseMode || c.Env == "production"
}

func (c Config) envName() string {
	if c.IsProduction() {
		return "production"
	}
	return "development"
}
