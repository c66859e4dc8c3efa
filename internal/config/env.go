package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Env is the process configuration read from the environment.
type Env struct {
	ConfigPath     string   `env:"ARENA_CONFIG" envDefault:"./arena_config.json"`
	Database       string   `env:"ARENA_DB" envDefault:"./data/arena.db"`
	Address        string   `env:"ARENA_ADDR"`
	JWTSecret      string   `env:"ARENA_JWT_SECRET"`
	LogLevel       string   `env:"ARENA_LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"ARENA_ALLOWED_ORIGINS" envSeparator:","`
}

// LoadEnv loads the given .env files (".env" when none are named) without
// overriding variables already set, then parses the environment. Missing
// .env files are not an error.
func LoadEnv(files ...string) (Env, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Env{}, fmt.Errorf("load .env: %w", err)
	}
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// Apply overlays environment values that override the config file.
func (e Env) Apply(c *LoadedConfig) {
	if e.Address != "" {
		c.ServerAddress = e.Address
	}
}
