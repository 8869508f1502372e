package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, optionally seeded from a .env file.
type Config struct {
	// Port wins over ServerPort when both are set.
	Port       int    `env:"PORT"`
	ServerPort int    `env:"POKEDEX_PORT" envDefault:"8081"`
	Host       string `env:"POKEDEX_HOST"`

	ServiceBase     string        `env:"POKEDEX_SERVICE_BASE" envDefault:"https://webster.cs.washington.edu/pokedex/"`
	PokedexEndpoint string        `env:"POKEDEX_ENDPOINT" envDefault:"pokedex.php"`
	GameEndpoint    string        `env:"GAME_ENDPOINT" envDefault:"game.php"`
	ServiceTimeout  time.Duration `env:"SERVICE_TIMEOUT" envDefault:"0s"`

	ReportErrors   bool          `env:"REPORT_ERRORS"`
	GuardMoves     bool          `env:"GUARD_MOVES"`
	SpriteCacheTTL time.Duration `env:"SPRITE_CACHE_TTL" envDefault:"10m"`
	SessionIdle    time.Duration `env:"SESSION_IDLE" envDefault:"30m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads the given dotenv files (".env" when none are named) and then the
// environment. Missing dotenv files are not an error; variables already set
// in the environment are never overridden by them.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ServiceTimeout < 0 {
		return Config{}, fmt.Errorf("SERVICE_TIMEOUT must not be negative: %s", cfg.ServiceTimeout)
	}
	return cfg, nil
}

func (c Config) ListenPort() int {
	if c.Port != 0 {
		return c.Port
	}
	return c.ServerPort
}

func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.ListenPort()))
}
