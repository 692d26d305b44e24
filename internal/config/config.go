package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR"      env-default:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	StoreBackend string `env:"STORE_BACKEND" env-default:"sqlite"`
	DBPath       string `env:"DB_PATH"       env-default:"/data/weddingdb.db"`
	DatabaseDSN  string `env:"DATABASE_DSN"`
	MaxConns     int32  `env:"DATABASE_MAX_CONNS" env-default:"10"`

	SuggestBackend string        `env:"SUGGEST_BACKEND" env-default:"claude"`
	SuggestTimeout time.Duration `env:"SUGGEST_TIMEOUT" env-default:"30s"`
	ClaudeAPIKey   string        `env:"CLAUDE_API_KEY"`
	ClaudeModel    string        `env:"CLAUDE_MODEL"    env-default:"claude-3-5-haiku-latest"`
	OllamaHost     string        `env:"OLLAMA_HOST"     env-default:"http://localhost:11434"`
	OllamaModel    string        `env:"OLLAMA_MODEL"    env-default:"llama3.2"`

	LogLevel  string `env:"LOG_LEVEL"  env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"json"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads an optional .env file, then the process environment, and
// validates the result. Environment variables win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate rejects unknown backends and missing credentials for the chosen ones.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH is required when STORE_BACKEND=sqlite")
		}
	case "postgres":
		if c.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.SuggestBackend {
	case "claude":
		if c.ClaudeAPIKey == "" {
			return errors.New("CLAUDE_API_KEY is required when SUGGEST_BACKEND=claude")
		}
	case "ollama", "none":
	default:
		return fmt.Errorf("unknown SUGGEST_BACKEND %q", c.SuggestBackend)
	}
	return nil
}
