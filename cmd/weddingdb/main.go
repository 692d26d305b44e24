package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/weddingdb/internal/config"
	"github.com/vbonduro/weddingdb/internal/db"
	"github.com/vbonduro/weddingdb/internal/logging"
	"github.com/vbonduro/weddingdb/internal/service"
	"github.com/vbonduro/weddingdb/internal/store"
	"github.com/vbonduro/weddingdb/internal/store/postgres"
	"github.com/vbonduro/weddingdb/internal/suggest"
	claudesuggest "github.com/vbonduro/weddingdb/internal/suggest/claude"
	ollamasuggest "github.com/vbonduro/weddingdb/internal/suggest/ollama"
	"github.com/vbonduro/weddingdb/internal/web"
	"github.com/vbonduro/weddingdb/internal/web/templates"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	guests, closeStore, err := newGuestStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	guestService := service.NewGuestService(guests, newSuggester(cfg, logger), service.NewNotifier(), cfg.SuggestTimeout, logger)
	server := web.NewServer(guestService, templates.FS, logger)

	if err := server.Run(ctx, cfg.ListenAddr, cfg.ShutdownTimeout); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newGuestStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.GuestRepository, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseDSN, cfg.MaxConns)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			logger.Error("failed to migrate postgres", "error", err)
			return nil, nil, err
		}
		logger.Info("using postgres guest store", "max_conns", cfg.MaxConns)
		return postgres.NewGuestStore(pool), pool.Close, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
			return nil, nil, err
		}
		logger.Info("using sqlite guest store", "path", cfg.DBPath)
		return store.NewGuestStore(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	}
}

func newSuggester(cfg *config.Config, logger *slog.Logger) suggest.Suggester {
	switch cfg.SuggestBackend {
	case "claude":
		logger.Info("using Claude suggestion backend", "model", cfg.ClaudeModel)
		return claudesuggest.NewClaudeSuggester(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "ollama":
		logger.Info("using Ollama suggestion backend", "model", cfg.OllamaModel)
		return ollamasuggest.NewOllamaSuggester(cfg.OllamaHost, cfg.OllamaModel)
	default:
		logger.Warn("suggestions disabled", "backend", cfg.SuggestBackend)
		return nil
	}
}
