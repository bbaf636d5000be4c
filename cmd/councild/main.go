package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/amos-fernandes/lm-council/observability"
	"github.com/amos-fernandes/lm-council/orchestrator"
	"github.com/amos-fernandes/lm-council/server"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config JSON file (optional)")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		storePath  = flag.String("store", "", "Path to session storage file (overrides config)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	// Same bootstrap as the frontend dev setup expects: API keys come from
	// a .env file or the environment, never from the config file.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg := orchestrator.DefaultConfig()
	if *configFile != "" {
		loaded, err := orchestrator.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	cfg.Council.APIKey = os.Getenv("OPENROUTER_API_KEY")
	if cfg.Council.APIKey == "" {
		cfg.Council.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	serverCfg := server.DefaultConfig()
	if *addr != "" {
		serverCfg.Addr = *addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := observability.NewSlogObserver(logger)

	orch, err := orchestrator.New(ctx, &cfg, orchestrator.WithObserver(observer))
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(&serverCfg, orch.Store(), orch)

	logger.Info("councild listening", "addr", serverCfg.Addr, "models", len(cfg.Council.Models))

	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
