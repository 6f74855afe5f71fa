package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zaviye/zaviye/internal/config"
	"github.com/zaviye/zaviye/internal/handler"
	"github.com/zaviye/zaviye/internal/logging"
	"github.com/zaviye/zaviye/internal/model/persona"
	"github.com/zaviye/zaviye/internal/service/ai"
	"github.com/zaviye/zaviye/internal/service/ratelimit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.Init(cfg.Log)
	if err != nil {
		log.Printf("warning: failed to open log file: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	limiter := ratelimit.New(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	go limiter.Run(ctx, cfg.RateLimit.Window, time.Now)

	// A nil generator leaves /api/gemini answering with a configuration error.
	var generator ai.Generator
	if cfg.AI.Enabled() {
		gen, err := ai.NewGenerator(ctx, cfg.AI)
		if err != nil {
			logger.Warn("ai_init_failed", "provider", cfg.AI.Provider, "error", err)
		} else {
			generator = gen
			logger.Info("ai_ready", "provider", cfg.AI.Provider)
		}
	} else {
		logger.Warn("ai_credentials_missing", "provider", cfg.AI.Provider)
	}

	router := handler.NewRouter(personaStore, generator, limiter, time.Now)

	startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *slog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("zaviye api listening", "addr", addr)
	if err := runServer(ctx, srv); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
