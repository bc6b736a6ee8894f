package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/bookplay/internal/api"
	"github.com/dgallion1/bookplay/internal/chat"
	"github.com/dgallion1/bookplay/internal/config"
	"github.com/dgallion1/bookplay/internal/game"
	"github.com/dgallion1/bookplay/internal/library"
	"github.com/dgallion1/bookplay/internal/llm"
	"github.com/dgallion1/bookplay/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Document library.
	repo, err := library.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Error("open library", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	if cfg.SeedSamples {
		n, err := library.SeedSamples(ctx, repo, cfg.ChapterMaxChars)
		if err != nil {
			log.Error("seed samples", "error", err)
			os.Exit(1)
		}
		if n > 0 {
			log.Info("seeded sample books", "count", n)
		}
	}

	// Model client.
	stats := llm.NewLLMStats(time.Hour)
	model := llm.NewClient(llm.Config{
		BaseURL:       cfg.LLMBaseURL,
		APIKey:        cfg.LLMAPIKey,
		Model:         cfg.LLMModel,
		Timeout:       cfg.LLMTimeout,
		MaxConcurrent: cfg.LLMMaxConcurrent,
	}, stats, log)

	games := game.NewService(model, log)
	chats := chat.NewService(model, repo, chat.Options{
		MaxContextChars: cfg.ContextMaxChars,
		HistoryTurns:    cfg.HistoryTurns,
	}, log)

	// Ingest pipeline.
	orch := pipeline.NewOrchestrator(cfg, repo, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, repo, games, chats, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		repo.Close()
	}()

	log.Info("starting bookplay", "port", cfg.Port, "model", cfg.LLMModel, "db", cfg.DBPath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
