package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/149189/NexTalk/internal/brain"
	"github.com/149189/NexTalk/internal/chat"
	"github.com/149189/NexTalk/internal/config"
	"github.com/149189/NexTalk/internal/httpapi"
	"github.com/149189/NexTalk/internal/memory"
	"github.com/149189/NexTalk/internal/observability"
	"github.com/149189/NexTalk/internal/session"
)

func main() {
	// Missing .env is fine: configuration comes from the environment.
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	sessionStore, err := session.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("session store init failed")
	}
	defer sessionStore.Close()

	memoryStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("memory store init failed")
	}
	defer memoryStore.Close()

	generator, err := brain.NewGenerator(brain.Config{
		Mode:         cfg.GeneratorMode,
		HTTPURL:      cfg.GeneratorHTTPURL,
		OpenAIAPIKey: cfg.OpenAIAPIKey,
		OpenAIModel:  cfg.OpenAIChatModel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generator init failed")
	}
	log.Info().Str("mode", cfg.GeneratorMode).Msg("generator ready")

	assembler := chat.NewAssembler(sessionStore, memoryStore, cfg.RecentTurnsWindow, cfg.TopKMemories)
	orchestrator := chat.NewOrchestrator(sessionStore, assembler, generator, cfg.GeneratorTimeout, metrics, log)

	api := httpapi.New(cfg, orchestrator, sessionStore, memoryStore, metrics, log)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}
