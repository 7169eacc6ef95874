package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hray3182/ClassSync/internal/ai"
	"github.com/hray3182/ClassSync/internal/auth"
	"github.com/hray3182/ClassSync/internal/config"
	"github.com/hray3182/ClassSync/internal/database"
	"github.com/hray3182/ClassSync/internal/logger"
	"github.com/hray3182/ClassSync/internal/notify"
	"github.com/hray3182/ClassSync/internal/repository"
	"github.com/hray3182/ClassSync/internal/schedule"
	"github.com/hray3182/ClassSync/internal/scheduler"
	"github.com/hray3182/ClassSync/internal/session"
	"github.com/hray3182/ClassSync/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	catalog, err := config.LoadCatalog(cfg.CatalogFile)
	if err != nil {
		lg.Fatal("Failed to load catalog", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := schedule.Options{Catalog: catalog, Logger: lg}

	// Postgres when configured, otherwise everything lives in memory
	if cfg.DatabaseURI != "" {
		db, err := database.New(ctx, cfg.DatabaseURI, lg)
		if err != nil {
			lg.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			lg.Fatal("Failed to run migrations", zap.Error(err))
		}
		opts.Events = repository.NewEventRepository(db)
		opts.Occurrences = repository.NewOccurrenceRepository(db)
		opts.Users = repository.NewUserRepository(db)
	} else {
		lg.Warn("DATABASE_URI not set, events are kept in memory only")
		mem := repository.NewMemoryStore()
		opts.Events, opts.Occurrences, opts.Users = mem, mem, mem
	}

	registry := auth.NewRegistry(cfg, lg)
	if len(registry.Names()) == 0 {
		lg.Warn("no calendar provider configured, set GOOGLE_CLIENT_ID or OUTLOOK_CLIENT_ID")
	}
	opts.Providers = registry

	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, "", lg)
		if err != nil {
			lg.Error("Telegram notifier disabled", zap.Error(err))
		} else {
			opts.Notifier = tg
		}
	}

	var parser web.ClassParser
	if cfg.AIAPIKey != "" {
		parser = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		lg.Info("AI class parsing enabled", zap.String("model", cfg.AIModel))
	}

	sessions := session.NewManager()
	sched := scheduler.New(time.Minute, lg, scheduler.ExpireSessions(sessions, cfg.SessionIdle, lg))
	go sched.Start(ctx)

	srv := web.New(web.Options{
		Service:      schedule.NewService(opts),
		Sessions:     sessions,
		Auth:         registry,
		Parser:       parser,
		CookieSecure: cfg.CookieSecure,
		Logger:       lg,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("Starting HTTP server", zap.String("addr", cfg.ListenAddr), zap.Strings("providers", registry.Names()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("Shutting down...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		lg.Error("Graceful shutdown failed", zap.Error(err))
	}
}
