package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/turngate/internal/channels/whatsapp"
	"github.com/nextlevelbuilder/turngate/internal/config"
	"github.com/nextlevelbuilder/turngate/internal/debounce"
	"github.com/nextlevelbuilder/turngate/internal/kv"
	"github.com/nextlevelbuilder/turngate/internal/reply"
	"github.com/nextlevelbuilder/turngate/internal/server"
	"github.com/nextlevelbuilder/turngate/internal/store/pg"
	"github.com/nextlevelbuilder/turngate/internal/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}

	// Coordination store: shared Redis for multi-worker deployments,
	// in-process fallback for standalone runs.
	var store kv.Store
	if cfg.Redis.URL != "" {
		store, err = kv.NewRedisStore(cfg.Redis.URL)
		if err != nil {
			slog.Error("redis store init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("using redis coordination store")
	} else {
		store = kv.NewMemoryStore()
		slog.Warn("no redis configured, using in-process store (single worker only)")
	}
	defer store.Close()

	// Conversation persistence is optional.
	var recorder debounce.TurnRecorder
	if cfg.Database.DSN != "" {
		stores, err := pg.NewPGStores(cfg.Database.DSN)
		if err != nil {
			slog.Error("postgres init failed", "error", err)
			os.Exit(1)
		}
		recorder = stores
		slog.Info("conversation persistence enabled")
	}

	var generator debounce.Generator
	switch cfg.Reply.Mode {
	case "openai":
		generator, err = reply.NewOpenAI(cfg.Reply)
		if err != nil {
			slog.Error("reply generator init failed", "error", err)
			os.Exit(1)
		}
	default:
		generator = reply.NewRules()
	}

	sender, err := whatsapp.NewSender(cfg.WhatsApp)
	if err != nil {
		slog.Error("whatsapp sender init failed", "error", err)
		os.Exit(1)
	}

	dispatcher := debounce.NewDispatcher(store, generator, sender, recorder, debounce.Options{
		Window:         cfg.Debounce.Window(),
		DedupRetention: cfg.Debounce.DedupRetention(),
		LockTTL:        cfg.Debounce.LockTTL(),
		TimerGrace:     cfg.Debounce.TimerGrace(),
		CheckEpsilon:   cfg.Debounce.CheckEpsilon(),
	})

	srv := server.NewServer(cfg.Server, cfg.WhatsApp.AppSecret, dispatcher, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown incomplete", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		slog.Warn("dispatcher shutdown incomplete", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown incomplete", "error", err)
	}
}
