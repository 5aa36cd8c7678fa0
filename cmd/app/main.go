package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"market_sync/internal/app"
	"market_sync/internal/domain"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	// Pprof server (localhost only)
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("pprof server failed", slog.Any("error", err))
		}
	}()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		slog.Error("bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Presentation boundary: log every published state transition.
	bootstrap.Publisher.Subscribe(func(state domain.EngineState) {
		attrs := []any{
			slog.Bool("busy", state.Busy),
			slog.Int("all_items", state.AllItems.Len()),
			slog.Int("owned_items", state.OwnedItems.Len()),
		}
		if state.Session != nil {
			attrs = append(attrs, slog.String("account", state.Session.Account.Short()))
		}
		if state.LastError != nil {
			attrs = append(attrs, slog.String("last_error", state.LastError.Error()))
		}
		if state.Warning != nil {
			attrs = append(attrs, slog.String("warning", state.Warning.Error()))
		}
		slog.Debug("engine state", attrs...)
	})

	// Offline first paint from the local cache.
	bootstrap.PrimeCache()

	if err := bootstrap.Watcher.Connect(ctx); err != nil {
		slog.Warn("head watcher unavailable, polling only", slog.Any("error", err))
	}
	defer bootstrap.Watcher.Disconnect()

	sess, err := bootstrap.Binder.Initialize(ctx)
	if err != nil {
		slog.Error("session initialization failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.InfoContext(ctx, "session ready", slog.String("account", sess.Account.Short()))

	// Background artwork mirror for the freshly fetched view.
	go bootstrap.SyncArtwork(ctx)

	slog.InfoContext(ctx, "market sync engine operational, press Ctrl+C to exit")

	<-ctx.Done()

	slog.InfoContext(ctx, "shutting down gracefully")
}
