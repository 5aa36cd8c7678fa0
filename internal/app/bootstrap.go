package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"market_sync/internal/domain"
	"market_sync/internal/engine"
	"market_sync/internal/gateway"
	"market_sync/internal/infra"
	"market_sync/internal/infra/storage"
	"market_sync/internal/session"
	"market_sync/internal/wallet"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config      *infra.Config
	Storage     *storage.Storage
	Watcher     *gateway.Watcher
	Gateway     *gateway.Client
	Publisher   *engine.Publisher
	Fetcher     *engine.Fetcher
	Coordinator *engine.Coordinator
	Binder      *session.Binder
	Artwork     *infra.ArtworkMirror
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: config, logger, storage,
// gateway, engine and session binder, in that order.
func (b *Bootstrap) Initialize() error {
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // let main handle the error
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("bootstrapping market sync", "app", cfg.App.Name, "version", cfg.App.Version)

	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("snapshot cache initialized")

	b.Watcher = gateway.NewWatcher(cfg.Ledger.WSURL)
	b.Gateway = gateway.NewClient(cfg, b.Watcher)

	b.Publisher = engine.NewPublisher()
	b.Fetcher = engine.NewFetcher(b.Gateway, b.Publisher)
	submitter := engine.NewSubmitter(b.Gateway, store)
	b.Coordinator = engine.NewCoordinator(b.Fetcher, submitter, b.Publisher, store)

	var provider domain.WalletProvider
	if p := wallet.NewConfigProvider(cfg); p != nil {
		provider = p
	}
	b.Binder = session.NewBinder(provider, b.Coordinator)

	artwork, err := infra.NewArtworkMirror(cfg)
	if err != nil {
		return err
	}
	b.Artwork = artwork
	slog.Info("artwork mirror ready")

	return nil
}

// PrimeCache republishes the last cached snapshot so subscribers see a view
// before the first live fetch completes. The cached publish uses the first
// fetch sequence number, so any live result supersedes it.
func (b *Bootstrap) PrimeCache() {
	items, err := b.Storage.LoadItems()
	if err != nil {
		slog.Warn("failed to load cached snapshot", slog.Any("error", err))
		return
	}
	if len(items) == 0 {
		return
	}
	snap := domain.Snapshot{Items: items, FetchedAt: time.Now()}
	if b.Publisher.PublishAll(b.Fetcher.NextSeq(), snap) {
		slog.Info("cached snapshot published", slog.Int("items", len(items)))
	}
}

// SyncArtwork mirrors listing artwork for every item in the current
// all-items view, a few downloads at a time.
func (b *Bootstrap) SyncArtwork(ctx context.Context) {
	state := b.Publisher.Current()
	if state.AllItems.Len() == 0 {
		return
	}
	slog.Info("starting artwork sync", slog.Int("items", state.AllItems.Len()))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // limit concurrent downloads

	for _, item := range state.AllItems.Items {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // acquire
			}
			defer func() { <-semaphore }() // release

			if _, err := b.Artwork.Mirror(id); err != nil {
				slog.Warn("failed to mirror artwork", slog.Uint64("item", id), slog.Any("error", err))
			}
		}(item.ID)
	}

	wg.Wait()
	slog.Info("artwork sync completed")
}
