package session

import (
	"context"
	"log/slog"
	"time"

	"market_sync/internal/domain"
	"market_sync/internal/engine"
)

// Binder establishes the active account and hands the session to the
// coordinator at startup. Identity comes from the wallet provider; the
// binder never caches credentials of its own.
type Binder struct {
	provider domain.WalletProvider
	coord    *engine.Coordinator
	logger   *slog.Logger
}

// NewBinder creates a binder. provider may be nil when no identity
// collaborator is wired; Initialize then fails with SessionNoProvider.
func NewBinder(provider domain.WalletProvider, coord *engine.Coordinator) *Binder {
	return &Binder{
		provider: provider,
		coord:    coord,
		logger:   slog.Default().With("module", "session"),
	}
}

// Initialize obtains the active account, binds the session and runs the
// initial read pass. A failed initial fetch does not tear the session down:
// it is published as the engine's last error so the operator can reload,
// matching how the client behaves on a flaky first load.
func (b *Binder) Initialize(ctx context.Context) (*domain.Session, error) {
	if b.provider == nil {
		err := &domain.SessionError{Kind: domain.SessionNoProvider}
		b.coord.Publisher().SetError(err)
		return nil, err
	}

	account, err := b.provider.RequestAccount(ctx)
	if err != nil {
		sessErr := &domain.SessionError{Kind: domain.SessionRejected, Err: err}
		b.coord.Publisher().SetError(sessErr)
		return nil, sessErr
	}

	session := &domain.Session{Account: account, BoundAt: time.Now()}
	b.coord.Bind(session)

	if err := b.coord.Refresh(ctx); err != nil {
		b.logger.Warn("initial fetch failed", "error", err)
		b.coord.Publisher().SetError(err)
	}

	return session, nil
}

// Rebind replaces the session wholesale and reruns the initial read pass.
// Used when the underlying account changes; there is no hot detection.
func (b *Binder) Rebind(ctx context.Context) (*domain.Session, error) {
	b.coord.Bind(nil)
	return b.Initialize(ctx)
}
