package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"market_sync/internal/domain"
	"market_sync/internal/infra"
)

// Coordinator orchestrates the submit → await → refetch → publish cycle and
// owns the single busy flag. At most one intent is in flight end-to-end; the
// engine always returns to idle, success or failure, so the operator can
// retry.
type Coordinator struct {
	fetcher   *Fetcher
	submitter *Submitter
	pub       *Publisher
	store     domain.SnapshotStore // optional snapshot cache

	busy      atomic.Bool
	sessionMu sync.RWMutex
	session   *domain.Session

	logger *slog.Logger
}

// NewCoordinator wires the engine core. store may be nil to disable the
// local snapshot cache.
func NewCoordinator(fetcher *Fetcher, submitter *Submitter, pub *Publisher, store domain.SnapshotStore) *Coordinator {
	return &Coordinator{
		fetcher:   fetcher,
		submitter: submitter,
		pub:       pub,
		store:     store,
		logger:    slog.Default().With("module", "coordinator"),
	}
}

// Bind installs a session, replacing any previous one wholesale. A changed
// account is a new session, never a mutation of the old one.
func (c *Coordinator) Bind(session *domain.Session) {
	c.sessionMu.Lock()
	c.session = session
	c.sessionMu.Unlock()
	c.pub.SetSession(session)
	if session != nil {
		c.logger.Info("session bound", "account", session.Account.Short())
	}
}

// Session returns the currently bound session, if any.
func (c *Coordinator) Session() *domain.Session {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session
}

// Publisher exposes the state publisher for presentation subscribers.
func (c *Coordinator) Publisher() *Publisher {
	return c.pub
}

// Do runs one intent through the full cycle. A syntactically invalid intent
// is rejected before the busy flag is touched and before any gateway call.
// While another intent is in flight, Do fails immediately with
// domain.ErrBusy and performs no gateway call.
func (c *Coordinator) Do(ctx context.Context, intent domain.Intent) error {
	if err := intent.Validate(); err != nil {
		c.pub.SetError(err)
		return err
	}

	if !c.busy.CompareAndSwap(false, true) {
		infra.GlobalMetrics.RecordBusyRejection()
		return domain.ErrBusy
	}
	defer func() {
		// Idle publishes before the flag releases; a later intent's busy
		// publication can then never be overwritten by this cycle.
		c.pub.SetBusy(false)
		c.busy.Store(false)
	}()

	c.pub.SetBusy(true)

	receipt, err := c.submitter.Submit(ctx, intent)
	if err != nil {
		c.pub.SetError(err)
		return err
	}
	c.logger.Info("reconciling after settlement", "tx", receipt.TxHash)

	// The operation succeeded regardless of what happens below; a failed
	// refresh is a warning, not an operation failure.
	if err := c.reconcile(ctx); err != nil {
		c.pub.SetWarning(&domain.ReconciliationWarning{Err: err})
	}
	return nil
}

// Refresh re-runs both read passes outside an operation cycle (initial load,
// operator-triggered reload). Both snapshots publish together or not at all.
func (c *Coordinator) Refresh(ctx context.Context) error {
	return c.reconcile(ctx)
}

// RefreshAll refreshes only the all-items view. Concurrent calls may race;
// the publisher keeps the chronologically last result.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	return c.fetcher.RefreshAll(ctx)
}

// RefreshOwned refreshes only the owned-items view for the bound account.
func (c *Coordinator) RefreshOwned(ctx context.Context) error {
	session := c.Session()
	if session == nil {
		return domain.ErrNoSession
	}
	return c.fetcher.RefreshOwned(ctx, session.Account)
}

// reconcile fetches both views and publishes them atomically. If either
// fetch fails nothing is published and the prior snapshots are retained.
func (c *Coordinator) reconcile(ctx context.Context) error {
	allSeq := c.fetcher.NextSeq()
	all, err := c.fetcher.FetchAll(ctx)
	if err != nil {
		return err
	}

	ownedSeq := c.fetcher.NextSeq()
	owned := domain.Snapshot{FetchedAt: all.FetchedAt}
	if session := c.Session(); session != nil {
		owned, err = c.fetcher.FetchOwned(ctx, session.Account)
		if err != nil {
			return err
		}
	}

	if !c.pub.PublishBoth(allSeq, all, ownedSeq, owned) {
		return nil // a newer view already landed; nothing to persist
	}
	c.persist(all)
	return nil
}

// persist caches the published all-items snapshot, best effort.
func (c *Coordinator) persist(all domain.Snapshot) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveItems(all.Items); err != nil {
		c.logger.Warn("failed to cache snapshot", "error", err)
	}
}
