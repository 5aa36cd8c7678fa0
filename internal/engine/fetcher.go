package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"market_sync/internal/domain"
	"market_sync/internal/infra"
)

// Fetcher builds the two read-only views from the gateway. Each read pass is
// all-or-nothing: a single failed item read discards the whole pass so no
// partial snapshot is ever published.
type Fetcher struct {
	gw     domain.Gateway
	pub    *Publisher
	seq    atomic.Uint64
	logger *slog.Logger
}

// NewFetcher creates a fetcher publishing into pub.
func NewFetcher(gw domain.Gateway, pub *Publisher) *Fetcher {
	return &Fetcher{
		gw:     gw,
		pub:    pub,
		logger: slog.Default().With("module", "fetcher"),
	}
}

// NextSeq tags a fetch at initiation time. Publication order is decided by
// these tags, not by completion order.
func (f *Fetcher) NextSeq() uint64 {
	return f.seq.Add(1)
}

// FetchAll reads the item count and then every item 1..count in ascending id
// order. An empty marketplace yields an empty snapshot with no item reads.
func (f *Fetcher) FetchAll(ctx context.Context) (domain.Snapshot, error) {
	count, err := f.gw.ItemCount(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordFetchFailure()
		return domain.Snapshot{}, &domain.FetchError{View: "all", Err: err}
	}

	items := make([]domain.Item, 0, count)
	for id := uint64(1); id <= count; id++ {
		item, err := f.gw.GetItem(ctx, id)
		if err != nil {
			infra.GlobalMetrics.RecordFetchFailure()
			return domain.Snapshot{}, &domain.FetchError{View: "all", Err: err}
		}
		items = append(items, item)
	}

	infra.GlobalMetrics.RecordFetch()
	return domain.Snapshot{Items: items, FetchedAt: time.Now()}, nil
}

// FetchOwned reads the ids held by owner and resolves each, preserving the
// order the ledger reported.
func (f *Fetcher) FetchOwned(ctx context.Context, owner domain.Address) (domain.Snapshot, error) {
	ids, err := f.gw.OwnedItemIDs(ctx, owner)
	if err != nil {
		infra.GlobalMetrics.RecordFetchFailure()
		return domain.Snapshot{}, &domain.FetchError{View: "owned", Err: err}
	}

	items := make([]domain.Item, 0, len(ids))
	for _, id := range ids {
		item, err := f.gw.GetItem(ctx, id)
		if err != nil {
			infra.GlobalMetrics.RecordFetchFailure()
			return domain.Snapshot{}, &domain.FetchError{View: "owned", Err: err}
		}
		items = append(items, item)
	}

	infra.GlobalMetrics.RecordFetch()
	return domain.Snapshot{Items: items, FetchedAt: time.Now()}, nil
}

// RefreshAll runs a tagged all-items pass and publishes the result unless a
// newer one landed first. Safe to call concurrently; the failed case leaves
// the previously published snapshot untouched.
func (f *Fetcher) RefreshAll(ctx context.Context) error {
	seq := f.NextSeq()
	snap, err := f.FetchAll(ctx)
	if err != nil {
		f.logger.Warn("all-items refresh failed", "error", err)
		return err
	}
	if !f.pub.PublishAll(seq, snap) {
		f.logger.Debug("all-items refresh superseded", "seq", seq)
	}
	return nil
}

// RefreshOwned runs a tagged owned-items pass for owner and publishes it
// under the same staleness rule.
func (f *Fetcher) RefreshOwned(ctx context.Context, owner domain.Address) error {
	seq := f.NextSeq()
	snap, err := f.FetchOwned(ctx, owner)
	if err != nil {
		f.logger.Warn("owned-items refresh failed", "error", err)
		return err
	}
	if !f.pub.PublishOwned(seq, snap) {
		f.logger.Debug("owned-items refresh superseded", "seq", seq)
	}
	return nil
}
