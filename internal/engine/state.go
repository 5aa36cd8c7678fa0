package engine

import (
	"sync"

	"market_sync/internal/domain"
	"market_sync/internal/infra"
)

// Publisher owns the engine state and pushes a wholesale copy to every
// subscriber on each transition. Snapshots carry the sequence number of the
// fetch that produced them; a result older than the last published one is
// dropped so a slow fetch can never overwrite a newer view.
type Publisher struct {
	mu       sync.RWMutex
	state    domain.EngineState
	allSeq   uint64
	ownedSeq uint64
	subs     []func(domain.EngineState)
}

// NewPublisher creates an empty state publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe registers a callback invoked on every published state change.
// Callbacks run on the publishing goroutine and must not block.
func (p *Publisher) Subscribe(fn func(domain.EngineState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

// Current returns a copy of the engine state.
func (p *Publisher) Current() domain.EngineState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// SetSession binds or replaces the active session.
func (p *Publisher) SetSession(s *domain.Session) {
	p.mu.Lock()
	p.state.Session = s
	p.notifyLocked()
}

// SetBusy flips the global busy flag. Entering busy clears the previous
// error and warning so the presentation layer shows only current facts.
func (p *Publisher) SetBusy(busy bool) {
	p.mu.Lock()
	p.state.Busy = busy
	if busy {
		p.state.LastError = nil
		p.state.Warning = nil
	}
	infra.GlobalMetrics.SetBusy(busy)
	p.notifyLocked()
}

// SetError publishes a terminal error for the current intent.
func (p *Publisher) SetError(err error) {
	p.mu.Lock()
	p.state.LastError = err
	p.notifyLocked()
}

// SetWarning publishes a non-fatal warning (the operation itself succeeded).
func (p *Publisher) SetWarning(err error) {
	p.mu.Lock()
	p.state.Warning = err
	p.notifyLocked()
}

// PublishAll replaces the all-items snapshot if seq is newer than the last
// published one. Returns false when the result was stale and dropped.
func (p *Publisher) PublishAll(seq uint64, snap domain.Snapshot) bool {
	p.mu.Lock()
	if seq <= p.allSeq {
		p.mu.Unlock()
		infra.GlobalMetrics.RecordStaleDrop()
		return false
	}
	p.allSeq = seq
	p.state.AllItems = snap
	p.notifyLocked()
	return true
}

// PublishOwned replaces the owned-items snapshot under the same staleness
// rule as PublishAll.
func (p *Publisher) PublishOwned(seq uint64, snap domain.Snapshot) bool {
	p.mu.Lock()
	if seq <= p.ownedSeq {
		p.mu.Unlock()
		infra.GlobalMetrics.RecordStaleDrop()
		return false
	}
	p.ownedSeq = seq
	p.state.OwnedItems = snap
	p.notifyLocked()
	return true
}

// PublishBoth replaces both snapshots in one transition. Used by
// reconciliation, where the views must change together or not at all.
func (p *Publisher) PublishBoth(allSeq uint64, all domain.Snapshot, ownedSeq uint64, owned domain.Snapshot) bool {
	p.mu.Lock()
	if allSeq <= p.allSeq || ownedSeq <= p.ownedSeq {
		p.mu.Unlock()
		infra.GlobalMetrics.RecordStaleDrop()
		return false
	}
	p.allSeq = allSeq
	p.ownedSeq = ownedSeq
	p.state.AllItems = all
	p.state.OwnedItems = owned
	p.notifyLocked()
	return true
}

// notifyLocked snapshots state and subscribers, releases the lock, then
// notifies. Callers must hold p.mu.
func (p *Publisher) notifyLocked() {
	state := p.state
	subs := make([]func(domain.EngineState), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
