package engine

import (
	"context"
	"sync"

	"market_sync/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	ownerA = domain.Address("0xab5801a7d398351b8be11c439e05c5b3259aec9b")
	ownerB = domain.Address("0xcd5801a7d398351b8be11c439e05c5b3259aec00")
)

// mockGateway is an in-memory ledger. Items are keyed by id; owned views are
// derived from item owners in ascending id order.
type mockGateway struct {
	mu        sync.Mutex
	items     map[uint64]domain.Item
	listOwner domain.Address // owner assigned to newly listed items

	countErr  error
	itemErr   error
	itemErrID uint64 // fail GetItem only for this id (0 = every id)
	ownedErr  error
	submitErr error

	settleErr     *domain.SettlementError
	settleBlock   uint64
	settleRelease chan struct{} // when set, Await blocks until closed

	getItemCalls int
	submitCalls  int
	lastSubmit   string
}

func newMockGateway(items ...domain.Item) *mockGateway {
	g := &mockGateway{items: make(map[uint64]domain.Item), settleBlock: 1, listOwner: ownerA}
	for _, it := range items {
		g.items[it.ID] = it
	}
	return g
}

func (g *mockGateway) ItemCount(_ context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.countErr != nil {
		return 0, g.countErr
	}
	var max uint64
	for id := range g.items {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (g *mockGateway) GetItem(_ context.Context, id uint64) (domain.Item, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.getItemCalls++
	if g.itemErr != nil && (g.itemErrID == 0 || g.itemErrID == id) {
		return domain.Item{}, g.itemErr
	}
	item, ok := g.items[id]
	if !ok {
		return domain.Item{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (g *mockGateway) OwnedItemIDs(_ context.Context, owner domain.Address) ([]uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ownedErr != nil {
		return nil, g.ownedErr
	}
	var max uint64
	for id := range g.items {
		if id > max {
			max = id
		}
	}
	var ids []uint64
	for id := uint64(1); id <= max; id++ {
		if it, ok := g.items[id]; ok && it.Owner.Equal(owner) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (g *mockGateway) SubmitList(_ context.Context, name string, price decimal.Decimal) (domain.SettlementHandle, error) {
	return g.submit("list", func() {
		id := uint64(len(g.items) + 1)
		g.items[id] = domain.Item{ID: id, Name: name, Price: price, Owner: g.listOwner}
	})
}

func (g *mockGateway) SubmitBuy(_ context.Context, id uint64, _ decimal.Decimal) (domain.SettlementHandle, error) {
	return g.submit("buy", func() {
		it := g.items[id]
		it.IsSold = true
		g.items[id] = it
	})
}

func (g *mockGateway) SubmitTransfer(_ context.Context, id uint64, to domain.Address) (domain.SettlementHandle, error) {
	return g.submit("transfer", func() {
		it := g.items[id]
		it.Owner = to
		g.items[id] = it
	})
}

// submit records the call and returns a handle whose Await applies the state
// change on confirmation.
func (g *mockGateway) submit(kind string, apply func()) (domain.SettlementHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitCalls++
	g.lastSubmit = kind
	if g.submitErr != nil {
		return nil, g.submitErr
	}
	return &mockHandle{gw: g, apply: apply}, nil
}

func (g *mockGateway) submits() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitCalls
}

func (g *mockGateway) itemReads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.getItemCalls
}

type mockHandle struct {
	gw    *mockGateway
	apply func()
}

func (h *mockHandle) TxHash() string { return "0xmock" }

func (h *mockHandle) Await(ctx context.Context) (domain.Receipt, error) {
	h.gw.mu.Lock()
	release := h.gw.settleRelease
	settleErr := h.gw.settleErr
	block := h.gw.settleBlock
	h.gw.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.Receipt{}, &domain.SettlementError{Status: domain.SettlementTimeout, Err: ctx.Err()}
		}
	}

	if settleErr != nil {
		return domain.Receipt{}, settleErr
	}

	h.gw.mu.Lock()
	h.apply()
	h.gw.mu.Unlock()
	return domain.Receipt{TxHash: "0xmock", BlockNumber: block}, nil
}

// mockStore records persisted snapshots and receipts.
type mockStore struct {
	mu       sync.Mutex
	items    []domain.Item
	receipts []domain.ReceiptRecord
	saveErr  error
}

func (s *mockStore) SaveItems(items []domain.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.items = items
	return nil
}

func (s *mockStore) LoadItems() ([]domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items, nil
}

func (s *mockStore) SaveReceipt(rec *domain.ReceiptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.receipts = append(s.receipts, *rec)
	return nil
}

func (s *mockStore) Receipts(_ int) ([]domain.ReceiptRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipts, nil
}

func (s *mockStore) lastReceipt() (domain.ReceiptRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.receipts) == 0 {
		return domain.ReceiptRecord{}, false
	}
	return s.receipts[len(s.receipts)-1], true
}
