package storage

import (
	"os"
	"testing"
	"time"

	"market_sync/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *Storage {
	dbName := "test.db"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(&domain.ItemRecord{}, &domain.ReceiptRecord{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	t.Cleanup(func() {
		os.Remove(dbName)
	})

	return &Storage{db: db}
}

func testItems() []domain.Item {
	return []domain.Item{
		{ID: 1, Name: "Sword", Price: decimal.New(1, 18), Owner: "0xab5801a7d398351b8be11c439e05c5b3259aec9b"},
		{ID: 2, Name: "Shield", Price: decimal.New(5, 17), Owner: "0xcd5801a7d398351b8be11c439e05c5b3259aec00", IsSold: true},
	}
}

func TestSaveAndLoadItems(t *testing.T) {
	s := setupTestDB(t)

	if err := s.SaveItems(testItems()); err != nil {
		t.Fatalf("SaveItems failed: %v", err)
	}

	items, err := s.LoadItems()
	if err != nil {
		t.Fatalf("LoadItems failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != 1 || items[1].ID != 2 {
		t.Errorf("items out of order: %v, %v", items[0].ID, items[1].ID)
	}
	if !items[0].Price.Equal(decimal.New(1, 18)) {
		t.Errorf("price round-trip failed: %s", items[0].Price)
	}
	if !items[1].IsSold {
		t.Error("expected second item to be sold")
	}
}

func TestSaveItems_ReplacesWholesale(t *testing.T) {
	s := setupTestDB(t)

	if err := s.SaveItems(testItems()); err != nil {
		t.Fatalf("first SaveItems failed: %v", err)
	}

	// A later snapshot with fewer items fully replaces the earlier one.
	replacement := []domain.Item{
		{ID: 7, Name: "Helm", Price: decimal.New(2, 18), Owner: "0xab5801a7d398351b8be11c439e05c5b3259aec9b"},
	}
	if err := s.SaveItems(replacement); err != nil {
		t.Fatalf("second SaveItems failed: %v", err)
	}

	items, err := s.LoadItems()
	if err != nil {
		t.Fatalf("LoadItems failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != 7 {
		t.Errorf("expected only the replacement item, got %v", items)
	}
}

func TestSaveItems_EmptySnapshotClearsCache(t *testing.T) {
	s := setupTestDB(t)

	s.SaveItems(testItems())
	if err := s.SaveItems(nil); err != nil {
		t.Fatalf("SaveItems with empty snapshot failed: %v", err)
	}

	items, err := s.LoadItems()
	if err != nil {
		t.Fatalf("LoadItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty cache, got %d items", len(items))
	}
}

func TestReceiptJournal(t *testing.T) {
	s := setupTestDB(t)

	first := &domain.ReceiptRecord{
		OpID:      "op-1",
		Kind:      "list",
		TxHash:    "0xaaa",
		Status:    "confirmed",
		CreatedAt: time.Now().Add(-time.Minute),
	}
	second := &domain.ReceiptRecord{
		OpID:   "op-2",
		Kind:   "buy",
		ItemID: 3,
		TxHash: "0xbbb",
		Status: "reverted",
	}

	if err := s.SaveReceipt(first); err != nil {
		t.Fatalf("SaveReceipt failed: %v", err)
	}
	if err := s.SaveReceipt(second); err != nil {
		t.Fatalf("SaveReceipt failed: %v", err)
	}

	recs, err := s.Receipts(10)
	if err != nil {
		t.Fatalf("Receipts failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 receipts, got %d", len(recs))
	}
	// Newest first.
	if recs[0].OpID != "op-2" {
		t.Errorf("expected op-2 first, got %s", recs[0].OpID)
	}
	if recs[1].Status != "confirmed" {
		t.Errorf("expected confirmed, got %s", recs[1].Status)
	}

	limited, err := s.Receipts(1)
	if err != nil {
		t.Fatalf("Receipts with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 receipt with limit, got %d", len(limited))
	}
}

func TestSaveReceipt_SetsCreatedAt(t *testing.T) {
	s := setupTestDB(t)

	rec := &domain.ReceiptRecord{OpID: "op-3", Kind: "transfer", TxHash: "0xccc", Status: "timeout"}
	if err := s.SaveReceipt(rec); err != nil {
		t.Fatalf("SaveReceipt failed: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be stamped")
	}
}
