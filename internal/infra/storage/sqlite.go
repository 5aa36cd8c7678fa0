package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"market_sync/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the SQLite-backed snapshot cache and receipt journal.
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.ItemRecord{}, &domain.ReceiptRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "MarketSync", "data", "marketsync.db"), nil
}

// ======================================================================================
// Snapshot Cache
// ======================================================================================

// SaveItems replaces the cached snapshot wholesale. A half-written cache is
// never observable because the delete and inserts share one transaction.
func (s *Storage) SaveItems(items []domain.Item) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&domain.ItemRecord{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		records := make([]domain.ItemRecord, 0, len(items))
		now := time.Now()
		for _, it := range items {
			records = append(records, domain.ItemRecord{
				ID:        it.ID,
				Name:      it.Name,
				Price:     it.Price.String(),
				Owner:     string(it.Owner),
				IsSold:    it.IsSold,
				UpdatedAt: now,
			})
		}
		return tx.Create(&records).Error
	})
}

// LoadItems returns the cached snapshot in ascending id order.
func (s *Storage) LoadItems() ([]domain.Item, error) {
	var records []domain.ItemRecord
	if err := s.db.Order("id asc").Find(&records).Error; err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(records))
	for _, rec := range records {
		price, err := decimal.NewFromString(rec.Price)
		if err != nil {
			return nil, fmt.Errorf("corrupt cached price for item %d: %w", rec.ID, err)
		}
		items = append(items, domain.Item{
			ID:     rec.ID,
			Name:   rec.Name,
			Price:  price,
			Owner:  domain.Address(rec.Owner),
			IsSold: rec.IsSold,
		})
	}
	return items, nil
}

// ======================================================================================
// Receipt Journal
// ======================================================================================

// SaveReceipt journals one terminal operation.
func (s *Storage) SaveReceipt(rec *domain.ReceiptRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.db.Save(rec).Error
}

// Receipts returns the most recent journal entries, newest first.
func (s *Storage) Receipts(limit int) ([]domain.ReceiptRecord, error) {
	var records []domain.ReceiptRecord
	q := s.db.Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}
