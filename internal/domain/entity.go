package domain

import "time"

// ItemRecord is the persisted form of an Item in the local snapshot cache.
type ItemRecord struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"` // smallest unit, stored as string to avoid precision loss
	Owner     string    `gorm:"index" json:"owner"`
	IsSold    bool      `json:"is_sold"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReceiptRecord journals one terminal operation, settled or failed.
type ReceiptRecord struct {
	OpID        string    `gorm:"primaryKey" json:"op_id"`
	Kind        string    `gorm:"index" json:"kind"`
	ItemID      uint64    `json:"item_id"`
	TxHash      string    `gorm:"index" json:"tx_hash"`
	Status      string    `json:"status"` // "confirmed", "rejected", "reverted", "timeout"
	BlockNumber uint64    `json:"block_number"`
	CreatedAt   time.Time `json:"created_at"`
}
