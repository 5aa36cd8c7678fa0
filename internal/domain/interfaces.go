package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway is the typed boundary to the external marketplace contract.
// Reads are idempotent; submits return a handle for awaiting settlement.
type Gateway interface {
	ItemCount(ctx context.Context) (uint64, error)
	GetItem(ctx context.Context, id uint64) (Item, error)
	OwnedItemIDs(ctx context.Context, owner Address) ([]uint64, error)

	SubmitList(ctx context.Context, name string, price decimal.Decimal) (SettlementHandle, error)
	SubmitBuy(ctx context.Context, id uint64, price decimal.Decimal) (SettlementHandle, error)
	SubmitTransfer(ctx context.Context, id uint64, to Address) (SettlementHandle, error)
}

// SettlementHandle tracks one submitted transaction until finality. Await
// suspends until the transaction is confirmed or fails; failures are always
// *SettlementError.
type SettlementHandle interface {
	TxHash() string
	Await(ctx context.Context) (Receipt, error)
}

// WalletProvider supplies the active account address. Submits are signed
// implicitly by the gateway's bound signer.
type WalletProvider interface {
	RequestAccount(ctx context.Context) (Address, error)
}

// SnapshotStore persists the last good view for an offline first paint, plus
// a journal of settled operations.
type SnapshotStore interface {
	SaveItems(items []Item) error
	LoadItems() ([]Item, error)
	SaveReceipt(rec *ReceiptRecord) error
	Receipts(limit int) ([]ReceiptRecord, error)
}
