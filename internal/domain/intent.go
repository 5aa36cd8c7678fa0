package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// IntentKind identifies the three state-mutating operations.
type IntentKind string

const (
	IntentList     IntentKind = "list"
	IntentBuy      IntentKind = "buy"
	IntentTransfer IntentKind = "transfer"
)

// Intent describes one in-flight mutation. It exists only for the duration of
// a single submit-await-reconcile cycle and is never persisted.
type Intent struct {
	Kind   IntentKind
	OpID   string          // client-generated operation id, set by the submitter
	ItemID uint64          // buy, transfer
	Name   string          // list
	Price  decimal.Decimal // list: asking price; buy: last-known price (value attached)
	To     Address         // transfer
}

// Validate performs the syntactic checks that must pass before any gateway
// call is made. Failures are always *ValidationError.
func (in Intent) Validate() error {
	switch in.Kind {
	case IntentList:
		if in.Name == "" {
			return &ValidationError{Field: "name", Err: errors.New("name is required")}
		}
		if !in.Price.IsPositive() || !in.Price.Equal(in.Price.Truncate(0)) {
			return &ValidationError{Field: "price", Err: ErrInvalidAmount}
		}
	case IntentBuy:
		if in.ItemID == 0 {
			return &ValidationError{Field: "item_id", Err: errors.New("item id is required")}
		}
		if in.Price.IsNegative() || !in.Price.Equal(in.Price.Truncate(0)) {
			return &ValidationError{Field: "price", Err: ErrInvalidAmount}
		}
	case IntentTransfer:
		if in.ItemID == 0 {
			return &ValidationError{Field: "item_id", Err: errors.New("item id is required")}
		}
		if !IsValidAddress(string(in.To)) {
			return &ValidationError{Field: "to", Err: ErrInvalidAddress}
		}
	default:
		return &ValidationError{Field: "kind", Err: fmt.Errorf("unknown intent kind %q", in.Kind)}
	}
	return nil
}

// Receipt is the settlement proof for a confirmed transaction.
type Receipt struct {
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
