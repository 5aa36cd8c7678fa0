package domain

import "errors"

// RecoverableError marks errors the operator can fix locally and retry
// without touching the ledger again.
type RecoverableError interface {
	error
	IsRecoverable() bool
}

// IsRecoverable checks whether an error can be retried by the operator.
func IsRecoverable(err error) bool {
	var re RecoverableError
	if errors.As(err, &re) {
		return re.IsRecoverable()
	}
	return false
}

// ValidationError rejects a malformed intent before any gateway call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) IsRecoverable() bool { return true }

func (e *ValidationError) Unwrap() error { return e.Err }

// GatewayError wraps a failed ledger read or submit.
type GatewayError struct {
	Op  string // gateway operation that failed (e.g. "getItem", "submitBuy")
	Err error
}

func (e *GatewayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error { return e.Err }

// FetchError means a read pass failed partway. The partial result is
// discarded and the previously published snapshot is retained.
type FetchError struct {
	View string // "all" or "owned"
	Err  error
}

func (e *FetchError) Error() string {
	return "fetch " + e.View + ": " + e.Err.Error()
}

func (e *FetchError) IsRecoverable() bool { return true }

func (e *FetchError) Unwrap() error { return e.Err }

// SettlementStatus classifies how an awaited transaction ended.
type SettlementStatus string

const (
	SettlementRejected SettlementStatus = "rejected"
	SettlementReverted SettlementStatus = "reverted"
	SettlementTimeout  SettlementStatus = "timeout"
)

// SettlementError is returned by SettlementHandle.Await when a transaction
// does not confirm.
type SettlementError struct {
	Status SettlementStatus
	TxHash string
	Err    error
}

func (e *SettlementError) Error() string {
	msg := "settlement " + string(e.Status)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SettlementError) Unwrap() error { return e.Err }

// OperationError is the terminal outcome of a failed submit-await cycle.
// It is never retried automatically.
type OperationError struct {
	Status SettlementStatus
	Err    error
}

func (e *OperationError) Error() string {
	return "operation " + string(e.Status) + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }

// SessionErrorKind classifies session initialization failures.
type SessionErrorKind string

const (
	SessionNoProvider SessionErrorKind = "no_provider"
	SessionRejected   SessionErrorKind = "rejected"
)

// SessionError is fatal to session start and only retried by explicit
// re-initialization.
type SessionError struct {
	Kind SessionErrorKind
	Err  error
}

func (e *SessionError) Error() string {
	msg := "session " + string(e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SessionError) IsRecoverable() bool { return false }

func (e *SessionError) Unwrap() error { return e.Err }

// ReconciliationWarning means the operation itself settled but the
// post-success refresh failed; ledger state did change.
type ReconciliationWarning struct {
	Err error
}

func (e *ReconciliationWarning) Error() string {
	return "reconciliation incomplete: " + e.Err.Error()
}

func (e *ReconciliationWarning) IsRecoverable() bool { return true }

func (e *ReconciliationWarning) Unwrap() error { return e.Err }

var (
	// ErrBusy is returned when an intent arrives while another is in flight.
	ErrBusy = errors.New("another operation is in flight")

	// ErrInvalidAddress is returned for malformed ledger addresses.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmount is returned for amounts that do not parse to a
	// positive integer in the smallest unit.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrStalePrice is returned when the ledger's current price for an item
	// no longer matches the price the intent was built with.
	ErrStalePrice = errors.New("stale price")

	// ErrItemNotFound is returned when the ledger has no item for an id.
	ErrItemNotFound = errors.New("item not found")

	// ErrNoSession is returned for operations that need a bound account.
	ErrNoSession = errors.New("no active session")
)
