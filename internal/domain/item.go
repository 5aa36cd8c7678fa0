package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BaseUnitDecimals is the number of decimal places between the ledger's
// display unit and its smallest unit. All prices inside the engine are
// integers in the smallest unit.
const BaseUnitDecimals = 18

// Address is a ledger account address ("0x" + 40 hex characters).
type Address string

// ParseAddress validates and normalizes a ledger address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	for _, r := range s[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
	}
	return Address(strings.ToLower(s)), nil
}

// IsValidAddress reports whether s parses as a ledger address.
func IsValidAddress(s string) bool {
	_, err := ParseAddress(s)
	return err == nil
}

// Equal compares addresses case-insensitively.
func (a Address) Equal(b Address) bool {
	return strings.EqualFold(string(a), string(b))
}

// Short returns a truncated form for logs and display ("0x1234...abcd").
func (a Address) Short() string {
	s := string(a)
	if len(s) < 10 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

func (a Address) String() string { return string(a) }

// Item is one marketplace entity as reported by the ledger. The id is
// assigned at creation and stable for the entity's lifetime; Price is in the
// ledger's smallest unit and immutable after creation.
type Item struct {
	ID     uint64          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Owner  Address         `json:"owner"`
	IsSold bool            `json:"is_sold"`
}

// ParseAmount converts a user-entered decimal amount in the display unit
// (e.g. "0.01") into the ledger's smallest unit. The result must be a
// positive integer after shifting.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	shifted := d.Shift(BaseUnitDecimals)
	if !shifted.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	if !shifted.Equal(shifted.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, BaseUnitDecimals)
	}
	return shifted, nil
}

// FormatAmount renders a smallest-unit amount back into the display unit.
func FormatAmount(base decimal.Decimal) string {
	return base.Shift(-BaseUnitDecimals).String()
}
