package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side is an order/position direction using the venue's string values.
// Keep it a closed enum so close-side derivation never touches raw strings.
type Side string

const (
	Buy  Side = "Buy"
	Sell Side = "Sell"
)

// ParseSide converts a venue string into a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "Buy":
		return Buy, nil
	case "Sell":
		return Sell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Opposite returns the side that closes a position held on s.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string { return string(s) }

// Position is the one shape callers ever see for account exposure on a
// symbol. The venue reports "no position" inconsistently (absent list
// entry vs. an entry with size "0"); both normalize to Flat here.
type Position struct {
	Symbol string
	Side   Side
	Size   decimal.Decimal
}

// Flat reports whether there is no exposure on the symbol.
func (p Position) Flat() bool {
	return p.Size.IsZero()
}

// FlatPosition is the canonical empty position for a symbol.
func FlatPosition(symbol string) Position {
	return Position{Symbol: symbol, Size: decimal.Zero}
}

// ParseQty parses a venue quantity string, rejecting negatives.
func ParseQty(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse qty %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative qty %q", s)
	}
	return d, nil
}

// ParsePrice parses a venue price string, rejecting non-positive values.
// A zero price is never a valid quote and must not silently propagate
// into protective-level math.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive price %q", s)
	}
	return d, nil
}
