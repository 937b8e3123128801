package broker

import (
	"errors"
	"fmt"
)

// Sentinel errors for read failures. Callers wrap with %w so the command
// boundary can classify without string matching.
var (
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrBalanceUnavailable = errors.New("balance unavailable")
	ErrPositionRead       = errors.New("position read failed")
)

// RejectedError carries the venue's rejection reason for an order
// submission. The reason is logged, never shown to the operator.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("order rejected: %s", e.Reason)
}

// AsRejected extracts a RejectedError from an error chain, wrapping any
// other submission failure so callers see one rejection type. Transport
// failures and timeouts during submission are rejections too: once the
// request leaves, the order cannot be revoked, so there is no softer
// class to put them in.
func AsRejected(err error) *RejectedError {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej
	}
	return &RejectedError{Reason: err.Error()}
}
