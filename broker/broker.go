package broker

import (
	"context"

	"github.com/shopspring/decimal"

	"perpbot/market"
)

// Broker is the exchange boundary. Implementations own transport,
// authentication and response decoding; callers own interpretation.
type Broker interface {
	// GetTicker returns the last traded price for a symbol.
	GetTicker(ctx context.Context, symbol string) (Ticker, error)

	// GetWalletBalance returns the available balance for a coin.
	// A coin missing from the account is a genuine zero balance,
	// not an error.
	GetWalletBalance(ctx context.Context, coin string) (decimal.Decimal, error)

	// GetPositions returns the venue's raw position entries for a
	// symbol. The list may be empty, or carry an entry with size "0";
	// callers normalize both to flat.
	GetPositions(ctx context.Context, symbol string) ([]PositionEntry, error)

	// PlaceOrder submits exactly one market order. It is never retried
	// by callers: a resubmitted market order risks double execution.
	PlaceOrder(ctx context.Context, req MarketOrderRequest) (OrderFill, error)
}

// Ticker is a last-price quote at read time. Market orders may still
// slip relative to it.
type Ticker struct {
	Symbol    string
	LastPrice decimal.Decimal
}

// PositionEntry is the venue's wire shape for one position, before
// normalization. Size stays a string here so "0" vs absent is decided
// in one place.
type PositionEntry struct {
	Symbol string
	Side   string
	Size   string
}

// MarketOrderRequest describes a single market order. TakeProfit and
// StopLoss are nil for closing orders, which already terminate exposure.
type MarketOrderRequest struct {
	Symbol      string
	Side        market.Side
	Qty         decimal.Decimal
	TakeProfit  *decimal.Decimal
	StopLoss    *decimal.Decimal
	ReduceOnly  bool
	OrderLinkID string
}

// OrderFill is the venue's acknowledgement of an accepted order.
type OrderFill struct {
	OrderID     string
	OrderLinkID string
}
