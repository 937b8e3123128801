// Package trade holds the order-orchestration core: the translation of
// operator intents into exchange calls and of raw exchange responses
// into one consistent outcome. Nothing here retains state between
// commands; every decision starts from a fresh exchange read.
package trade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"perpbot/broker"
	"perpbot/journal"
	"perpbot/market"
	"perpbot/metrics"
	"perpbot/pkg/id"
	"perpbot/risk"
)

type Trader struct {
	broker  broker.Broker
	journal journal.Journal
	log     *slog.Logger
	offsets risk.Offsets
}

func New(b broker.Broker, j journal.Journal, log *slog.Logger, off risk.Offsets) *Trader {
	return &Trader{broker: b, journal: j, log: log, offsets: off}
}

// Price returns the last traded price for a symbol.
func (t *Trader) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	tick, err := t.broker.GetTicker(ctx, symbol)
	if err != nil {
		metrics.QuoteFailures.Inc()
		t.log.Error("price read failed", "symbol", symbol, "err", err)
		return decimal.Zero, fmt.Errorf("%w: %v", broker.ErrQuoteUnavailable, err)
	}
	t.log.Info("price read", "symbol", symbol, "price", tick.LastPrice)
	return tick.LastPrice, nil
}

// Balance returns the available wallet balance for a coin. Zero is a
// legitimate answer; only transport or decoding failures are errors.
func (t *Trader) Balance(ctx context.Context, coin string) (decimal.Decimal, error) {
	bal, err := t.broker.GetWalletBalance(ctx, coin)
	if err != nil {
		t.log.Error("balance read failed", "coin", coin, "err", err)
		return decimal.Zero, fmt.Errorf("%w: %v", broker.ErrBalanceUnavailable, err)
	}
	t.log.Info("balance read", "coin", coin, "balance", bal)
	return bal, nil
}

// OpenResult reports an accepted entry order.
type OpenResult struct {
	OrderID     string
	OrderLinkID string
	Price       decimal.Decimal
	Levels      risk.Levels
}

// Open reads a fresh quote, derives protective levels from it and
// submits exactly one market order. If the quote read fails, no order is
// submitted: protective levels computed from a stale or defaulted price
// would leave the position unprotected. Rejections are surfaced, never
// retried.
func (t *Trader) Open(ctx context.Context, side market.Side, symbol string, qty decimal.Decimal) (OpenResult, error) {
	tick, err := t.broker.GetTicker(ctx, symbol)
	if err != nil {
		metrics.QuoteFailures.Inc()
		t.log.Error("price read failed", "op", "open", "symbol", symbol, "err", err)
		return OpenResult{}, fmt.Errorf("%w: %v", broker.ErrQuoteUnavailable, err)
	}

	levels := risk.Compute(side, tick.LastPrice, t.offsets)
	if err := levels.Check(side, tick.LastPrice); err != nil {
		t.log.Error("protective levels invalid", "symbol", symbol, "side", side, "price", tick.LastPrice, "err", err)
		return OpenResult{}, fmt.Errorf("protective levels: %w", err)
	}

	linkID := id.New()
	req := broker.MarketOrderRequest{
		Symbol:      symbol,
		Side:        side,
		Qty:         qty,
		TakeProfit:  &levels.TakeProfit,
		StopLoss:    &levels.StopLoss,
		OrderLinkID: linkID,
	}

	rec := journal.Record{
		ID:         linkID,
		Time:       time.Now(),
		Command:    commandForSide(side),
		Symbol:     symbol,
		Side:       side.String(),
		Qty:        qty.String(),
		Price:      tick.LastPrice.String(),
		TakeProfit: levels.TakeProfit.String(),
		StopLoss:   levels.StopLoss.String(),
	}

	metrics.OrdersAttempted.Inc()
	fill, err := t.broker.PlaceOrder(ctx, req)
	if err != nil {
		rej := broker.AsRejected(err)
		metrics.OrdersRejected.Inc()
		t.record(rec, "rejected", rej.Reason)
		t.log.Error("open rejected", "side", side, "symbol", symbol, "qty", qty, "reason", rej.Reason)
		return OpenResult{}, rej
	}

	metrics.OrdersPlaced.Inc()
	t.record(rec, "submitted", fill.OrderID)
	t.log.Info("position opened", "side", side, "symbol", symbol, "qty", qty, "price", tick.LastPrice)

	return OpenResult{
		OrderID:     fill.OrderID,
		OrderLinkID: linkID,
		Price:       tick.LastPrice,
		Levels:      levels,
	}, nil
}

// CloseResult reports what Close did. NothingToClose is a valid outcome,
// distinct from both success and failure: the account was already flat
// and no order was submitted.
type CloseResult struct {
	NothingToClose bool
	Side           market.Side // side of the position that was closed
	Size           decimal.Decimal
	OrderID        string
}

// Close reads the current position and, if one is open, submits a single
// reduce-only market order on the opposite side for the entire size.
// No protective levels: the order already terminates exposure.
func (t *Trader) Close(ctx context.Context, symbol string) (CloseResult, error) {
	pos, err := t.Position(ctx, symbol)
	if err != nil {
		return CloseResult{}, err
	}

	if pos.Flat() {
		t.log.Info("no open position", "symbol", symbol)
		return CloseResult{NothingToClose: true}, nil
	}

	linkID := id.New()
	req := broker.MarketOrderRequest{
		Symbol:      symbol,
		Side:        pos.Side.Opposite(),
		Qty:         pos.Size,
		ReduceOnly:  true,
		OrderLinkID: linkID,
	}

	rec := journal.Record{
		ID:         linkID,
		Time:       time.Now(),
		Command:    "close",
		Symbol:     symbol,
		Side:       req.Side.String(),
		Qty:        pos.Size.String(),
		ReduceOnly: true,
	}

	metrics.OrdersAttempted.Inc()
	fill, err := t.broker.PlaceOrder(ctx, req)
	if err != nil {
		rej := broker.AsRejected(err)
		metrics.OrdersRejected.Inc()
		t.record(rec, "rejected", rej.Reason)
		t.log.Error("close rejected", "symbol", symbol, "qty", pos.Size, "reason", rej.Reason)
		return CloseResult{}, rej
	}

	metrics.OrdersPlaced.Inc()
	t.record(rec, "submitted", fill.OrderID)
	t.log.Info("position closed", "symbol", symbol, "side", pos.Side, "qty", pos.Size)

	return CloseResult{Side: pos.Side, Size: pos.Size, OrderID: fill.OrderID}, nil
}

// record writes a journal row. Journal trouble must not fail the
// command; the order already went out.
func (t *Trader) record(rec journal.Record, status, detail string) {
	rec.Status = status
	rec.Detail = detail
	if err := t.journal.Record(rec); err != nil {
		t.log.Warn("journal write failed", "id", rec.ID, "err", err)
	}
}

func commandForSide(side market.Side) string {
	if side == market.Buy {
		return "buy"
	}
	return "sell"
}
