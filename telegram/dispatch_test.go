package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"perpbot/broker"
	"perpbot/journal"
	"perpbot/market"
	"perpbot/risk"
	"perpbot/trade"
)

const allowedID = "123456789"

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeBroker struct {
	ticker    broker.Ticker
	tickerErr error
	balance   decimal.Decimal
	positions []broker.PositionEntry
	placeErr  error
	fill      broker.OrderFill
	calls     int
	placed    []broker.MarketOrderRequest
}

func (f *fakeBroker) GetTicker(ctx context.Context, symbol string) (broker.Ticker, error) {
	f.calls++
	if f.tickerErr != nil {
		return broker.Ticker{}, f.tickerErr
	}
	return f.ticker, nil
}

func (f *fakeBroker) GetWalletBalance(ctx context.Context, coin string) (decimal.Decimal, error) {
	f.calls++
	return f.balance, nil
}

func (f *fakeBroker) GetPositions(ctx context.Context, symbol string) ([]broker.PositionEntry, error) {
	f.calls++
	return f.positions, nil
}

func (f *fakeBroker) PlaceOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.OrderFill, error) {
	f.calls++
	f.placed = append(f.placed, req)
	if f.placeErr != nil {
		return broker.OrderFill{}, f.placeErr
	}
	return f.fill, nil
}

type memJournal struct {
	recs []journal.Record
	err  error
}

func (m *memJournal) Record(r journal.Record) error { m.recs = append(m.recs, r); return nil }
func (m *memJournal) Recent(n int) ([]journal.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.recs) {
		n = len(m.recs)
	}
	return m.recs[:n], nil
}
func (m *memJournal) Close() error { return nil }

func newTestBot(b *fakeBroker, j journal.Journal) *Bot {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	off := risk.Offsets{TakeProfit: dec("20"), StopLoss: dec("10")}
	tr := trade.New(b, j, log, off)
	gate := trade.NewGate(allowedID, log)
	d := Defaults{Symbol: "BTCUSDT", Qty: dec("0.01"), BalanceCoin: "USDT"}
	return NewBot(nil, gate, tr, j, d, log)
}

func TestUnauthorizedSenderNoExchangeCalls(t *testing.T) {
	t.Parallel()

	for _, cmd := range []string{"/price", "/balance", "/buy", "/sell", "/close", "/log", "/test"} {
		cmd := cmd
		t.Run(cmd, func(t *testing.T) {
			t.Parallel()
			b := &fakeBroker{}
			bot := newTestBot(b, &memJournal{})

			reply := bot.Handle(context.Background(), "999", cmd)
			assert.Equal(t, replyDenied, reply)
			assert.Zero(t, b.calls, "gate must run before any exchange call")
		})
	}
}

func TestPriceCommand(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{ticker: broker.Ticker{Symbol: "BTCUSDT", LastPrice: dec("50000")}}
	bot := newTestBot(b, &memJournal{})

	reply := bot.Handle(context.Background(), allowedID, "/price")
	assert.Equal(t, "BTCUSDT price: 50000", reply)
}

func TestTestCommandAliasesPrice(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{ticker: broker.Ticker{Symbol: "BTCUSDT", LastPrice: dec("50000")}}
	bot := newTestBot(b, &memJournal{})

	assert.Equal(t, "BTCUSDT price: 50000", bot.Handle(context.Background(), allowedID, "/test"))
}

func TestPriceFailureGenericReply(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{tickerErr: errors.New("upstream 502 with gory details")}
	bot := newTestBot(b, &memJournal{})

	reply := bot.Handle(context.Background(), allowedID, "/price")
	assert.Equal(t, replyPriceFailed, reply)
	assert.NotContains(t, reply, "502", "raw exchange errors never reach the operator")
}

func TestBalanceCommand(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{balance: dec("1234.56")}
	bot := newTestBot(b, &memJournal{})

	assert.Equal(t, "USDT balance: 1234.56", bot.Handle(context.Background(), allowedID, "/balance"))
}

func TestBuyCommandSubmitsOrder(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{
		ticker: broker.Ticker{Symbol: "BTCUSDT", LastPrice: dec("50000")},
		fill:   broker.OrderFill{OrderID: "order-1"},
	}
	bot := newTestBot(b, &memJournal{})

	reply := bot.Handle(context.Background(), allowedID, "/buy")
	assert.Contains(t, reply, "Opened long 0.01 BTCUSDT at 50000")
	assert.Contains(t, reply, "TP 50020")
	assert.Contains(t, reply, "SL 49990")

	assert.Len(t, b.placed, 1)
	assert.Equal(t, market.Buy, b.placed[0].Side)
}

func TestSellCommandSubmitsOrder(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{
		ticker: broker.Ticker{Symbol: "BTCUSDT", LastPrice: dec("50000")},
		fill:   broker.OrderFill{OrderID: "order-2"},
	}
	bot := newTestBot(b, &memJournal{})

	reply := bot.Handle(context.Background(), allowedID, "/sell")
	assert.Contains(t, reply, "Opened short 0.01 BTCUSDT at 50000")
	assert.Len(t, b.placed, 1)
	assert.Equal(t, market.Sell, b.placed[0].Side)
}

func TestOrderRejectionGenericReply(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{
		ticker:   broker.Ticker{Symbol: "BTCUSDT", LastPrice: dec("50000")},
		placeErr: &broker.RejectedError{Reason: "110007 insufficient balance"},
	}
	bot := newTestBot(b, &memJournal{})

	reply := bot.Handle(context.Background(), allowedID, "/buy")
	assert.Equal(t, replyOrderFailed, reply)
	assert.NotContains(t, reply, "110007")
}

func TestCloseCommandNothingToClose(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{}
	bot := newTestBot(b, &memJournal{})

	reply := bot.Handle(context.Background(), allowedID, "/close")
	assert.Equal(t, "No open position on BTCUSDT.", reply)
	assert.Empty(t, b.placed)
}

func TestCloseCommandClosesLong(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{
		positions: []broker.PositionEntry{{Symbol: "BTCUSDT", Side: "Buy", Size: "0.01"}},
		fill:      broker.OrderFill{OrderID: "order-3"},
	}
	bot := newTestBot(b, &memJournal{})

	reply := bot.Handle(context.Background(), allowedID, "/close")
	assert.Equal(t, "Closed Buy 0.01 BTCUSDT", reply)
	assert.Len(t, b.placed, 1)
	assert.True(t, b.placed[0].ReduceOnly)
}

func TestLogCommand(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{
		ticker: broker.Ticker{Symbol: "BTCUSDT", LastPrice: dec("50000")},
		fill:   broker.OrderFill{OrderID: "order-1"},
	}
	j := &memJournal{}
	bot := newTestBot(b, j)

	bot.Handle(context.Background(), allowedID, "/buy")
	reply := bot.Handle(context.Background(), allowedID, "/log")
	assert.Contains(t, reply, "Buy 0.01 BTCUSDT")
}

func TestLogCommandEmpty(t *testing.T) {
	t.Parallel()

	bot := newTestBot(&fakeBroker{}, &memJournal{})
	assert.Equal(t, "No orders recorded yet.", bot.Handle(context.Background(), allowedID, "/log"))
}

func TestUnknownCommandHelp(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{}
	bot := newTestBot(b, &memJournal{})

	for _, text := range []string{"/start", "hello there", "/yolo", ""} {
		assert.Equal(t, replyHelp, bot.Handle(context.Background(), allowedID, text))
	}
	assert.Zero(t, b.calls)
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/price", "price"},
		{"/price@PerpBot", "price"},
		{"price", "price"},
		{"/BUY", "buy"},
		{"/close extra args", "close"},
		{"  /balance  ", "balance"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCommand(tt.in), "input %q", tt.in)
	}
}

// fakeAPI serves queued updates, then cancels the poll context so Run
// exits the way a shutdown signal would end it.
type fakeAPI struct {
	updates [][]Update
	cancel  context.CancelFunc
	sent    []string
}

func (f *fakeAPI) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	if len(f.updates) == 0 {
		f.cancel()
		return nil, ctx.Err()
	}
	batch := f.updates[0]
	f.updates = f.updates[1:]
	return batch, nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func TestRunDispatchesAndStops(t *testing.T) {
	t.Parallel()

	b := &fakeBroker{ticker: broker.Ticker{Symbol: "BTCUSDT", LastPrice: dec("50000")}}
	bot := newTestBot(b, &memJournal{})

	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{
		cancel: cancel,
		updates: [][]Update{{
			{UpdateID: 7, Message: &Message{From: &User{ID: 123456789}, Chat: Chat{ID: 42}, Text: "/price"}},
			{UpdateID: 8, Message: &Message{From: &User{ID: 999}, Chat: Chat{ID: 43}, Text: "/price"}},
		}},
	}
	bot.api = api

	assert.NoError(t, bot.Run(ctx))
	assert.Equal(t, []string{"BTCUSDT price: 50000", replyDenied}, api.sent)
}
