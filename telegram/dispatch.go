package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"perpbot/broker"
	"perpbot/journal"
	"perpbot/market"
	"perpbot/trade"
)

// API is the slice of the Bot API the dispatcher needs; Client satisfies
// it, tests substitute a fake.
type API interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Defaults are the per-command fallbacks from startup configuration.
type Defaults struct {
	Symbol      string
	Qty         decimal.Decimal
	BalanceCoin string
}

const (
	pollTimeoutSec = 30
	pollRetryDelay = 3 * time.Second
	logTailEntries = 10
)

// Operator-facing failure texts stay generic; detail goes to the log only.
const (
	replyDenied       = "Access denied."
	replyPriceFailed  = "Could not fetch the price."
	replyBalanceFail  = "Could not fetch the balance."
	replyOrderFailed  = "Order was not accepted."
	replyCloseFailed  = "Could not close the position."
	replyLogFailed    = "Could not read the journal."
	replyHelp         = "Commands: /price /balance /buy /sell /close /log"
)

// Bot receives updates one at a time and dispatches commands. The gate
// runs before every handler, diagnostic commands included.
type Bot struct {
	api      API
	gate     *trade.Gate
	trader   *trade.Trader
	journal  journal.Journal
	defaults Defaults
	log      *slog.Logger
}

func NewBot(api API, gate *trade.Gate, trader *trade.Trader, j journal.Journal, d Defaults, log *slog.Logger) *Bot {
	return &Bot{api: api, gate: gate, trader: trader, journal: j, defaults: d, log: log}
}

// Run long-polls until the context is cancelled. Updates are handled
// sequentially; a command's two exchange calls finish before the next
// command starts.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot started", "symbol", b.defaults.Symbol, "qty", b.defaults.Qty)

	var offset int64
	for {
		updates, err := b.api.GetUpdates(ctx, offset, pollTimeoutSec)
		if err != nil {
			if ctx.Err() != nil {
				b.log.Info("bot stopped")
				return nil
			}
			b.log.Error("poll failed", "err", err)
			select {
			case <-time.After(pollRetryDelay):
			case <-ctx.Done():
				b.log.Info("bot stopped")
				return nil
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			if u.Message == nil || u.Message.From == nil {
				continue
			}

			reply := b.Handle(ctx, strconv.FormatInt(u.Message.From.ID, 10), u.Message.Text)
			if reply == "" {
				continue
			}
			if err := b.api.SendMessage(ctx, u.Message.Chat.ID, reply); err != nil {
				b.log.Error("send reply failed", "chat", u.Message.Chat.ID, "err", err)
			}
		}
	}
}

// Handle authorizes the sender and runs one command, returning the reply
// text. Kept free of transport concerns so it is directly testable.
func (b *Bot) Handle(ctx context.Context, senderID, text string) string {
	if !b.gate.Authorize(senderID) {
		return replyDenied
	}

	switch parseCommand(text) {
	case "price", "test":
		return b.handlePrice(ctx)
	case "balance":
		return b.handleBalance(ctx)
	case "buy":
		return b.handleOpen(ctx, market.Buy)
	case "sell":
		return b.handleOpen(ctx, market.Sell)
	case "close":
		return b.handleClose(ctx)
	case "log":
		return b.handleLog()
	default:
		return replyHelp
	}
}

func (b *Bot) handlePrice(ctx context.Context) string {
	price, err := b.trader.Price(ctx, b.defaults.Symbol)
	if err != nil {
		return replyPriceFailed
	}
	return fmt.Sprintf("%s price: %s", b.defaults.Symbol, price)
}

func (b *Bot) handleBalance(ctx context.Context) string {
	bal, err := b.trader.Balance(ctx, b.defaults.BalanceCoin)
	if err != nil {
		return replyBalanceFail
	}
	return fmt.Sprintf("%s balance: %s", b.defaults.BalanceCoin, bal)
}

func (b *Bot) handleOpen(ctx context.Context, side market.Side) string {
	res, err := b.trader.Open(ctx, side, b.defaults.Symbol, b.defaults.Qty)
	if err != nil {
		if errors.Is(err, broker.ErrQuoteUnavailable) {
			return replyPriceFailed
		}
		return replyOrderFailed
	}

	direction := "long"
	if side == market.Sell {
		direction = "short"
	}
	return fmt.Sprintf("Opened %s %s %s at %s (TP %s, SL %s)",
		direction, b.defaults.Qty, b.defaults.Symbol,
		res.Price, res.Levels.TakeProfit, res.Levels.StopLoss)
}

func (b *Bot) handleClose(ctx context.Context) string {
	res, err := b.trader.Close(ctx, b.defaults.Symbol)
	if err != nil {
		return replyCloseFailed
	}
	if res.NothingToClose {
		return fmt.Sprintf("No open position on %s.", b.defaults.Symbol)
	}
	return fmt.Sprintf("Closed %s %s %s", res.Side, res.Size, b.defaults.Symbol)
}

func (b *Bot) handleLog() string {
	recs, err := b.journal.Recent(logTailEntries)
	if err != nil {
		b.log.Error("journal read failed", "err", err)
		return replyLogFailed
	}
	if len(recs) == 0 {
		return "No orders recorded yet."
	}

	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, journal.Format(r))
	}
	return strings.Join(lines, "\n")
}

// parseCommand extracts the command word from a message: leading slash
// and "@BotName" suffix stripped, arguments ignored.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}
