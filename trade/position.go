package trade

import (
	"context"
	"fmt"

	"perpbot/broker"
	"perpbot/market"
)

// Position reads the current exposure on a symbol, normalized to the one
// canonical shape. Never cached: every close decision re-reads the venue.
func (t *Trader) Position(ctx context.Context, symbol string) (market.Position, error) {
	entries, err := t.broker.GetPositions(ctx, symbol)
	if err != nil {
		t.log.Error("position read failed", "symbol", symbol, "err", err)
		return market.Position{}, fmt.Errorf("%w: %v", broker.ErrPositionRead, err)
	}

	pos, err := normalizePosition(symbol, entries)
	if err != nil {
		t.log.Error("position normalize failed", "symbol", symbol, "err", err)
		return market.Position{}, fmt.Errorf("%w: %v", broker.ErrPositionRead, err)
	}
	return pos, nil
}

// normalizePosition folds the venue's inconsistent "no position" shapes
// (absent list entry, entry with size "0") into market.FlatPosition.
// The first entry matching the symbol wins; hedge-mode accounts with
// multiple legs per symbol are not modeled.
func normalizePosition(symbol string, entries []broker.PositionEntry) (market.Position, error) {
	for _, e := range entries {
		if e.Symbol != symbol {
			continue
		}
		if e.Size == "" || e.Size == "0" {
			return market.FlatPosition(symbol), nil
		}

		size, err := market.ParseQty(e.Size)
		if err != nil {
			return market.Position{}, err
		}
		if size.IsZero() {
			return market.FlatPosition(symbol), nil
		}

		side, err := market.ParseSide(e.Side)
		if err != nil {
			return market.Position{}, err
		}
		return market.Position{Symbol: symbol, Side: side, Size: size}, nil
	}
	return market.FlatPosition(symbol), nil
}
