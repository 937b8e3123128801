package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"perpbot/market"
)

// Offsets are fixed absolute distances from the entry price.
// Percentage or volatility-based offsets belong in configuration,
// not here.
type Offsets struct {
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

// Validate rejects offsets that could not produce valid protective levels.
func (o Offsets) Validate() error {
	if !o.TakeProfit.IsPositive() {
		return fmt.Errorf("take-profit offset must be positive, got %s", o.TakeProfit)
	}
	if !o.StopLoss.IsPositive() {
		return fmt.Errorf("stop-loss offset must be positive, got %s", o.StopLoss)
	}
	return nil
}

// Levels are the protective prices attached to an entry order.
type Levels struct {
	TakeProfit decimal.Decimal
	StopLoss   decimal.Decimal
}

// Compute derives protective levels from the entry price for the given side.
//
// Long:  takeProfit = entry + TP offset, stopLoss = entry - SL offset.
// Short: takeProfit = entry - TP offset, stopLoss = entry + SL offset.
func Compute(side market.Side, entry decimal.Decimal, off Offsets) Levels {
	if side == market.Buy {
		return Levels{
			TakeProfit: entry.Add(off.TakeProfit),
			StopLoss:   entry.Sub(off.StopLoss),
		}
	}
	return Levels{
		TakeProfit: entry.Sub(off.TakeProfit),
		StopLoss:   entry.Add(off.StopLoss),
	}
}

// Check verifies the level ordering invariant against the entry price:
// long wants TP > entry > SL, short wants SL > entry > TP. A violation
// means the offsets exceed the price itself or the caller mixed up sides;
// either way the order must not be submitted.
func (l Levels) Check(side market.Side, entry decimal.Decimal) error {
	if side == market.Buy {
		if !l.TakeProfit.GreaterThan(entry) {
			return fmt.Errorf("long take-profit %s not above entry %s", l.TakeProfit, entry)
		}
		if !l.StopLoss.LessThan(entry) {
			return fmt.Errorf("long stop-loss %s not below entry %s", l.StopLoss, entry)
		}
		if !l.StopLoss.IsPositive() {
			return fmt.Errorf("long stop-loss %s not positive", l.StopLoss)
		}
		return nil
	}
	if !l.TakeProfit.LessThan(entry) {
		return fmt.Errorf("short take-profit %s not below entry %s", l.TakeProfit, entry)
	}
	if !l.StopLoss.GreaterThan(entry) {
		return fmt.Errorf("short stop-loss %s not above entry %s", l.StopLoss, entry)
	}
	if !l.TakeProfit.IsPositive() {
		return fmt.Errorf("short take-profit %s not positive", l.TakeProfit)
	}
	return nil
}
