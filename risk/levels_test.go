package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"perpbot/market"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeLevels(t *testing.T) {
	t.Parallel()

	off := Offsets{TakeProfit: dec("20"), StopLoss: dec("10")}

	tests := []struct {
		name   string
		side   market.Side
		entry  string
		wantTP string
		wantSL string
	}{
		{"long at 50000", market.Buy, "50000", "50020", "49990"},
		{"short at 50000", market.Sell, "50000", "49980", "50010"},
		{"long fractional", market.Buy, "64123.55", "64143.55", "64113.55"},
		{"short at 100", market.Sell, "100", "80", "110"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Compute(tt.side, dec(tt.entry), off)
			assert.True(t, got.TakeProfit.Equal(dec(tt.wantTP)),
				"take-profit: got %s, want %s", got.TakeProfit, tt.wantTP)
			assert.True(t, got.StopLoss.Equal(dec(tt.wantSL)),
				"stop-loss: got %s, want %s", got.StopLoss, tt.wantSL)
		})
	}
}

func TestCheckLongInvariant(t *testing.T) {
	t.Parallel()

	off := Offsets{TakeProfit: dec("20"), StopLoss: dec("10")}
	entry := dec("50000")
	levels := Compute(market.Buy, entry, off)

	assert.NoError(t, levels.Check(market.Buy, entry))
	assert.True(t, levels.TakeProfit.GreaterThan(entry))
	assert.True(t, levels.StopLoss.LessThan(entry))
}

func TestCheckShortInvariant(t *testing.T) {
	t.Parallel()

	off := Offsets{TakeProfit: dec("20"), StopLoss: dec("10")}
	entry := dec("50000")
	levels := Compute(market.Sell, entry, off)

	assert.NoError(t, levels.Check(market.Sell, entry))
	assert.True(t, levels.TakeProfit.LessThan(entry))
	assert.True(t, levels.StopLoss.GreaterThan(entry))
}

func TestCheckRejectsDegenerateLevels(t *testing.T) {
	t.Parallel()

	entry := dec("15")

	// Offsets larger than the price push the long stop below zero.
	long := Compute(market.Buy, entry, Offsets{TakeProfit: dec("20"), StopLoss: dec("20")})
	assert.Error(t, long.Check(market.Buy, entry))

	// Same for a short take-profit.
	short := Compute(market.Sell, entry, Offsets{TakeProfit: dec("20"), StopLoss: dec("10")})
	assert.Error(t, short.Check(market.Sell, entry))

	// Swapped sides violate ordering outright.
	ok := Compute(market.Buy, dec("50000"), Offsets{TakeProfit: dec("20"), StopLoss: dec("10")})
	assert.Error(t, ok.Check(market.Sell, dec("50000")))
}

func TestOffsetsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Offsets{TakeProfit: dec("20"), StopLoss: dec("10")}.Validate())
	assert.Error(t, Offsets{TakeProfit: dec("0"), StopLoss: dec("10")}.Validate())
	assert.Error(t, Offsets{TakeProfit: dec("20"), StopLoss: dec("-1")}.Validate())
}
