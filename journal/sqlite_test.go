package journal

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	assert.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='orders'`).Scan(&name)
	assert.NoError(t, err)
	assert.Equal(t, "orders", name)
}

func TestSQLiteRecordRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	rec := Record{
		ID:         "01HTESTULID0000000000000000",
		Time:       time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		Command:    "buy",
		Symbol:     "BTCUSDT",
		Side:       "Buy",
		Qty:        "0.01",
		Price:      "50000",
		TakeProfit: "50020",
		StopLoss:   "49990",
		ReduceOnly: false,
		Status:     "submitted",
		Detail:     "order-1",
	}
	assert.NoError(t, j.Record(rec))

	got, err := j.Recent(10)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.Symbol, got[0].Symbol)
	assert.Equal(t, rec.TakeProfit, got[0].TakeProfit)
	assert.Equal(t, rec.StopLoss, got[0].StopLoss)
	assert.False(t, got[0].ReduceOnly)
	assert.True(t, rec.Time.Equal(got[0].Time))
}

func TestSQLiteRecentOrderAndLimit(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		assert.NoError(t, j.Record(Record{
			ID:      fmt.Sprintf("id-%d", i),
			Time:    base.Add(time.Duration(i) * time.Minute),
			Command: "buy",
			Symbol:  "BTCUSDT",
			Side:    "Buy",
			Qty:     "0.01",
			Status:  "submitted",
		}))
	}

	got, err := j.Recent(3)
	assert.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "id-4", got[0].ID) // newest first
	assert.Equal(t, "id-2", got[2].ID)
}

func TestSQLiteListDay(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	in := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	out := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.NoError(t, j.Record(Record{ID: "in", Time: in, Command: "buy", Symbol: "BTCUSDT", Side: "Buy", Qty: "0.01", Status: "submitted"}))
	assert.NoError(t, j.Record(Record{ID: "out", Time: out, Command: "buy", Symbol: "BTCUSDT", Side: "Buy", Qty: "0.01", Status: "submitted"}))

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := j.ListDay(start, start.Add(24*time.Hour))
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "in", got[0].ID)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	open := Record{
		Time: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), Status: "submitted",
		Side: "Buy", Qty: "0.01", Symbol: "BTCUSDT", Price: "50000",
	}
	assert.Equal(t, "03-01 10:30:00 submitted Buy 0.01 BTCUSDT @ 50000", Format(open))

	closeRec := Record{
		Time: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), Status: "submitted",
		Side: "Sell", Qty: "0.01", Symbol: "BTCUSDT", ReduceOnly: true,
	}
	assert.Equal(t, "03-01 11:00:00 submitted Sell 0.01 BTCUSDT (close)", Format(closeRec))
}
