package journal

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Record(r Record) error {
	_, err := j.db.Exec(`
		INSERT INTO orders
		(id, time, command, symbol, side, qty, price, take_profit, stop_loss, reduce_only, status, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Time.UTC(), r.Command, r.Symbol, r.Side, r.Qty,
		r.Price, r.TakeProfit, r.StopLoss, r.ReduceOnly, r.Status, r.Detail,
	)
	return err
}

// Recent returns the newest n records, newest first. ULIDs sort by
// creation time, so ordering by id breaks ties within one timestamp.
func (j *SQLite) Recent(n int) ([]Record, error) {
	rows, err := j.db.Query(`
		SELECT id, time, command, symbol, side, qty, price, take_profit, stop_loss, reduce_only, status, detail
		FROM orders ORDER BY time DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListDay returns records submitted within [start, end), oldest first.
func (j *SQLite) ListDay(start, end time.Time) ([]Record, error) {
	rows, err := j.db.Query(`
		SELECT id, time, command, symbol, side, qty, price, take_profit, stop_loss, reduce_only, status, detail
		FROM orders WHERE time >= ? AND time < ? ORDER BY time ASC, id ASC`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var recs []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Time, &r.Command, &r.Symbol, &r.Side, &r.Qty,
			&r.Price, &r.TakeProfit, &r.StopLoss, &r.ReduceOnly, &r.Status, &r.Detail); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// Format renders one record as a single reply-friendly line.
func Format(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s %s", r.Time.UTC().Format("01-02 15:04:05"), r.Status, r.Side, r.Qty, r.Symbol)
	if r.Price != "" {
		fmt.Fprintf(&b, " @ %s", r.Price)
	}
	if r.ReduceOnly {
		b.WriteString(" (close)")
	}
	return b.String()
}
