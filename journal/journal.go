package journal

import "time"

// Record is one order submission as the orchestrator saw it. Prices and
// quantities are stored as the strings that went over the wire.
type Record struct {
	ID         string // ULID, doubles as the Bybit orderLinkId
	Time       time.Time
	Command    string // operator command that caused the submission
	Symbol     string
	Side       string
	Qty        string
	Price      string // observed quote at submit time, empty for closes
	TakeProfit string
	StopLoss   string
	ReduceOnly bool
	Status     string // "submitted" or "rejected"
	Detail     string // order id on success, reason on rejection
}

type Journal interface {
	Record(Record) error
	Recent(n int) ([]Record, error)
	Close() error
}

// Nop discards everything. Used when journaling is disabled; the
// orchestrator never has to care.
type Nop struct{}

func (Nop) Record(Record) error           { return nil }
func (Nop) Recent(int) ([]Record, error)  { return nil, nil }
func (Nop) Close() error                  { return nil }
