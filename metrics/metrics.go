package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommandsAuthorized = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_commands_authorized_total", Help: "Commands accepted by the access gate"})
	CommandsDenied     = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_commands_denied_total", Help: "Commands rejected by the access gate"})
	OrdersAttempted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_orders_attempted_total", Help: "Orders the bot tried to place"})
	OrdersPlaced       = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_orders_placed_total", Help: "Orders successfully handed to the exchange"})
	OrdersRejected     = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_orders_rejected_total", Help: "Orders the exchange declined"})
	QuoteFailures      = prometheus.NewCounter(prometheus.CounterOpts{Name: "bot_quote_failures_total", Help: "Price reads that failed before any order was sent"})
)

func init() {
	prometheus.MustRegister(
		CommandsAuthorized, CommandsDenied,
		OrdersAttempted, OrdersPlaced, OrdersRejected,
		QuoteFailures,
	)
}
