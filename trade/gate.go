package trade

import (
	"log/slog"

	"perpbot/metrics"
)

// Gate authorizes commands against the single allowed operator identity.
// It must run before any exchange call; a bypass here is a full
// authorization bypass.
type Gate struct {
	allowed string
	log     *slog.Logger
}

// NewGate builds a gate for one allowed requester id. Comparison is
// string equality: the transport hands us the sender id as text and
// numeric coercion would invite type-mismatch holes.
func NewGate(allowedID string, log *slog.Logger) *Gate {
	return &Gate{allowed: allowedID, log: log}
}

// Authorize reports whether the requester may run commands. Denials are
// logged with the rejected identity; the operator-facing reply stays
// generic.
func (g *Gate) Authorize(requesterID string) bool {
	if requesterID == g.allowed {
		metrics.CommandsAuthorized.Inc()
		return true
	}
	metrics.CommandsDenied.Inc()
	g.log.Warn("unauthorized command", "requester", requesterID)
	return false
}
