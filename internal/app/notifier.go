package app

import (
	"github.com/sketchparty/server/internal/core"
	"github.com/sketchparty/server/internal/domain"
)

// Notifier is the outbound side of the transport. The coordinator invokes
// it inside the room's critical section so that every connection observes
// mutations in the order the log applied them. Implementations must not
// block; a slow receiver is the adapter's problem (TrySend backpressure).
type Notifier interface {
	// Sync delivers the full snapshot and host identity to one joiner.
	Sync(to core.Member, snapshot []domain.Action, host domain.UserID)
	// Presence delivers the participant list to every current member.
	Presence(to []core.Member, entries []PresenceEntry)
	// ActionAppended delivers a freshly appended action, server-issued
	// sequence number included, to everyone but the author.
	ActionAppended(to []core.Member, a domain.Action)
	// ActionUndone tells everyone but the actor to pop their local latest.
	// Deliberately carries no action reference: the deployed clients keep
	// their own history in lockstep and the wire contract predates this
	// server. Changing it would strand them, so it stays.
	ActionUndone(to []core.Member)
	// ActionRedone re-delivers the revived action under its new sequence
	// number; receivers cannot reconstruct the popped content themselves.
	ActionRedone(to []core.Member, a domain.Action)
	// Cleared tells everyone but the actor the canvas is now empty.
	Cleared(to []core.Member)
}
