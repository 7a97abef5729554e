package app

import (
	"github.com/sketchparty/server/internal/core"
	"github.com/sketchparty/server/internal/domain"
)

// PresenceEntry is what clients render in the participant list.
type PresenceEntry struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

// ComputePresence derives the participant list from registry members. The
// order is join order, straight from the registry, so the display order is
// stable across every client.
func ComputePresence(members []core.Member) []PresenceEntry {
	out := make([]PresenceEntry, 0, len(members))
	for _, m := range members {
		out = append(out, PresenceEntry{UserID: m.UserID, Username: m.Username})
	}
	return out
}
