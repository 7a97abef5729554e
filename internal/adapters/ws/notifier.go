package ws

import (
	"github.com/sketchparty/server/internal/app"
	"github.com/sketchparty/server/internal/core"
	"github.com/sketchparty/server/internal/domain"
)

// Controller implements app.Notifier: the coordinator calls these inside
// the room's critical section, so delivery order matches log order.
var _ app.Notifier = (*Controller)(nil)

func (ctl *Controller) Sync(to core.Member, snapshot []domain.Action, host domain.UserID) {
	if snapshot == nil {
		snapshot = []domain.Action{}
	}
	ctl.sendJSON(to.Signal, syncEvent{Type: "sync", Snapshot: snapshot, HostID: host})
}

func (ctl *Controller) Presence(to []core.Member, entries []app.PresenceEntry) {
	out := presenceEvent{Type: "presence", Members: entries}
	for _, m := range to {
		ctl.sendJSON(m.Signal, out)
	}
}

func (ctl *Controller) ActionAppended(to []core.Member, a domain.Action) {
	out := actionEvent{Type: "append", Action: a}
	for _, m := range to {
		ctl.sendJSON(m.Signal, out)
	}
}

func (ctl *Controller) ActionUndone(to []core.Member) {
	for _, m := range to {
		ctl.sendJSON(m.Signal, map[string]any{"type": "undo"})
	}
}

func (ctl *Controller) ActionRedone(to []core.Member, a domain.Action) {
	out := actionEvent{Type: "redo", Action: a}
	for _, m := range to {
		ctl.sendJSON(m.Signal, out)
	}
}

func (ctl *Controller) Cleared(to []core.Member) {
	for _, m := range to {
		ctl.sendJSON(m.Signal, map[string]any{"type": "clear"})
	}
}
