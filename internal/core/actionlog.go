package core

import (
	"time"

	"github.com/sketchparty/server/internal/domain"
)

// UndoStackLimit bounds how many undone actions a room keeps recoverable.
// Pushing past the bound drops the oldest entry.
const UndoStackLimit = 128

// ActionLog is the authoritative ordered sequence of a room's actions plus
// the LIFO stack of undone-but-recoverable ones. It is the single source of
// truth for canvas state while the room is loaded.
//
// Not safe for concurrent use: the owning room session serializes all access
// under its per-room critical section.
type ActionLog struct {
	live    []domain.Action
	undone  []domain.Action
	nextSeq uint64
}

// NewActionLog seeds a log from a persisted snapshot. Sequence numbering
// continues after the highest seq seen, so reloaded rooms never reuse one.
func NewActionLog(snapshot []domain.Action) *ActionLog {
	l := &ActionLog{nextSeq: 1}
	if len(snapshot) > 0 {
		l.live = append(l.live, snapshot...)
		for _, a := range snapshot {
			if a.Seq >= l.nextSeq {
				l.nextSeq = a.Seq + 1
			}
		}
	}
	return l
}

// Append assigns the next sequence number, stamps the insertion time and
// appends the action to the live sequence. Any append discards the redo
// history, as in a conventional editor.
func (l *ActionLog) Append(a domain.Action) domain.Action {
	a.Seq = l.nextSeq
	l.nextSeq++
	if a.InsertedAt.IsZero() {
		a.InsertedAt = time.Now().UTC()
	}
	l.live = append(l.live, a)
	l.undone = l.undone[:0]
	return a
}

// Undo moves the newest live action to the undo stack. An empty log is a
// defined no-op, not an error: callers must not broadcast or persist then.
func (l *ActionLog) Undo() (domain.Action, bool) {
	if len(l.live) == 0 {
		return domain.Action{}, false
	}
	last := l.live[len(l.live)-1]
	l.live = l.live[:len(l.live)-1]
	if len(l.undone) == UndoStackLimit {
		copy(l.undone, l.undone[1:])
		l.undone = l.undone[:UndoStackLimit-1]
	}
	l.undone = append(l.undone, last)
	return last, true
}

// Redo re-appends the most recently undone action under a fresh sequence
// number, keeping its payload, type and author. No-op on an empty stack.
func (l *ActionLog) Redo() (domain.Action, bool) {
	if len(l.undone) == 0 {
		return domain.Action{}, false
	}
	a := l.undone[len(l.undone)-1]
	l.undone = l.undone[:len(l.undone)-1]
	a.Seq = l.nextSeq
	l.nextSeq++
	l.live = append(l.live, a)
	return a, true
}

// Clear empties both the live sequence and the undo stack. Irreversible.
func (l *ActionLog) Clear() {
	l.live = l.live[:0]
	l.undone = l.undone[:0]
}

// Snapshot returns a copy of the live sequence for late-joiner sync.
func (l *ActionLog) Snapshot() []domain.Action {
	out := make([]domain.Action, len(l.live))
	copy(out, l.live)
	return out
}

// Len reports the number of live actions.
func (l *ActionLog) Len() int { return len(l.live) }
