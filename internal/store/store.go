// Package store holds the durable mirrors of room state: the action gateway
// (the per-room ordered action list) and the room catalog (lifecycle records).
package store

import (
	"context"
	"errors"

	"github.com/sketchparty/server/internal/domain"
)

var (
	ErrRoomNotFound = errors.New("store: room not found")
	ErrRoomExists   = errors.New("store: room already exists")
)

// Gateway is the durable mirror of each room's action log. The in-memory
// log is the write-through copy of record while a room is loaded; the
// gateway is consulted on first join and updated after every mutation.
type Gateway interface {
	// LoadSnapshot returns the room's persisted actions in order, empty if
	// the room has no prior state.
	LoadSnapshot(ctx context.Context, room domain.RoomID) ([]domain.Action, error)
	// AppendAction appends one action to the durable tail.
	AppendAction(ctx context.Context, room domain.RoomID, a domain.Action) error
	// RemoveLastAction is the durable counterpart of undo.
	RemoveLastAction(ctx context.Context, room domain.RoomID) error
	// ReplaceAllActions is the durable counterpart of clear (empty slice)
	// and bulk resync.
	ReplaceAllActions(ctx context.Context, room domain.RoomID, actions []domain.Action) error
}

// Catalog is the room lifecycle store: creation records, membership history
// and the password hash for private rooms.
type Catalog interface {
	CreateRoom(ctx context.Context, room domain.Room) error
	GetRoom(ctx context.Context, id domain.RoomID) (domain.Room, error)
	// AddParticipant records that the user took part in the room; adding the
	// same user twice is a no-op.
	AddParticipant(ctx context.Context, id domain.RoomID, user domain.UserID) error
	// RoomsFor lists rooms the user hosts or participated in, newest first.
	RoomsFor(ctx context.Context, user domain.UserID) ([]domain.Room, error)
}
