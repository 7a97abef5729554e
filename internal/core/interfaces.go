package core

import "github.com/sketchparty/server/internal/domain"

// Frame is a raw outbound message, already encoded for the wire.
type Frame []byte

// ConnID identifies one live transport connection. A user opening two tabs
// holds two ConnIDs.
type ConnID string

// SignalConnection abstracts the messaging transport endpoint of one
// connection. Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Member is a read-only view of one registered connection.
type Member struct {
	Conn     ConnID
	UserID   domain.UserID
	Username string
	Signal   SignalConnection
}
