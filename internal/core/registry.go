package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sketchparty/server/internal/domain"
)

var ErrDuplicateConnection = errors.New("connection already registered")

type regEntry struct {
	member Member
	room   domain.RoomID
}

// ConnectionRegistry tracks live connections and which room/user each
// belongs to. It never touches the transport or persistence itself; it only
// holds the handles so callers can fan out.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byConn map[ConnID]*regEntry
	// join order per room; governs presence-list display order
	order map[domain.RoomID][]ConnID
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byConn: make(map[ConnID]*regEntry),
		order:  make(map[domain.RoomID][]ConnID),
	}
}

// Register binds a connection to a room and user. Registering the same
// ConnID twice is a protocol error and fails without touching room state.
func (r *ConnectionRegistry) Register(conn ConnID, room domain.RoomID, user domain.UserID, username string, sig SignalConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[conn]; ok {
		return ErrDuplicateConnection
	}
	r.byConn[conn] = &regEntry{
		member: Member{Conn: conn, UserID: user, Username: username, Signal: sig},
		room:   room,
	}
	r.order[room] = append(r.order[room], conn)
	log.Info().Str("module", "core.registry").Str("conn", string(conn)).Str("room", string(room)).Str("user", string(user)).Msg("connection registered")
	return nil
}

// Unregister is idempotent; it reports the room the connection belonged to.
func (r *ConnectionRegistry) Unregister(conn ConnID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	keep := r.order[e.room][:0]
	for _, c := range r.order[e.room] {
		if c != conn {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		delete(r.order, e.room)
	} else {
		r.order[e.room] = keep
	}
	log.Info().Str("module", "core.registry").Str("conn", string(conn)).Str("room", string(e.room)).Msg("connection unregistered")
	return e.room, true
}

// MembersOf returns the room's members in join order.
func (r *ConnectionRegistry) MembersOf(room domain.RoomID) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := r.order[room]
	out := make([]Member, 0, len(conns))
	for _, c := range conns {
		if e, ok := r.byConn[c]; ok {
			out = append(out, e.member)
		}
	}
	return out
}

// RoomOf reports the room a live connection is attached to.
func (r *ConnectionRegistry) RoomOf(conn ConnID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	return e.room, true
}

// Lookup returns the member view of a live connection.
func (r *ConnectionRegistry) Lookup(conn ConnID) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byConn[conn]
	if !ok {
		return Member{}, false
	}
	return e.member, true
}

// CountInRoom reports how many connections are attached to the room.
func (r *ConnectionRegistry) CountInRoom(room domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order[room])
}
