package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sketchparty/server/internal/core"
	"github.com/sketchparty/server/internal/domain"
	"github.com/sketchparty/server/internal/store"
)

var (
	ErrUnknownRoom = errors.New("unknown room")
	ErrNotInRoom   = errors.New("connection not in a room")
)

const (
	defaultPersistAttempts = 5
	defaultQueueSize       = 256
)

// ActionInput is an append request before the log has stamped it.
type ActionInput struct {
	Type    domain.ActionType
	Payload json.RawMessage
	Color   string
	Size    float64
}

// Coordinator ties registry, action logs, persistence and transport
// together. All mutating operations on one room are serialized under that
// room's session lock; rooms never contend with each other.
//
// Persistence is a side effect of the in-memory transition, not a gate on
// it: the log mutation and the broadcast happen inside the critical
// section, the durable write is handed to a per-room ordered queue and
// retried there. A persistence failure is never rolled back against state
// other clients have already seen; it degrades durability and gets logged.
type Coordinator struct {
	reg      *core.ConnectionRegistry
	catalog  store.Catalog
	gateway  store.Gateway
	notify   Notifier
	attempts uint64
	retry    RetryPolicy

	mu       sync.Mutex
	sessions map[domain.RoomID]*roomSession
}

// roomSession owns one loaded room: its action log, host identity and
// persistence queue. log and host are guarded by mu; the persist channel is
// written under mu and closed exactly once on unload. done is closed by the
// persistence worker once the queue has fully flushed; drain is set on the
// successor shell after an unload so the next load can wait for that flush.
type roomSession struct {
	room domain.RoomID

	mu      sync.Mutex
	loaded  bool
	closed  bool
	host    domain.UserID
	log     *core.ActionLog
	persist chan persistOp
	done    chan struct{}
	drain   chan struct{}
}

type persistOp struct {
	name string
	fn   func(context.Context) error
}

type Option func(*Coordinator)

// WithPersistAttempts overrides the durable-write retry budget.
func WithPersistAttempts(n uint64) Option {
	return func(c *Coordinator) { c.attempts = n }
}

// WithRetryPolicy swaps the backoff strategy, mostly so tests do not sleep.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Coordinator) { c.retry = p }
}

func NewCoordinator(reg *core.ConnectionRegistry, catalog store.Catalog, gateway store.Gateway, notify Notifier, opts ...Option) *Coordinator {
	c := &Coordinator{
		reg:      reg,
		catalog:  catalog,
		gateway:  gateway,
		notify:   notify,
		attempts: defaultPersistAttempts,
		retry:    ExponentialRetry{},
		sessions: make(map[domain.RoomID]*roomSession),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) getOrCreate(room domain.RoomID) *roomSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[room]; ok {
		return s
	}
	s := &roomSession{room: room}
	c.sessions[room] = s
	return s
}

func (c *Coordinator) lookup(room domain.RoomID) (*roomSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[room]
	return s, ok
}

// acquire returns the room's session with its lock held, retrying if it
// lost a race with an unload (closed sessions are already out of the map).
func (c *Coordinator) acquire(room domain.RoomID) *roomSession {
	for {
		s := c.getOrCreate(room)
		s.mu.Lock()
		if !s.closed {
			return s
		}
		s.mu.Unlock()
	}
}

// Join attaches a connection to a room. The first join to an unloaded room
// seeds the action log from the gateway; every join gets a private sync
// with the current snapshot and host, and the whole room gets presence.
func (c *Coordinator) Join(ctx context.Context, conn core.ConnID, roomID domain.RoomID, user domain.UserID, username string, sig core.SignalConnection) error {
	room, err := c.catalog.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return ErrUnknownRoom
		}
		return fmt.Errorf("join %s: %w", roomID, err)
	}

	s := c.acquire(roomID)
	defer s.mu.Unlock()

	// Register before loading anything: a duplicate join must fail without
	// leaving a memberless session and its persistence worker behind.
	if err := c.reg.Register(conn, roomID, user, username, sig); err != nil {
		return err
	}

	if !s.loaded {
		if s.drain != nil {
			// The previous incarnation's queue may still be flushing;
			// loading before it finishes would read a stale durable copy
			// and reissue its sequence numbers.
			<-s.drain
			s.drain = nil
		}
		snapshot, err := c.gateway.LoadSnapshot(ctx, roomID)
		if err != nil {
			c.reg.Unregister(conn)
			return fmt.Errorf("load room %s: %w", roomID, err)
		}
		s.log = core.NewActionLog(snapshot)
		s.host = room.HostID
		s.persist = make(chan persistOp, defaultQueueSize)
		s.done = make(chan struct{})
		s.loaded = true
		go c.persistLoop(roomID, s.persist, s.done)
		log.Info().Str("module", "app.coordinator").Str("room", string(roomID)).Int("actions", len(snapshot)).Msg("room loaded")
	}

	s.enqueue("participant", func(ctx context.Context) error {
		return c.catalog.AddParticipant(ctx, roomID, user)
	})

	members := c.reg.MembersOf(roomID)
	joiner, _ := c.reg.Lookup(conn)
	c.notify.Sync(joiner, s.log.Snapshot(), s.host)
	c.notify.Presence(members, ComputePresence(members))
	return nil
}

// Append applies one action, fans it out to the rest of the room and queues
// the durable write. The returned action carries its assigned sequence
// number.
func (c *Coordinator) Append(ctx context.Context, conn core.ConnID, in ActionInput) (domain.Action, error) {
	roomID, member, s, err := c.sessionFor(conn)
	if err != nil {
		return domain.Action{}, err
	}
	defer s.mu.Unlock()

	act := s.log.Append(domain.Action{
		AuthorID: member.UserID,
		Type:     in.Type,
		Payload:  in.Payload,
		Color:    in.Color,
		Size:     in.Size,
	})
	c.notify.ActionAppended(c.others(roomID, conn), act)
	s.enqueue("append", func(ctx context.Context) error {
		return c.gateway.AppendAction(ctx, roomID, act)
	})
	return act, nil
}

// Undo removes the room's newest action. On an empty log it reports false
// and has no side effects at all: nothing broadcast, nothing persisted.
func (c *Coordinator) Undo(ctx context.Context, conn core.ConnID) (bool, error) {
	roomID, _, s, err := c.sessionFor(conn)
	if err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	if _, ok := s.log.Undo(); !ok {
		return false, nil
	}
	c.notify.ActionUndone(c.others(roomID, conn))
	s.enqueue("undo", func(ctx context.Context) error {
		return c.gateway.RemoveLastAction(ctx, roomID)
	})
	return true, nil
}

// Redo revives the most recently undone action under a new sequence number.
// Reports false with no side effects when the undo stack is empty.
func (c *Coordinator) Redo(ctx context.Context, conn core.ConnID) (domain.Action, bool, error) {
	roomID, _, s, err := c.sessionFor(conn)
	if err != nil {
		return domain.Action{}, false, err
	}
	defer s.mu.Unlock()

	act, ok := s.log.Redo()
	if !ok {
		return domain.Action{}, false, nil
	}
	c.notify.ActionRedone(c.others(roomID, conn), act)
	s.enqueue("redo", func(ctx context.Context) error {
		return c.gateway.AppendAction(ctx, roomID, act)
	})
	return act, true, nil
}

// Clear wipes the room's canvas and redo history.
func (c *Coordinator) Clear(ctx context.Context, conn core.ConnID) error {
	roomID, _, s, err := c.sessionFor(conn)
	if err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.log.Clear()
	c.notify.Cleared(c.others(roomID, conn))
	s.enqueue("clear", func(ctx context.Context) error {
		return c.gateway.ReplaceAllActions(ctx, roomID, nil)
	})
	return nil
}

// Leave detaches a connection, pushes presence to whoever remains and
// unloads the room when it empties. The durable copy stays the source of
// truth for the next load.
func (c *Coordinator) Leave(conn core.ConnID) {
	roomID, ok := c.reg.Unregister(conn)
	if !ok {
		return
	}
	remaining := c.reg.MembersOf(roomID)
	if len(remaining) > 0 {
		c.notify.Presence(remaining, ComputePresence(remaining))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[roomID]
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// A join may already hold the session lock with its registration still
	// pending; only the re-check under that lock can see it. A room with a
	// member must never be torn down.
	if c.reg.CountInRoom(roomID) > 0 {
		return
	}
	s.closed = true
	if !s.loaded {
		delete(c.sessions, roomID)
		return
	}
	close(s.persist)
	// The successor shell remembers the worker's drain signal so the next
	// load waits for the tail of the queue to flush.
	c.sessions[roomID] = &roomSession{room: roomID, drain: s.done}
	log.Info().Str("module", "app.coordinator").Str("room", string(roomID)).Msg("room unloaded")
}

// sessionFor resolves a connection to its loaded session and returns it
// locked. The caller must unlock.
func (c *Coordinator) sessionFor(conn core.ConnID) (domain.RoomID, core.Member, *roomSession, error) {
	roomID, ok := c.reg.RoomOf(conn)
	if !ok {
		return "", core.Member{}, nil, ErrNotInRoom
	}
	member, _ := c.reg.Lookup(conn)
	s, ok := c.lookup(roomID)
	if !ok {
		return "", core.Member{}, nil, ErrNotInRoom
	}
	s.mu.Lock()
	if s.closed || !s.loaded {
		s.mu.Unlock()
		return "", core.Member{}, nil, ErrNotInRoom
	}
	return roomID, member, s, nil
}

func (c *Coordinator) others(room domain.RoomID, except core.ConnID) []core.Member {
	members := c.reg.MembersOf(room)
	out := members[:0]
	for _, m := range members {
		if m.Conn != except {
			out = append(out, m)
		}
	}
	return out
}

// enqueue hands a durable write to the room's ordered persistence queue
// without blocking the critical section. A full queue means the store has
// been down for a while; the write is dropped with a warning rather than
// stalling live traffic.
func (s *roomSession) enqueue(name string, fn func(context.Context) error) {
	select {
	case s.persist <- persistOp{name: name, fn: fn}:
	default:
		log.Warn().Str("module", "app.coordinator").Str("room", string(s.room)).Str("op", name).Msg("persistence queue full, durable write dropped")
	}
}

// persistLoop applies durable writes in the order mutations happened,
// retrying each within the configured budget. Exhausting the budget is a
// degraded-durability condition, never a rollback and never a crash. Once
// the queue is closed and drained it signals done and discards the
// successor shell if nobody rejoined in the meantime.
func (c *Coordinator) persistLoop(room domain.RoomID, ops <-chan persistOp, done chan struct{}) {
	for op := range ops {
		err := c.retry.Run(c.attempts, func() error {
			return op.fn(context.Background())
		})
		if err != nil {
			log.Warn().Str("module", "app.coordinator").Str("room", string(room)).Str("op", op.name).Err(err).Msg("durability degraded: persistence retries exhausted")
		}
	}
	close(done)

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[room]; ok {
		s.mu.Lock()
		if !s.loaded && s.drain == done {
			s.closed = true
			delete(c.sessions, room)
		}
		s.mu.Unlock()
	}
}
