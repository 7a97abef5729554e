package store

import (
	"context"
	"sort"
	"sync"

	"github.com/sketchparty/server/internal/domain"
)

// Memory keeps rooms and actions in process memory. Used in tests and in
// dev mode; state does not survive a restart.
type Memory struct {
	mu           sync.RWMutex
	actions      map[domain.RoomID][]domain.Action
	rooms        map[domain.RoomID]domain.Room
	participants map[domain.RoomID]map[domain.UserID]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		actions:      make(map[domain.RoomID][]domain.Action),
		rooms:        make(map[domain.RoomID]domain.Room),
		participants: make(map[domain.RoomID]map[domain.UserID]struct{}),
	}
}

func (m *Memory) LoadSnapshot(_ context.Context, room domain.RoomID) ([]domain.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.actions[room]
	out := make([]domain.Action, len(src))
	copy(out, src)
	return out, nil
}

func (m *Memory) AppendAction(_ context.Context, room domain.RoomID, a domain.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[room] = append(m.actions[room], a)
	return nil
}

func (m *Memory) RemoveLastAction(_ context.Context, room domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tail := m.actions[room]; len(tail) > 0 {
		m.actions[room] = tail[:len(tail)-1]
	}
	return nil
}

func (m *Memory) ReplaceAllActions(_ context.Context, room domain.RoomID, actions []domain.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	repl := make([]domain.Action, len(actions))
	copy(repl, actions)
	m.actions[room] = repl
	return nil
}

func (m *Memory) CreateRoom(_ context.Context, room domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; ok {
		return ErrRoomExists
	}
	m.rooms[room.ID] = room
	m.participants[room.ID] = map[domain.UserID]struct{}{room.HostID: {}}
	return nil
}

func (m *Memory) GetRoom(_ context.Context, id domain.RoomID) (domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, ErrRoomNotFound
	}
	return room, nil
}

func (m *Memory) AddParticipant(_ context.Context, id domain.RoomID, user domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return ErrRoomNotFound
	}
	m.participants[id][user] = struct{}{}
	return nil
}

func (m *Memory) RoomsFor(_ context.Context, user domain.UserID) ([]domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Room
	for id, room := range m.rooms {
		if _, ok := m.participants[id][user]; ok {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
