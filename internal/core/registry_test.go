package core

import (
	"errors"
	"testing"

	"github.com/sketchparty/server/internal/domain"
)

type nopSignal struct{}

func (nopSignal) TrySend(Frame) error { return nil }
func (nopSignal) Close()              {}

func TestRegisterRejectsDuplicateConn(t *testing.T) {
	r := NewConnectionRegistry()
	if err := r.Register("c1", "room", "u1", "alice", nopSignal{}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	err := r.Register("c1", "other", "u2", "bob", nopSignal{})
	if !errors.Is(err, ErrDuplicateConnection) {
		t.Fatalf("second register err = %v, want ErrDuplicateConnection", err)
	}
	// the failed attempt must not have touched room state
	if n := r.CountInRoom("other"); n != 0 {
		t.Fatalf("CountInRoom(other) = %d after failed register", n)
	}
}

func TestMembersOfKeepsJoinOrder(t *testing.T) {
	r := NewConnectionRegistry()
	users := []string{"alice", "bob", "carol", "dave"}
	for i, u := range users {
		if err := r.Register(ConnID(rune('a'+i)), "room", domain.UserID(u), u, nopSignal{}); err != nil {
			t.Fatalf("register %s: %v", u, err)
		}
	}
	got := r.MembersOf("room")
	if len(got) != len(users) {
		t.Fatalf("members = %d, want %d", len(got), len(users))
	}
	for i, m := range got {
		if m.Username != users[i] {
			t.Errorf("member[%d] = %s, want %s", i, m.Username, users[i])
		}
	}

	// removing from the middle keeps the rest in order
	r.Unregister(ConnID('b'))
	got = r.MembersOf("room")
	want := []string{"alice", "carol", "dave"}
	for i, m := range got {
		if m.Username != want[i] {
			t.Errorf("after unregister member[%d] = %s, want %s", i, m.Username, want[i])
		}
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := NewConnectionRegistry()
	if err := r.Register("c1", "room", "u1", "alice", nopSignal{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	room, ok := r.Unregister("c1")
	if !ok || room != "room" {
		t.Fatalf("Unregister = (%q, %v), want (room, true)", room, ok)
	}
	if _, ok := r.Unregister("c1"); ok {
		t.Fatal("second unregister reported a room")
	}
	if _, ok := r.Unregister("never-seen"); ok {
		t.Fatal("unregister of unknown conn reported a room")
	}
	if n := r.CountInRoom("room"); n != 0 {
		t.Fatalf("CountInRoom = %d, want 0", n)
	}
}

func TestRoomOfAndLookup(t *testing.T) {
	r := NewConnectionRegistry()
	if err := r.Register("c1", "room", "u1", "alice", nopSignal{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	room, ok := r.RoomOf("c1")
	if !ok || room != "room" {
		t.Fatalf("RoomOf = (%q, %v)", room, ok)
	}
	m, ok := r.Lookup("c1")
	if !ok || m.UserID != "u1" || m.Username != "alice" {
		t.Fatalf("Lookup = (%+v, %v)", m, ok)
	}
	if _, ok := r.RoomOf("missing"); ok {
		t.Fatal("RoomOf found an unknown conn")
	}
}
