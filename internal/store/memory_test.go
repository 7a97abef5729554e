package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sketchparty/server/internal/domain"
)

func action(seq uint64) domain.Action {
	return domain.Action{
		Seq:      seq,
		AuthorID: "u1",
		Type:     domain.ActionFreehand,
		Payload:  json.RawMessage(`{"points":[{"x":1,"y":1}]}`),
	}
}

func TestMemoryGatewayContract(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	snap, err := m.LoadSnapshot(ctx, "r1")
	if err != nil || len(snap) != 0 {
		t.Fatalf("fresh snapshot = (%v, %v), want empty", snap, err)
	}

	for i := uint64(1); i <= 3; i++ {
		if err := m.AppendAction(ctx, "r1", action(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	snap, err = m.LoadSnapshot(ctx, "r1")
	if err != nil || len(snap) != 3 {
		t.Fatalf("snapshot after appends = %d actions, err %v", len(snap), err)
	}
	for i, a := range snap {
		if a.Seq != uint64(i+1) {
			t.Fatalf("snapshot[%d].Seq = %d", i, a.Seq)
		}
	}

	if err := m.RemoveLastAction(ctx, "r1"); err != nil {
		t.Fatalf("remove last: %v", err)
	}
	snap, _ = m.LoadSnapshot(ctx, "r1")
	if len(snap) != 2 || snap[len(snap)-1].Seq != 2 {
		t.Fatalf("after remove: %+v", snap)
	}

	// removing from an empty room is harmless
	if err := m.RemoveLastAction(ctx, "empty-room"); err != nil {
		t.Fatalf("remove on empty room: %v", err)
	}

	if err := m.ReplaceAllActions(ctx, "r1", []domain.Action{action(9)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	snap, _ = m.LoadSnapshot(ctx, "r1")
	if len(snap) != 1 || snap[0].Seq != 9 {
		t.Fatalf("after replace: %+v", snap)
	}

	if err := m.ReplaceAllActions(ctx, "r1", nil); err != nil {
		t.Fatalf("replace with nil: %v", err)
	}
	snap, _ = m.LoadSnapshot(ctx, "r1")
	if len(snap) != 0 {
		t.Fatalf("after clear: %+v", snap)
	}
}

func TestMemorySnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if err := m.AppendAction(ctx, "r1", action(1)); err != nil {
		t.Fatal(err)
	}
	snap, _ := m.LoadSnapshot(ctx, "r1")
	snap[0].Seq = 99
	again, _ := m.LoadSnapshot(ctx, "r1")
	if again[0].Seq != 1 {
		t.Fatal("snapshot aliases the stored slice")
	}
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.GetRoom(ctx, "nope"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("get missing room err = %v", err)
	}
	if err := m.AddParticipant(ctx, "nope", "u1"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("add participant to missing room err = %v", err)
	}

	older := domain.Room{ID: "r1", Name: "first", HostID: "host", CreatedAt: time.Now().Add(-time.Hour)}
	newer := domain.Room{ID: "r2", Name: "second", HostID: "other", CreatedAt: time.Now()}
	if err := m.CreateRoom(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateRoom(ctx, newer); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateRoom(ctx, older); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("duplicate create err = %v", err)
	}

	got, err := m.GetRoom(ctx, "r1")
	if err != nil || got.Name != "first" {
		t.Fatalf("GetRoom = (%+v, %v)", got, err)
	}

	// host participates in r1 by creation, joins r2 explicitly
	if err := m.AddParticipant(ctx, "r2", "host"); err != nil {
		t.Fatal(err)
	}
	if err := m.AddParticipant(ctx, "r2", "host"); err != nil {
		t.Fatalf("re-adding participant should be a no-op: %v", err)
	}

	list, err := m.RoomsFor(ctx, "host")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "r2" || list[1].ID != "r1" {
		t.Fatalf("history = %+v, want r2 then r1", list)
	}

	list, _ = m.RoomsFor(ctx, "unknown-user")
	if len(list) != 0 {
		t.Fatalf("history for stranger = %+v", list)
	}
}
