package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/sketchparty/server/internal/app"
	"github.com/sketchparty/server/internal/core"
	"github.com/sketchparty/server/internal/domain"
)

func (ctl *Controller) handleJoin(ctx context.Context, cl client, data []byte) {
	var p joinEvent
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad join payload")
		ctl.sendError(cl.conn, "bad_payload")
		return
	}
	roomID := domain.RoomID(p.RoomID)
	if roomID == "" {
		ctl.sendError(cl.conn, "room_required")
		return
	}

	log.Info().Str("module", "ws").Str("conn", string(cl.cid)).Str("room", string(roomID)).Msg("join")
	err := ctl.Coord.Join(ctx, cl.cid, roomID, cl.user, cl.username, cl.conn)
	switch {
	case errors.Is(err, app.ErrUnknownRoom):
		ctl.sendError(cl.conn, "unknown_room")
	case errors.Is(err, core.ErrDuplicateConnection):
		ctl.sendError(cl.conn, "already_joined")
	case err != nil:
		log.Error().Err(err).Str("module", "ws").Str("room", string(roomID)).Msg("join failed")
		ctl.sendError(cl.conn, "join_failed")
	}
}

func (ctl *Controller) handleAppend(ctx context.Context, cl client, data []byte) {
	var p appendEvent
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad append payload")
		ctl.sendError(cl.conn, "bad_payload")
		return
	}
	in, err := parseAction(p.Action)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(cl.cid)).Msg("rejected action")
		ctl.sendError(cl.conn, "bad_action")
		return
	}
	if _, err := ctl.Coord.Append(ctx, cl.cid, in); err != nil {
		ctl.sendError(cl.conn, "not_in_room")
	}
}

func (ctl *Controller) handleUndo(ctx context.Context, cl client) {
	if _, err := ctl.Coord.Undo(ctx, cl.cid); err != nil {
		ctl.sendError(cl.conn, "not_in_room")
	}
}

func (ctl *Controller) handleRedo(ctx context.Context, cl client) {
	if _, _, err := ctl.Coord.Redo(ctx, cl.cid); err != nil {
		ctl.sendError(cl.conn, "not_in_room")
	}
}

func (ctl *Controller) handleClear(ctx context.Context, cl client) {
	if err := ctl.Coord.Clear(ctx, cl.cid); err != nil {
		ctl.sendError(cl.conn, "not_in_room")
	}
}

// handleChat is pure fan-out to the whole room, sender included, with no
// server-side state.
func (ctl *Controller) handleChat(cl client, data []byte) {
	var p chatEvent
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(cl.conn, "bad_payload")
		return
	}
	roomID, ok := ctl.Reg.RoomOf(cl.cid)
	if !ok {
		ctl.sendError(cl.conn, "not_in_room")
		return
	}
	out := chatOutEvent{Type: "chat", From: cl.user, Message: p.Message}
	for _, m := range ctl.Reg.MembersOf(roomID) {
		ctl.sendJSON(m.Signal, out)
	}
}

// handleCursor relays a pointer position to everyone else. Never persisted.
func (ctl *Controller) handleCursor(cl client, data []byte) {
	var p cursorEvent
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(cl.conn, "bad_payload")
		return
	}
	roomID, ok := ctl.Reg.RoomOf(cl.cid)
	if !ok {
		ctl.sendError(cl.conn, "not_in_room")
		return
	}
	out := cursorOutEvent{Type: "cursor", ConnID: string(cl.cid), Data: p.Data}
	for _, m := range ctl.Reg.MembersOf(roomID) {
		if m.Conn == cl.cid {
			continue
		}
		ctl.sendJSON(m.Signal, out)
	}
}
