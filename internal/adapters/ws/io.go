package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sketchparty/server/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, cl client) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(cl.cid)).Msg("readPump closing")
		ctl.Coord.Leave(cl.cid)
		cl.conn.Close()
		cancel()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("conn", string(cl.cid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := cl.conn.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "ws").Str("conn", string(cl.cid)).Msg("readPump read error")
				return
			}
			ctl.dispatch(ctx, cl, data)
		}
	}
}

func (ctl *Controller) dispatch(ctx context.Context, cl client, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("bad json")
		ctl.sendError(cl.conn, "bad_payload")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(ctx, cl, data)
	case "append":
		ctl.handleAppend(ctx, cl, data)
	case "undo":
		ctl.handleUndo(ctx, cl)
	case "redo":
		ctl.handleRedo(ctx, cl)
	case "clear":
		ctl.handleClear(ctx, cl)
	case "chat":
		ctl.handleChat(cl, data)
	case "cursor":
		ctl.handleCursor(cl, data)
	case "ping":
		ctl.sendJSON(cl.conn, map[string]any{"type": "pong"})
	default:
		log.Warn().Str("module", "ws").Str("type", env.Type).Msg("unknown event")
		ctl.sendError(cl.conn, "unknown_event")
	}
}

func (ctl *Controller) sendJSON(sig core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendJSON marshal")
		return
	}
	_ = sig.TrySend(b)
}

// sendError answers only the originating connection; a bad inbound event
// never interrupts the rest of the room.
func (ctl *Controller) sendError(sig core.SignalConnection, code string) {
	ctl.sendJSON(sig, map[string]any{"type": "error", "error": code})
}
