// Package ws is the transport adapter: it owns the websocket connections,
// decodes inbound envelopes into coordinator calls and encodes coordinator
// events back onto the wire.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sketchparty/server/internal/app"
	"github.com/sketchparty/server/internal/core"
	"github.com/sketchparty/server/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

const sendBuffer = 32

// Controller handles the room-sync websocket endpoint. It also implements
// app.Notifier, so the coordinator fans out through it.
type Controller struct {
	Coord *app.Coordinator
	Reg   *core.ConnectionRegistry

	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(reg *core.ConnectionRegistry, readLimit int64, pingPeriod time.Duration) *Controller {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &Controller{Reg: reg, ReadLimit: readLimit, PingPeriod: pingPeriod}
}

// wsConn is one websocket endpoint with a buffered outbound queue. TrySend
// never blocks; a full queue reports backpressure to the caller.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection until it drops.
// Identity is resolved upstream by the http adapter; this layer only sees
// an authenticated (userId, username) pair.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	user := domain.UserID(c.GetString("user_id"))
	username := c.GetString("username")
	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "ws").Str("conn", string(cid)).Str("user", string(user)).Msg("new WS connection")

	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		sock.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsConn{
		conn: sock,
		send: make(chan core.Frame, sendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, client{cid: cid, user: user, username: username, conn: conn})
}

// client bundles what every handler needs about the sender.
type client struct {
	cid      core.ConnID
	user     domain.UserID
	username string
	conn     *wsConn
}
