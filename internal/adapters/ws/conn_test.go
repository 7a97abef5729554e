package ws

import (
	"errors"
	"testing"

	"github.com/sketchparty/server/internal/core"
)

func TestTrySendBackpressure(t *testing.T) {
	c := &wsConn{send: make(chan core.Frame, 1)}
	if err := c.TrySend(core.Frame("one")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := c.TrySend(core.Frame("two")); !errors.Is(err, ErrBackpressure) {
		t.Fatalf("full queue err = %v, want ErrBackpressure", err)
	}
	<-c.send
	if err := c.TrySend(core.Frame("three")); err != nil {
		t.Fatalf("send after drain: %v", err)
	}
}

func TestTrySendAfterClose(t *testing.T) {
	c := &wsConn{send: make(chan core.Frame, 1)}
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	if err := c.TrySend(core.Frame("late")); err == nil {
		t.Fatal("send on closed conn succeeded")
	}
}
