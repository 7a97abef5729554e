package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sketchparty/server/internal/app"
	"github.com/sketchparty/server/internal/domain"
)

// Inbound payloads. Every event restates roomId on the wire for
// compatibility with the deployed clients; routing goes by the
// connection's registered room.
type joinEvent struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
}

type actionBody struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	Color   string          `json:"color,omitempty"`
	Size    float64         `json:"size,omitempty"`
}

type appendEvent struct {
	Type   string     `json:"type"`
	RoomID string     `json:"roomId"`
	Action actionBody `json:"action"`
}

type chatEvent struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId"`
	Message json.RawMessage `json:"message"`
}

type cursorEvent struct {
	Type   string          `json:"type"`
	RoomID string          `json:"roomId"`
	Data   json.RawMessage `json:"data"`
}

// Outbound payloads.
type syncEvent struct {
	Type     string          `json:"type"`
	Snapshot []domain.Action `json:"snapshot"`
	HostID   domain.UserID   `json:"hostId"`
}

type presenceEvent struct {
	Type    string              `json:"type"`
	Members []app.PresenceEntry `json:"members"`
}

type actionEvent struct {
	Type   string        `json:"type"`
	Action domain.Action `json:"action"`
}

type chatOutEvent struct {
	Type    string          `json:"type"`
	From    domain.UserID   `json:"from"`
	Message json.RawMessage `json:"message"`
}

type cursorOutEvent struct {
	Type   string          `json:"type"`
	ConnID string          `json:"connId"`
	Data   json.RawMessage `json:"data"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// drawPayload is the shape every tool emits; which fields must be present
// depends on the action type tag.
type drawPayload struct {
	Points []point `json:"points"`
	Text   string  `json:"text,omitempty"`
	Src    string  `json:"src,omitempty"`
}

var errBadPayload = errors.New("malformed action payload")

// parseAction validates the tagged union at the boundary. Past this point
// the payload is opaque to the server and only round-trips persistence.
func parseAction(body actionBody) (app.ActionInput, error) {
	t, err := domain.ParseActionType(body.Type)
	if err != nil {
		return app.ActionInput{}, err
	}
	var p drawPayload
	if err := json.Unmarshal(body.Payload, &p); err != nil {
		return app.ActionInput{}, fmt.Errorf("%w: %v", errBadPayload, err)
	}
	switch t {
	case domain.ActionFreehand:
		if len(p.Points) == 0 {
			return app.ActionInput{}, fmt.Errorf("%w: freehand needs points", errBadPayload)
		}
	case domain.ActionRectangle, domain.ActionEllipse, domain.ActionStraightLine, domain.ActionDimensionLine:
		if len(p.Points) != 2 {
			return app.ActionInput{}, fmt.Errorf("%w: %s needs two anchor points", errBadPayload, t)
		}
	case domain.ActionText:
		if len(p.Points) != 1 || p.Text == "" {
			return app.ActionInput{}, fmt.Errorf("%w: text needs an anchor and content", errBadPayload)
		}
	case domain.ActionAsset:
		if len(p.Points) != 1 || p.Src == "" {
			return app.ActionInput{}, fmt.Errorf("%w: asset needs an anchor and source", errBadPayload)
		}
	}
	return app.ActionInput{
		Type:    t,
		Payload: body.Payload,
		Color:   body.Color,
		Size:    body.Size,
	}, nil
}
