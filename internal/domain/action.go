package domain

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrUnknownActionType = errors.New("unknown action type")

// ActionType tags what kind of edit an action carries. The payload shape is
// fixed per tag at the transport boundary; inside the server the payload is
// opaque and only round-trips through persistence.
type ActionType string

const (
	ActionFreehand      ActionType = "freehand"
	ActionRectangle     ActionType = "rectangle"
	ActionEllipse       ActionType = "ellipse"
	ActionStraightLine  ActionType = "straightLine"
	ActionDimensionLine ActionType = "dimensionLine"
	ActionText          ActionType = "text"
	ActionAsset         ActionType = "asset"
)

// ParseActionType rejects tags the renderer would not know how to draw.
func ParseActionType(s string) (ActionType, error) {
	switch t := ActionType(s); t {
	case ActionFreehand, ActionRectangle, ActionEllipse, ActionStraightLine,
		ActionDimensionLine, ActionText, ActionAsset:
		return t, nil
	}
	return "", ErrUnknownActionType
}

// Action is one ordered edit on a room's canvas. Immutable once appended:
// Seq is assigned by the room's action log and never reused; redo assigns a
// fresh Seq but keeps the rest of the record verbatim.
type Action struct {
	Seq        uint64          `json:"sequenceNo"`
	AuthorID   UserID          `json:"authorId"`
	Type       ActionType      `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Color      string          `json:"color,omitempty"`
	Size       float64         `json:"size,omitempty"`
	InsertedAt time.Time       `json:"insertedAt"`
}
