package domain

import (
	"errors"
	"time"
)

const MaxRoomNameLen = 64

var (
	ErrRoomNameEmpty   = errors.New("room name empty")
	ErrRoomNameTooLong = errors.New("room name too long")
)

type (
	RoomName string
	RoomID   string
)

// Room is the catalog record for a collaborative session. The password
// hash is only set for private rooms and never leaves the server.
type Room struct {
	ID           RoomID    `json:"roomId"`
	Name         RoomName  `json:"name"`
	HostID       UserID    `json:"hostId"`
	Private      bool      `json:"isPrivate"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ValidRoomName(name RoomName) error {
	if len(name) == 0 {
		return ErrRoomNameEmpty
	}
	if len(name) > MaxRoomNameLen {
		return ErrRoomNameTooLong
	}
	return nil
}
