// Package rooms implements the room lifecycle: creation, password-gated
// join and per-user history. The sync engine treats it as the external
// room-lookup collaborator.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/sketchparty/server/internal/domain"
	"github.com/sketchparty/server/internal/store"
)

var (
	ErrNotFound         = errors.New("room not found")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
)

// roomIDLen keeps ids short enough to share verbally.
const roomIDLen = 8

type Service struct {
	catalog store.Catalog
}

func NewService(catalog store.Catalog) *Service {
	return &Service{catalog: catalog}
}

// Create registers a new room hosted by the caller. Private rooms store a
// bcrypt hash; the plaintext never leaves this function.
func (s *Service) Create(ctx context.Context, name domain.RoomName, host domain.UserID, private bool, password string) (domain.Room, error) {
	if err := domain.ValidRoomName(name); err != nil {
		return domain.Room{}, err
	}
	room := domain.Room{
		ID:        domain.RoomID(uuid.NewString()[:roomIDLen]),
		Name:      name,
		HostID:    host,
		Private:   private,
		CreatedAt: time.Now().UTC(),
	}
	if private {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.Room{}, fmt.Errorf("hash room password: %w", err)
		}
		room.PasswordHash = string(hash)
	}
	if err := s.catalog.CreateRoom(ctx, room); err != nil {
		return domain.Room{}, fmt.Errorf("create room: %w", err)
	}
	log.Info().Str("module", "rooms").Str("room", string(room.ID)).Str("host", string(host)).Bool("private", private).Msg("room created")
	return room, nil
}

// Get returns the catalog record, password hash stripped.
func (s *Service) Get(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	room, err := s.catalog.GetRoom(ctx, id)
	if errors.Is(err, store.ErrRoomNotFound) {
		return domain.Room{}, ErrNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	room.PasswordHash = ""
	return room, nil
}

// Authorize checks the caller may enter the room, comparing the password
// for private rooms.
func (s *Service) Authorize(ctx context.Context, id domain.RoomID, password string) (domain.Room, error) {
	room, err := s.catalog.GetRoom(ctx, id)
	if errors.Is(err, store.ErrRoomNotFound) {
		return domain.Room{}, ErrNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("authorize room: %w", err)
	}
	if room.Private {
		if password == "" {
			return domain.Room{}, ErrPasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)) != nil {
			return domain.Room{}, ErrInvalidPassword
		}
	}
	room.PasswordHash = ""
	return room, nil
}

// History lists the rooms the user hosted or participated in, newest first.
func (s *Service) History(ctx context.Context, user domain.UserID) ([]domain.Room, error) {
	rooms, err := s.catalog.RoomsFor(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("room history: %w", err)
	}
	for i := range rooms {
		rooms[i].PasswordHash = ""
	}
	return rooms, nil
}
