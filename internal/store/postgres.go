package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sketchparty/server/internal/domain"
)

// Postgres implements Gateway and Catalog on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the schema if it is not there yet.
func (p *Postgres) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS rooms (
	room_id       TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	host_id       TEXT NOT NULL,
	is_private    BOOLEAN NOT NULL DEFAULT FALSE,
	password_hash TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS room_participants (
	room_id TEXT NOT NULL REFERENCES rooms(room_id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	PRIMARY KEY (room_id, user_id)
);
CREATE TABLE IF NOT EXISTS room_actions (
	room_id     TEXT NOT NULL REFERENCES rooms(room_id) ON DELETE CASCADE,
	seq         BIGINT NOT NULL,
	author_id   TEXT NOT NULL,
	kind        TEXT NOT NULL,
	payload     JSONB NOT NULL,
	color       TEXT NOT NULL DEFAULT '',
	size        DOUBLE PRECISION NOT NULL DEFAULT 0,
	inserted_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (room_id, seq)
);`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) LoadSnapshot(ctx context.Context, room domain.RoomID) ([]domain.Action, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT seq, author_id, kind, payload, color, size, inserted_at
		 FROM room_actions WHERE room_id = $1 ORDER BY seq`, string(room))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	var out []domain.Action
	for rows.Next() {
		var a domain.Action
		var kind string
		if err := rows.Scan(&a.Seq, &a.AuthorID, &kind, &a.Payload, &a.Color, &a.Size, &a.InsertedAt); err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		a.Type = domain.ActionType(kind)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return out, nil
}

func (p *Postgres) AppendAction(ctx context.Context, room domain.RoomID, a domain.Action) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO room_actions (room_id, seq, author_id, kind, payload, color, size, inserted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(room), a.Seq, string(a.AuthorID), string(a.Type), a.Payload, a.Color, a.Size, a.InsertedAt)
	if err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

func (p *Postgres) RemoveLastAction(ctx context.Context, room domain.RoomID) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM room_actions
		 WHERE room_id = $1 AND seq = (SELECT max(seq) FROM room_actions WHERE room_id = $1)`,
		string(room))
	if err != nil {
		return fmt.Errorf("remove last action: %w", err)
	}
	return nil
}

func (p *Postgres) ReplaceAllActions(ctx context.Context, room domain.RoomID, actions []domain.Action) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("replace actions: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM room_actions WHERE room_id = $1`, string(room)); err != nil {
		return fmt.Errorf("replace actions: %w", err)
	}
	batch := &pgx.Batch{}
	for _, a := range actions {
		batch.Queue(
			`INSERT INTO room_actions (room_id, seq, author_id, kind, payload, color, size, inserted_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			string(room), a.Seq, string(a.AuthorID), string(a.Type), a.Payload, a.Color, a.Size, a.InsertedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("replace actions: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("replace actions: %w", err)
	}
	return nil
}

func (p *Postgres) CreateRoom(ctx context.Context, room domain.Room) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO rooms (room_id, name, host_id, is_private, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (room_id) DO NOTHING`,
		string(room.ID), string(room.Name), string(room.HostID), room.Private, room.PasswordHash, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRoomExists
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		string(room.ID), string(room.HostID)); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) GetRoom(ctx context.Context, id domain.RoomID) (domain.Room, error) {
	var room domain.Room
	var name, host string
	var hash *string
	err := p.pool.QueryRow(ctx,
		`SELECT room_id, name, host_id, is_private, password_hash, created_at
		 FROM rooms WHERE room_id = $1`, string(id)).
		Scan(&room.ID, &name, &host, &room.Private, &hash, &room.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("get room: %w", err)
	}
	room.Name = domain.RoomName(name)
	room.HostID = domain.UserID(host)
	if hash != nil {
		room.PasswordHash = *hash
	}
	return room, nil
}

func (p *Postgres) AddParticipant(ctx context.Context, id domain.RoomID, user domain.UserID) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO room_participants (room_id, user_id)
		 SELECT $1, $2 WHERE EXISTS (SELECT 1 FROM rooms WHERE room_id = $1)
		 ON CONFLICT DO NOTHING`,
		string(id), string(user))
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

func (p *Postgres) RoomsFor(ctx context.Context, user domain.UserID) ([]domain.Room, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT r.room_id, r.name, r.host_id, r.is_private, r.created_at
		 FROM rooms r
		 JOIN room_participants pt ON pt.room_id = r.room_id
		 WHERE pt.user_id = $1
		 ORDER BY r.created_at DESC`, string(user))
	if err != nil {
		return nil, fmt.Errorf("rooms for user: %w", err)
	}
	defer rows.Close()

	var out []domain.Room
	for rows.Next() {
		var room domain.Room
		var name, host string
		if err := rows.Scan(&room.ID, &name, &host, &room.Private, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("rooms for user: %w", err)
		}
		room.Name = domain.RoomName(name)
		room.HostID = domain.UserID(host)
		out = append(out, room)
	}
	return out, rows.Err()
}
