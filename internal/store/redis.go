package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sketchparty/server/internal/domain"
)

// Redis implements Gateway on a redis list per room. List push/pop maps
// one-to-one onto the gateway's append/remove-last contract.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis {
	return &Redis{rdb: rdb}
}

func actionsKey(room domain.RoomID) string {
	return "room:" + string(room) + ":actions"
}

func (r *Redis) LoadSnapshot(ctx context.Context, room domain.RoomID) ([]domain.Action, error) {
	raw, err := r.rdb.LRange(ctx, actionsKey(room), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	out := make([]domain.Action, 0, len(raw))
	for _, item := range raw {
		var a domain.Action
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("load snapshot: decode action: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Redis) AppendAction(ctx context.Context, room domain.RoomID, a domain.Action) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("append action: encode: %w", err)
	}
	if err := r.rdb.RPush(ctx, actionsKey(room), b).Err(); err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

func (r *Redis) RemoveLastAction(ctx context.Context, room domain.RoomID) error {
	err := r.rdb.RPop(ctx, actionsKey(room)).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("remove last action: %w", err)
	}
	return nil
}

func (r *Redis) ReplaceAllActions(ctx context.Context, room domain.RoomID, actions []domain.Action) error {
	key := actionsKey(room)
	encoded := make([]any, 0, len(actions))
	for _, a := range actions {
		b, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("replace actions: encode: %w", err)
		}
		encoded = append(encoded, b)
	}
	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(encoded) > 0 {
		pipe.RPush(ctx, key, encoded...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace actions: %w", err)
	}
	return nil
}
