// Package presence tracks user liveness. The only persisted state is a
// last-active timestamp per user in Redis; online/offline is always
// derived from it at read time and never stored.
package presence

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Window is how recently a user must have been active to count as
// online.
const Window = 5 * time.Minute

const keyPrefix = "presence:last_active:"

// Online reports whether a user seen at lastActive counts as online at
// now. A zero lastActive (never seen) is always offline.
func Online(lastActive, now time.Time) bool {
	if lastActive.IsZero() {
		return false
	}
	return now.Sub(lastActive) < Window
}

// Store keeps last-active timestamps in Redis, one key per user,
// value unix milliseconds.
type Store struct {
	rdb *redis.Client
}

func NewStore(addr string) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func NewStoreWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Touch records that the user was active at the given instant.
func (s *Store) Touch(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return s.rdb.Set(ctx, keyPrefix+userID.String(), at.UnixMilli(), 0).Err()
}

// LastActive batch-resolves last-active timestamps with one MGET.
// Users never seen are absent from the result map.
func (s *Store) LastActive(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	if len(userIDs) == 0 {
		return map[uuid.UUID]time.Time{}, nil
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = keyPrefix + id.String()
	}
	values, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]time.Time, len(userIDs))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[userIDs[i]] = time.UnixMilli(ms)
	}
	return out, nil
}

func (s *Store) Close() error { return s.rdb.Close() }
