package cart

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/redis/go-redis/v9"
)

// ErrSlotEmpty is returned by Load when nothing has been saved yet.
var ErrSlotEmpty = errors.New("cart slot is empty")

// Slot is a single durable value holding the serialized cart.
type Slot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

const pebbleKey = "bazar:cart"

// PebbleSlot keeps the cart in a local pebble database.
type PebbleSlot struct {
	db *pebble.DB
}

func OpenPebbleSlot(dir string) (*PebbleSlot, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleSlot{db: db}, nil
}

func (s *PebbleSlot) Load(context.Context) ([]byte, error) {
	v, closer, err := s.db.Get([]byte(pebbleKey))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (s *PebbleSlot) Save(_ context.Context, data []byte) error {
	if err := s.db.Set([]byte(pebbleKey), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

func (s *PebbleSlot) Close() error { return s.db.Close() }

// RedisSlot shares one cart per profile through Redis. Concurrent writers are
// not coordinated; the last save wins.
type RedisSlot struct {
	client *redis.Client
	key    string
}

func NewRedisSlot(client *redis.Client, profile string) *RedisSlot {
	return &RedisSlot{client: client, key: redisKey(profile)}
}

func redisKey(profile string) string {
	return fmt.Sprintf("cart:%s", profile)
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s *RedisSlot) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
