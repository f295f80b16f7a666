package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:"

// RedisPresenceMirror publishes bind/unbind events to a shared keyed store
// with a TTL, so presence stays visible across instances. The in-process
// registry remains the source of truth for local delivery; the mirror is
// strictly additive and best-effort.
type RedisPresenceMirror struct {
	rdb *redis.Client
	ttl time.Duration
	log *log.Logger
}

func NewRedisPresenceMirror(addr string, ttl time.Duration, logger *log.Logger) *RedisPresenceMirror {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	return &RedisPresenceMirror{
		rdb: rdb,
		ttl: ttl,
		log: logger,
	}
}

func presenceKey(userId int) string {
	return fmt.Sprintf("%s%d", presenceKeyPrefix, userId)
}

func (m *RedisPresenceMirror) Bind(ctx context.Context, userId int) {
	if err := m.rdb.Set(ctx, presenceKey(userId), time.Now().UTC().Unix(), m.ttl).Err(); err != nil {
		m.log.Printf("presence mirror: bind user %d: %v", userId, err)
	}
}

func (m *RedisPresenceMirror) Unbind(ctx context.Context, userId int) {
	if err := m.rdb.Del(ctx, presenceKey(userId)).Err(); err != nil {
		m.log.Printf("presence mirror: unbind user %d: %v", userId, err)
	}
}

// Refresh re-arms the TTL for every locally bound user. Called on a
// heartbeat so entries for crashed instances expire on their own.
func (m *RedisPresenceMirror) Refresh(ctx context.Context, userIds []int) {
	for _, id := range userIds {
		if err := m.rdb.Expire(ctx, presenceKey(id), m.ttl).Err(); err != nil {
			m.log.Printf("presence mirror: refresh user %d: %v", id, err)
		}
	}
}

func (m *RedisPresenceMirror) Online(ctx context.Context, userId int) (bool, error) {
	n, err := m.rdb.Exists(ctx, presenceKey(userId)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *RedisPresenceMirror) Close() error {
	return m.rdb.Close()
}
