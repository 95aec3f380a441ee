package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nebulagames/story-relay/pkg/story"
)

const sessionKeyPrefix = "session:"

// RedisSessionStore persists sessions in Redis so relay restarts don't
// lose narrative state. Per-player mutual exclusion is a local keyed
// mutex; the relay is single-instance, so no distributed lock is
// needed.
type RedisSessionStore struct {
	client *redis.Client
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ SessionStore = (*RedisSessionStore)(nil)

// NewRedisSessionStore connects to Redis using a redis:// URL.
func NewRedisSessionStore(redisURL string, logger *slog.Logger) (*RedisSessionStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &RedisSessionStore{
		client: redis.NewClient(opt),
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func (r *RedisSessionStore) playerLock(playerID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[playerID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[playerID] = l
	}
	return l
}

func (r *RedisSessionStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisSessionStore) load(ctx context.Context, playerID string) (*story.Session, error) {
	cmd := r.client.Get(ctx, sessionKeyPrefix+playerID)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		r.logger.Error("Failed to load session", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s story.Session
	if err := json.Unmarshal([]byte(cmd.Val()), &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "player_id", playerID, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// save writes the session without a TTL. Sessions never expire, which
// matches the in-memory store's lifetime semantics.
func (r *RedisSessionStore) save(ctx context.Context, s *story.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.PlayerID, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save session", "player_id", s.PlayerID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, playerID string) (*story.Session, error) {
	return r.load(ctx, playerID)
}

func (r *RedisSessionStore) GetOrCreate(ctx context.Context, playerID, startScene string) (*story.Session, bool, error) {
	l := r.playerLock(playerID)
	l.Lock()
	defer l.Unlock()

	s, err := r.load(ctx, playerID)
	if err == nil {
		return s, false, nil
	}
	if err != ErrSessionNotFound {
		return nil, false, err
	}

	s = story.NewSession(playerID, startScene)
	if err := r.save(ctx, s); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (r *RedisSessionStore) Update(ctx context.Context, playerID string, fn func(*story.Session) error) (*story.Session, error) {
	l := r.playerLock(playerID)
	l.Lock()
	defer l.Unlock()

	s, err := r.load(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()

	if err := r.save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
