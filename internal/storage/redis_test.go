package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/nebulagames/story-relay/pkg/story"
)

func setupTestRedis(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := NewRedisSessionStore("redis://"+mr.Addr(), logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create Redis session store: %v", err)
	}

	return store, mr
}

func TestRedisSessionStore_GetOrCreate(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	s, created, err := store.GetOrCreate(ctx, "15551234567", "intro/welcome")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if !created {
		t.Error("Expected session to be created")
	}
	if s.CurrentScene != "intro/welcome" {
		t.Errorf("Expected current scene 'intro/welcome', got %v", s.CurrentScene)
	}

	// The session is persisted under its key.
	if !mr.Exists("session:15551234567") {
		t.Error("Expected session key to exist in Redis")
	}

	_, created, err = store.GetOrCreate(ctx, "15551234567", "intro/welcome")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if created {
		t.Error("Expected existing session, not a new one")
	}
}

func TestRedisSessionStore_GetUnknownPlayer(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	_, err := store.Get(context.Background(), "nobody")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisSessionStore_Update(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	if _, _, err := store.GetOrCreate(ctx, "p1", "intro/welcome"); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	updated, err := store.Update(ctx, "p1", func(s *story.Session) error {
		s.AddItem("boarding_pass")
		s.MoveTo("ship/hangar")
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to update session: %v", err)
	}
	if updated.CurrentScene != "ship/hangar" {
		t.Errorf("Expected current scene 'ship/hangar', got %v", updated.CurrentScene)
	}

	// Round-trip through Redis preserves the update.
	loaded, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if loaded.CurrentScene != "ship/hangar" {
		t.Errorf("Expected persisted scene 'ship/hangar', got %v", loaded.CurrentScene)
	}
	if len(loaded.Inventory) != 1 || loaded.Inventory[0] != "boarding_pass" {
		t.Errorf("Expected inventory [boarding_pass], got %v", loaded.Inventory)
	}
	if !loaded.Visited["ship/hangar"] || !loaded.Visited["intro/welcome"] {
		t.Errorf("Expected both scenes visited, got %v", loaded.Visited)
	}
}

func TestRedisSessionStore_UpdateUnknownPlayer(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	_, err := store.Update(context.Background(), "nobody", func(s *story.Session) error { return nil })
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestRedisSessionStore_SessionsDoNotExpire(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer mr.Close()
	defer store.Close()

	if _, _, err := store.GetOrCreate(context.Background(), "p1", "intro/welcome"); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if mr.TTL("session:p1") != 0 {
		t.Errorf("Expected no TTL on session key, got %v", mr.TTL("session:p1"))
	}
}

func TestRedisSessionStore_Ping(t *testing.T) {
	store, mr := setupTestRedis(t)
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Expected ping to succeed: %v", err)
	}

	mr.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("Expected ping to fail after Redis shutdown")
	}
}

func TestNewRedisSessionStore_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	if _, err := NewRedisSessionStore("not-a-url", logger); err == nil {
		t.Error("Expected error for invalid Redis URL")
	}
}
