package postgres

import (
	"context"
	"testing"

	"grid_bot/internal/modules/config"
	"grid_bot/internal/storage/memory"

	"go.uber.org/fx/fxtest"
)

func TestNewStoreFallsBackToMemory(t *testing.T) {
	store, err := NewStore(context.Background(), fxtest.NewLifecycle(t), &config.Config{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("got %T, want *memory.Store", store)
	}
}

func TestNewStoreBadDSN(t *testing.T) {
	cfg := &config.Config{DB: "postgres://%zz"}
	if _, err := NewStore(context.Background(), fxtest.NewLifecycle(t), cfg); err == nil {
		t.Fatal("expected error for malformed dsn")
	}
}
