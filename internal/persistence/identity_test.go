package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/sanshin-calendar/internal/persistence"
	"github.com/example/sanshin-calendar/internal/testfixtures"
)

func TestIdentityStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache := testfixtures.NewMemoryCache()
	store := persistence.NewIdentityStore(cache)

	if _, err := store.LoadIdentity(ctx, "client-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	want := persistence.Identity{Name: "Alice", Email: "alice@x.com", Color: "#3182CE"}
	if err := store.SaveIdentity(ctx, "client-1", want); err != nil {
		t.Fatalf("SaveIdentity failed: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, persistence.IdentityKey("client-1")); !ok {
		t.Fatalf("expected identity under its cache key")
	}

	got, err := store.LoadIdentity(ctx, "client-1")
	if err != nil {
		t.Fatalf("LoadIdentity failed: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected identity: %#v", got)
	}
	if _, err := store.LoadIdentity(ctx, "client-2"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("identities must be scoped per client, got %v", err)
	}

	if err := store.DeleteIdentity(ctx, "client-1"); err != nil {
		t.Fatalf("DeleteIdentity failed: %v", err)
	}
	if _, err := store.LoadIdentity(ctx, "client-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
