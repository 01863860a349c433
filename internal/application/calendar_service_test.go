package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/sanshin-calendar/internal/calendar"
	"github.com/example/sanshin-calendar/internal/persistence"
)

func TestCalendarService_Sessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newCollectionStub(
		eventSession("e1", "2025-02-15", 10),
		regularSession("s1", "2025-01-20", classSlot("c1", 5)),
	)
	repo.registrations = []calendar.Registration{
		{ID: "r1", SessionID: "c1", Email: "a@x.com"},
		{ID: "r2", SessionID: "e1", Email: "b@x.com"},
		{ID: "r3", SessionID: "gone", Email: "c@x.com"},
	}
	svc := NewCalendarService(repo, repo)

	views, err := svc.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(views) != 2 || views[0].ID != "s1" || views[1].ID != "e1" {
		t.Fatalf("expected sessions sorted by date, got %#v", views)
	}
	if len(views[0].Slots) != 1 || len(views[0].Slots[0].Registrations) != 1 {
		t.Fatalf("expected class registration attached, got %#v", views[0].Slots)
	}
	if len(views[1].EventRegistrations) != 1 {
		t.Fatalf("expected event registration attached, got %#v", views[1].EventRegistrations)
	}

	month, err := svc.Month(ctx, 2025, 2)
	if err != nil {
		t.Fatalf("Month failed: %v", err)
	}
	if len(month) != 1 || month[0].ID != "e1" {
		t.Fatalf("expected February only, got %#v", month)
	}
}

func TestCalendarService_EmptyCollections(t *testing.T) {
	t.Parallel()
	svc := NewCalendarService(newCollectionStub(), newCollectionStub())

	views, err := svc.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if views == nil || len(views) != 0 {
		t.Fatalf("expected empty, non-nil view, got %#v", views)
	}
}

func TestCalendarService_MonthValidation(t *testing.T) {
	t.Parallel()
	svc := NewCalendarService(newCollectionStub(), newCollectionStub())

	_, err := svc.Month(context.Background(), 1800, 13)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.FieldErrors["year"] == "" || vErr.FieldErrors["month"] == "" {
		t.Fatalf("unexpected field errors %v", vErr.FieldErrors)
	}
}

func TestCalendarService_StoreFailure(t *testing.T) {
	t.Parallel()
	repo := newCollectionStub()
	repo.fetchErr = fmt.Errorf("remote: %w", persistence.ErrUnavailable)

	_, err := NewCalendarService(repo, repo).Sessions(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestCalendarService_RefreshFromCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newCollectionStub()
	sessions := NewSessionService(repo, repo, nil)

	created, err := sessions.CreateSession(ctx, regularInput("2025-03-01", classInput("", "10:00")))
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	repo.fetchErr = errors.New("remote must not be read")
	views, err := NewCalendarService(repo, repo).RefreshFromCache(ctx)
	if err != nil {
		t.Fatalf("RefreshFromCache failed: %v", err)
	}
	if len(views) != 1 || views[0].ID != created.ID {
		t.Fatalf("expected created session from cache, got %#v", views)
	}
}
