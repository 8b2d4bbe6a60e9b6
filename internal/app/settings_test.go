package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"decodex/internal/app"
	"decodex/internal/domain"
	"decodex/internal/infra/memory"
)

func TestSettingsUpdatePublishes(t *testing.T) {
	ctx := context.Background()
	hub := app.NewHub()
	svc := app.NewSettingsService(memory.NewSettingsStore(domain.GameSettings{}), hub, quietLogger(), time.Second)
	events, cancel := hub.Subscribe()
	defer cancel()

	view, err := svc.Get(ctx)
	if err != nil || view.State != domain.GameWaiting {
		t.Fatalf("expected waiting, got %+v %v", view, err)
	}

	active, paused := true, true
	if view, err = svc.Update(ctx, &active, nil); err != nil || view.State != domain.GameRunning {
		t.Fatalf("expected running, got %+v %v", view, err)
	}
	if view, err = svc.Update(ctx, nil, &paused); err != nil || view.State != domain.GamePaused {
		t.Fatalf("expected paused, got %+v %v", view, err)
	}

	got := 0
	for got < 2 {
		select {
		case ev := <-events:
			if ev.Type != app.EventSettings {
				t.Fatalf("unexpected event %+v", ev)
			}
			got++
		case <-time.After(time.Second):
			t.Fatalf("expected 2 settings events, got %d", got)
		}
	}
}

func TestAnnouncements(t *testing.T) {
	ctx := context.Background()
	svc := app.NewAnnouncementService(memory.NewAnnouncementStore(), app.NewHub(), quietLogger(), time.Second)

	if _, err := svc.Create(ctx, "", "body", "", 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.Create(ctx, "t", "body", "shout", 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for kind, got %v", err)
	}

	first, err := svc.Create(ctx, "Welcome", "Good luck", "", 0)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Kind != domain.AnnouncementInfo || first.ExpiresAt != nil {
		t.Fatalf("unexpected defaults %+v", first)
	}
	if _, err := svc.Create(ctx, "Flash", "gone soon", domain.AnnouncementUrgent, time.Nanosecond); err != nil {
		t.Fatalf("create expiring: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	active, err := svc.Active(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if len(active) != 1 || active[0].ID != first.ID {
		t.Fatalf("expected only the non-expired announcement, got %+v", active)
	}
}
