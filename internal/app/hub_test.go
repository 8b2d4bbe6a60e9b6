package app_test

import (
	"testing"
	"time"

	"decodex/internal/app"
	"decodex/internal/domain"
)

func TestHubReplaysLatestEventPerType(t *testing.T) {
	hub := app.NewHub()
	hub.Publish(app.Event{Type: app.EventSettings, Payload: 1})
	hub.Publish(app.Event{Type: app.EventSettings, Payload: 2})

	ch, cancel := hub.Subscribe()
	defer cancel()

	select {
	case ev := <-ch:
		if ev.Type != app.EventSettings || ev.Payload != 2 {
			t.Fatalf("expected latest settings event, got %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected primed event")
	}
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := app.NewHub()
	ch, cancel := hub.Subscribe()
	if hub.Subscribers() != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.Subscribers())
	}
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}
}

func TestHubDropsOldestForSlowReaders(t *testing.T) {
	hub := app.NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 40; i++ {
		hub.Publish(app.Event{Type: app.EventLeaderboard, Payload: i})
	}
	var last app.Event
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Payload != 39 {
		t.Fatalf("expected newest event to survive, got %+v", last)
	}
}

func TestBuildLeaderboardOrdering(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	early, late := base, base.Add(time.Minute)
	teams := []domain.Team{
		{Name: "zeta", Score: 300, LastAnswered: &late},
		{Name: "alpha", Score: 300, LastAnswered: &early},
		{Name: "idle", Score: 0},
		{Name: "beta", Score: 0, LastAnswered: &early},
		{Name: "top", Score: 900, LastAnswered: &late, QuestionPath: []domain.PathEntry{{QuestionID: "q1"}, {QuestionID: "q2", Skipped: true}}},
	}

	lb := app.BuildLeaderboard(teams, base)
	want := []string{"top", "alpha", "zeta", "beta", "idle"}
	if len(lb.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(lb.Entries))
	}
	for i, name := range want {
		if lb.Entries[i].TeamName != name || lb.Entries[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s, got %+v", i, name, lb.Entries[i])
		}
	}
	if lb.Entries[0].Solved != 1 {
		t.Fatalf("skipped entries must not count as solved, got %d", lb.Entries[0].Solved)
	}
}
