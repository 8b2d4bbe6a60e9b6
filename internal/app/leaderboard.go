package app

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"decodex/internal/domain"
)

// Scoreboard derives the leaderboard from team scores at read time and pushes it through the hub.
type Scoreboard struct {
	teams  TeamRepository
	hub    *Hub
	logger *slog.Logger
	now    func() time.Time
}

func NewScoreboard(teams TeamRepository, hub *Hub, logger *slog.Logger) *Scoreboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scoreboard{teams: teams, hub: hub, logger: logger, now: time.Now}
}

// Snapshot reads every team and ranks them.
func (s *Scoreboard) Snapshot(ctx context.Context) (domain.Leaderboard, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return domain.Leaderboard{}, classify("list teams", err)
	}
	return BuildLeaderboard(teams, s.now()), nil
}

// Publish recomputes the leaderboard and broadcasts it. Failures are logged, not returned:
// the mutation that triggered the publish has already been committed.
func (s *Scoreboard) Publish(ctx context.Context) {
	if s == nil || s.hub == nil {
		return
	}
	lb, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("leaderboard publish failed", "err", err)
		return
	}
	s.hub.Publish(Event{Type: EventLeaderboard, Payload: lb})
}

// BuildLeaderboard orders teams by score, then by who reached it first.
// Teams that never answered sort after those that did; names break the remaining ties.
func BuildLeaderboard(teams []domain.Team, now time.Time) domain.Leaderboard {
	sorted := append([]domain.Team(nil), teams...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.LastAnswered == nil && b.LastAnswered != nil:
			return false
		case a.LastAnswered != nil && b.LastAnswered == nil:
			return true
		case a.LastAnswered != nil && !a.LastAnswered.Equal(*b.LastAnswered):
			return a.LastAnswered.Before(*b.LastAnswered)
		}
		return a.Name < b.Name
	})

	entries := make([]domain.LeaderboardEntry, 0, len(sorted))
	for i, t := range sorted {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:           i + 1,
			TeamName:       t.Name,
			Score:          t.Score,
			BonusPoints:    t.BonusPoints,
			Solved:         t.Solved(),
			LastAnswered:   t.LastAnswered,
			CompletionTime: t.CompletionTime,
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: now}
}
