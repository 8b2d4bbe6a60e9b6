package memory

import (
	"context"
	"strings"
	"sync"

	"decodex/internal/domain"
)

// TeamStore is an in-memory implementation of app.TeamRepository.
// Each team has its own mutex so updates to different teams never contend.
type TeamStore struct {
	mu        sync.RWMutex
	teams     map[string]*teamEntry
	emails    map[string]string
	completed map[string]struct{}
}

type teamEntry struct {
	mu   sync.Mutex
	team domain.Team
}

func NewTeamStore() *TeamStore {
	return &TeamStore{
		teams:     make(map[string]*teamEntry),
		emails:    make(map[string]string),
		completed: make(map[string]struct{}),
	}
}

func (s *TeamStore) Create(_ context.Context, team domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(team.Email)
	if _, ok := s.teams[team.Name]; ok {
		return domain.ErrTeamExists
	}
	if _, ok := s.emails[email]; ok && email != "" {
		return domain.ErrTeamExists
	}
	s.teams[team.Name] = &teamEntry{team: team.Clone()}
	if email != "" {
		s.emails[email] = team.Name
	}
	if team.Finished() {
		s.completed[team.Name] = struct{}{}
	}
	return nil
}

func (s *TeamStore) Get(_ context.Context, name string) (domain.Team, error) {
	entry, ok := s.entry(name)
	if !ok {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.team.Clone(), nil
}

func (s *TeamStore) List(context.Context) ([]domain.Team, error) {
	s.mu.RLock()
	entries := make([]*teamEntry, 0, len(s.teams))
	for _, e := range s.teams {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	teams := make([]domain.Team, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		teams = append(teams, e.team.Clone())
		e.mu.Unlock()
	}
	return teams, nil
}

// Update applies fn under the team's lock and commits only if fn succeeds.
func (s *TeamStore) Update(_ context.Context, name string, fn func(*domain.Team) error) (domain.Team, error) {
	entry, ok := s.entry(name)
	if !ok {
		return domain.Team{}, domain.ErrTeamNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	next := entry.team.Clone()
	if err := fn(&next); err != nil {
		return domain.Team{}, err
	}
	next.Name = entry.team.Name
	next.Version = entry.team.Version + 1
	entry.team = next

	if next.Finished() {
		s.mu.Lock()
		s.completed[next.Name] = struct{}{}
		s.mu.Unlock()
	}
	return next.Clone(), nil
}

// CountCompleted does not take team locks, so it is safe to call from inside an Update fn.
func (s *TeamStore) CountCompleted(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.completed), nil
}

func (s *TeamStore) entry(name string) (*teamEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.teams[name]
	return e, ok
}
