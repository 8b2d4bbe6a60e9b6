package memory

import (
	"context"
	"sync"

	"decodex/internal/domain"
)

// SettingsStore holds the game settings singleton. The zero value is a quiz that has not started.
type SettingsStore struct {
	mu       sync.RWMutex
	settings domain.GameSettings
}

func NewSettingsStore(initial domain.GameSettings) *SettingsStore {
	return &SettingsStore{settings: initial}
}

func (s *SettingsStore) GetSettings(context.Context) (domain.GameSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *SettingsStore) SaveSettings(_ context.Context, gs domain.GameSettings) error {
	s.mu.Lock()
	s.settings = gs
	s.mu.Unlock()
	return nil
}

// AnnouncementStore keeps announcements in insertion order.
type AnnouncementStore struct {
	mu    sync.RWMutex
	items []domain.Announcement
}

func NewAnnouncementStore() *AnnouncementStore {
	return &AnnouncementStore{}
}

func (s *AnnouncementStore) CreateAnnouncement(_ context.Context, a domain.Announcement) error {
	s.mu.Lock()
	s.items = append(s.items, a)
	s.mu.Unlock()
	return nil
}

func (s *AnnouncementStore) ListAnnouncements(context.Context) ([]domain.Announcement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Announcement(nil), s.items...), nil
}
