package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"decodex/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	settingsKey      = "decodex:settings"
	announcementsKey = "decodex:announcements"
)

// SettingsStore keeps the game settings singleton as JSON. A missing key means the quiz has not started.
type SettingsStore struct {
	client *redis.Client
}

func NewSettingsStore(client *redis.Client) *SettingsStore {
	return &SettingsStore{client: client}
}

func (s *SettingsStore) GetSettings(ctx context.Context) (domain.GameSettings, error) {
	raw, err := s.client.Get(ctx, settingsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GameSettings{}, nil
	}
	if err != nil {
		return domain.GameSettings{}, fmt.Errorf("get settings: %w", err)
	}
	var gs domain.GameSettings
	if err := json.Unmarshal(raw, &gs); err != nil {
		return domain.GameSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	return gs, nil
}

func (s *SettingsStore) SaveSettings(ctx context.Context, gs domain.GameSettings) error {
	raw, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := s.client.Set(ctx, settingsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// AnnouncementStore appends announcements to a Redis list.
type AnnouncementStore struct {
	client *redis.Client
}

func NewAnnouncementStore(client *redis.Client) *AnnouncementStore {
	return &AnnouncementStore{client: client}
}

func (s *AnnouncementStore) CreateAnnouncement(ctx context.Context, a domain.Announcement) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode announcement: %w", err)
	}
	if err := s.client.RPush(ctx, announcementsKey, raw).Err(); err != nil {
		return fmt.Errorf("store announcement: %w", err)
	}
	return nil
}

func (s *AnnouncementStore) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	vals, err := s.client.LRange(ctx, announcementsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	out := make([]domain.Announcement, 0, len(vals))
	for _, v := range vals {
		var a domain.Announcement
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			return nil, fmt.Errorf("decode announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}
