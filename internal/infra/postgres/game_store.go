package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"decodex/internal/domain"
	"github.com/uptrace/bun"
)

const settingsID = 1

// SettingsStore keeps the game settings singleton in a one-row table.
type SettingsStore struct {
	db *bun.DB
}

func NewSettingsStore(db *bun.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) GetSettings(ctx context.Context) (domain.GameSettings, error) {
	row := new(settingsRow)
	err := s.db.NewSelect().Model(row).Where("id = ?", settingsID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameSettings{}, nil
	}
	if err != nil {
		return domain.GameSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return domain.GameSettings{QuizActive: row.QuizActive, QuizPaused: row.QuizPaused, UpdatedAt: row.UpdatedAt}, nil
}

func (s *SettingsStore) SaveSettings(ctx context.Context, gs domain.GameSettings) error {
	row := &settingsRow{ID: settingsID, QuizActive: gs.QuizActive, QuizPaused: gs.QuizPaused, UpdatedAt: gs.UpdatedAt}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("quiz_active = EXCLUDED.quiz_active").
		Set("quiz_paused = EXCLUDED.quiz_paused").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// AnnouncementStore keeps announcements in Postgres.
type AnnouncementStore struct {
	db *bun.DB
}

func NewAnnouncementStore(db *bun.DB) *AnnouncementStore {
	return &AnnouncementStore{db: db}
}

func (s *AnnouncementStore) CreateAnnouncement(ctx context.Context, a domain.Announcement) error {
	row := &announcementRow{
		ID:        a.ID,
		Title:     a.Title,
		Message:   a.Message,
		Kind:      string(a.Kind),
		IsActive:  a.IsActive,
		ExpiresAt: a.ExpiresAt,
		CreatedAt: a.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

func (s *AnnouncementStore) ListAnnouncements(ctx context.Context) ([]domain.Announcement, error) {
	var rows []announcementRow
	if err := s.db.NewSelect().Model(&rows).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	out := make([]domain.Announcement, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
