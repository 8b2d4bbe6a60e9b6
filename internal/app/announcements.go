package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"decodex/internal/domain"
)

// AnnouncementService stores admin broadcasts and pushes new ones to connected clients.
type AnnouncementService struct {
	repo    AnnouncementRepository
	hub     *Hub
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewAnnouncementService(repo AnnouncementRepository, hub *Hub, logger *slog.Logger, timeout time.Duration) *AnnouncementService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &AnnouncementService{repo: repo, hub: hub, logger: logger, timeout: timeout, now: time.Now}
}

// Create validates and stores an announcement. A zero ttl means it never expires.
func (s *AnnouncementService) Create(ctx context.Context, title, message string, kind domain.AnnouncementKind, ttl time.Duration) (domain.Announcement, error) {
	title, message = strings.TrimSpace(title), strings.TrimSpace(message)
	if title == "" || message == "" {
		return domain.Announcement{}, fmt.Errorf("announcement needs a title and a message: %w", domain.ErrValidation)
	}
	switch kind {
	case "":
		kind = domain.AnnouncementInfo
	case domain.AnnouncementInfo, domain.AnnouncementWarning, domain.AnnouncementSuccess, domain.AnnouncementUrgent:
	default:
		return domain.Announcement{}, fmt.Errorf("announcement kind %q: %w", kind, domain.ErrValidation)
	}
	if ttl < 0 {
		return domain.Announcement{}, fmt.Errorf("announcement ttl must not be negative: %w", domain.ErrValidation)
	}

	now := s.now()
	a := domain.Announcement{
		ID:        uuid.NewString(),
		Title:     title,
		Message:   message,
		Kind:      kind,
		IsActive:  true,
		CreatedAt: now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		a.ExpiresAt = &exp
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		return domain.Announcement{}, classify("create announcement", err)
	}
	s.logger.Info("announcement created", "id", a.ID, "kind", a.Kind)
	if s.hub != nil {
		s.hub.Publish(Event{Type: EventAnnouncement, Payload: a})
	}
	return a, nil
}

// Active lists visible announcements, newest first.
func (s *AnnouncementService) Active(ctx context.Context) ([]domain.Announcement, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	all, err := s.repo.ListAnnouncements(ctx)
	if err != nil {
		return nil, classify("list announcements", err)
	}
	now := s.now()
	visible := make([]domain.Announcement, 0, len(all))
	for _, a := range all {
		if a.Visible(now) {
			visible = append(visible, a)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool { return visible[i].CreatedAt.After(visible[j].CreatedAt) })
	return visible, nil
}
