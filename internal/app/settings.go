package app

import (
	"context"
	"log/slog"
	"time"

	"decodex/internal/domain"
)

// SettingsService reads and toggles the game gate and pushes every change to subscribers.
type SettingsService struct {
	repo    SettingsRepository
	hub     *Hub
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewSettingsService(repo SettingsRepository, hub *Hub, logger *slog.Logger, timeout time.Duration) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &SettingsService{repo: repo, hub: hub, logger: logger, timeout: timeout, now: time.Now}
}

// SettingsView is the public game state.
type SettingsView struct {
	domain.GameSettings
	State domain.GameState `json:"state"`
}

func (s *SettingsService) Get(ctx context.Context) (SettingsView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	gs, err := s.repo.GetSettings(ctx)
	if err != nil {
		return SettingsView{}, classify("load settings", err)
	}
	return SettingsView{GameSettings: gs, State: gs.State()}, nil
}

// Update changes whichever flags are non-nil. Pausing an inactive quiz is stored but has no effect.
func (s *SettingsService) Update(ctx context.Context, active, paused *bool) (SettingsView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gs, err := s.repo.GetSettings(ctx)
	if err != nil {
		return SettingsView{}, classify("load settings", err)
	}
	if active != nil {
		gs.QuizActive = *active
	}
	if paused != nil {
		gs.QuizPaused = *paused
	}
	gs.UpdatedAt = s.now()
	if err := s.repo.SaveSettings(ctx, gs); err != nil {
		return SettingsView{}, classify("save settings", err)
	}

	view := SettingsView{GameSettings: gs, State: gs.State()}
	s.logger.Info("game settings updated", "state", view.State)
	if s.hub != nil {
		s.hub.Publish(Event{Type: EventSettings, Payload: view})
	}
	return view, nil
}
