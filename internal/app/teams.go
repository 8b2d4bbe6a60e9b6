package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"decodex/internal/domain"
)

// MinPasswordLength is the shortest accepted team password.
const MinPasswordLength = 6

// TeamService registers and authenticates teams.
type TeamService struct {
	teams   TeamRepository
	auth    *Authenticator
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewTeamService(teams TeamRepository, auth *Authenticator, logger *slog.Logger, timeout time.Duration) *TeamService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &TeamService{teams: teams, auth: auth, logger: logger, timeout: timeout, now: time.Now}
}

// Session is a logged-in team and its bearer token.
type Session struct {
	Team  domain.Team `json:"team"`
	Token string      `json:"token"`
}

// Register creates a team with a zero score and one of each power-up and logs it in.
func (s *TeamService) Register(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return Session{}, fmt.Errorf("team name must be 2 to 50 characters: %w", domain.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("email %q: %w", email, domain.ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return Session{}, fmt.Errorf("password must be at least %d characters: %w", MinPasswordLength, domain.ErrValidation)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	team := domain.NewTeam(name, email, hash, s.now())
	if err := s.teams.Create(ctx, team); err != nil {
		return Session{}, classify("create team", err)
	}
	token, err := s.auth.Issue(team.Name, RoleTeam)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info("team registered", "team", team.Name)
	return Session{Team: team, Token: token}, nil
}

// Login checks a team's password and issues a token.
func (s *TeamService) Login(ctx context.Context, name, password string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	team, err := s.teams.Get(ctx, strings.TrimSpace(name))
	if errors.Is(err, domain.ErrNotFound) {
		return Session{}, domain.ErrBadCredentials
	}
	if err != nil {
		return Session{}, classify("get team", err)
	}
	if !VerifyPassword(team.PasswordHash, password) {
		return Session{}, domain.ErrBadCredentials
	}
	token, err := s.auth.Issue(team.Name, RoleTeam)
	if err != nil {
		return Session{}, err
	}
	return Session{Team: team, Token: token}, nil
}

// Get returns one team.
func (s *TeamService) Get(ctx context.Context, name string) (domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	team, err := s.teams.Get(ctx, name)
	if err != nil {
		return domain.Team{}, classify("get team", err)
	}
	return team, nil
}

// List returns every team ordered by registration time.
func (s *TeamService) List(ctx context.Context) ([]domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, classify("list teams", err)
	}
	sort.SliceStable(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].Name < teams[j].Name
	})
	return teams, nil
}
