package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"decodex/internal/domain"
)

// Default points of the generated path questions when the author leaves them at zero.
const (
	DefaultEasyPoints = 100
	DefaultHardPoints = 200
)

// BranchIDs identifies a freshly created branch point and its two path questions.
type BranchIDs struct {
	QuestionID string `json:"questionId"`
	EasyID     string `json:"easyChoiceId"`
	HardID     string `json:"hardChoiceId"`
}

// CatalogService handles question authoring. Every write invalidates the catalog cache.
type CatalogService struct {
	repo    QuestionRepository
	cache   CatalogCache
	teams   TeamRepository
	logger  *slog.Logger
	timeout time.Duration

	// mu serializes authoring writes so ordinals are assigned without gaps or duplicates.
	mu sync.Mutex
}

func NewCatalogService(repo QuestionRepository, cache CatalogCache, teams TeamRepository, logger *slog.Logger, timeout time.Duration) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultOpTimeout
	}
	return &CatalogService{repo: repo, cache: cache, teams: teams, logger: logger, timeout: timeout}
}

// Catalog returns the current snapshot, answers included. Admin only.
func (s *CatalogService) Catalog(ctx context.Context) (domain.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	c, err := s.cache.Catalog(ctx)
	if err != nil {
		return domain.Catalog{}, classify("load catalog", err)
	}
	return c, nil
}

// CountActive returns the number of servable questions.
func (s *CatalogService) CountActive(ctx context.Context) (int, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return 0, err
	}
	return c.CountActive(), nil
}

// AddQuestion appends a plain question at the end of the sequence.
func (s *CatalogService) AddQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := normalizeQuestion(&q); err != nil {
		return domain.Question{}, err
	}
	q.IsBranchPoint = false

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.cache.Catalog(ctx)
	if err != nil {
		return domain.Question{}, classify("load catalog", err)
	}
	if err := checkNext(c, q); err != nil {
		return domain.Question{}, err
	}
	q.ID = uuid.NewString()
	q.OrderIndex = c.MaxOrderIndex() + 1
	if err := s.repo.InsertQuestion(ctx, q); err != nil {
		return domain.Question{}, classify("insert question", err)
	}
	s.invalidate(ctx)

	s.logger.Info("question added", "question_id", q.ID, "order_index", q.OrderIndex)
	return q, nil
}

// CreateBranch appends a branch point together with its easy and hard path questions.
func (s *CatalogService) CreateBranch(ctx context.Context, q domain.Question, easy, hard domain.ChoiceSpec) (BranchIDs, error) {
	if err := normalizeQuestion(&q); err != nil {
		return BranchIDs{}, err
	}
	if err := checkSpec("easy", &easy, DefaultEasyPoints); err != nil {
		return BranchIDs{}, err
	}
	if err := checkSpec("hard", &hard, DefaultHardPoints); err != nil {
		return BranchIDs{}, err
	}
	q.IsBranchPoint = true

	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.cache.Catalog(ctx)
	if err != nil {
		return BranchIDs{}, classify("load catalog", err)
	}
	if err := checkNext(c, q); err != nil {
		return BranchIDs{}, err
	}
	q.ID = uuid.NewString()
	q.OrderIndex = c.MaxOrderIndex() + 1
	easyQ := choiceFromSpec(q, domain.DifficultyEasy, easy)
	hardQ := choiceFromSpec(q, domain.DifficultyHard, hard)
	if err := s.repo.InsertBranch(ctx, q, easyQ, hardQ); err != nil {
		return BranchIDs{}, classify("insert branch", err)
	}
	s.invalidate(ctx)

	s.logger.Info("branch created", "question_id", q.ID, "easy_id", easyQ.ID, "hard_id", hardQ.ID)
	return BranchIDs{QuestionID: q.ID, EasyID: easyQ.ID, HardID: hardQ.ID}, nil
}

// ChoicesFor returns the [easy, hard] path questions of a branch point.
func (s *CatalogService) ChoicesFor(ctx context.Context, branchID string) ([]domain.ChoiceQuestion, error) {
	c, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	choices, ok := c.ChoicesFor(branchID)
	if !ok {
		return nil, domain.ErrBranchNotFound
	}
	return choices, nil
}

// SetActive toggles whether a question is served. Teams keep their explicit pointer, so a
// toggle never moves a team onto a question it already played.
func (s *CatalogService) SetActive(ctx context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.cache.Catalog(ctx)
	if err != nil {
		return classify("load catalog", err)
	}
	if _, ok := c.QuestionByID(id); !ok {
		return domain.ErrQuestionNotFound
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return classify("set active", err)
	}
	s.invalidate(ctx)
	s.logger.Info("question toggled", "question_id", id, "active", active)
	return nil
}

// Reorder assigns ordinals 1..n in the order of ids, which must name every question exactly once.
func (s *CatalogService) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.cache.Catalog(ctx)
	if err != nil {
		return classify("load catalog", err)
	}
	if len(ids) != len(c.Questions) {
		return fmt.Errorf("reorder lists %d of %d questions: %w", len(ids), len(c.Questions), domain.ErrValidation)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.QuestionByID(id); !ok {
			return fmt.Errorf("reorder: unknown question %s: %w", id, domain.ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("reorder: question %s listed twice: %w", id, domain.ErrValidation)
		}
		seen[id] = struct{}{}
	}
	if err := s.repo.SetOrder(ctx, ids); err != nil {
		return classify("set order", err)
	}
	s.invalidate(ctx)
	s.logger.Info("questions reordered", "count", len(ids))
	return nil
}

// DeleteBranch turns a branch point back into a plain question. Teams waiting on the choice
// or playing one of its paths continue after the branch point.
func (s *CatalogService) DeleteBranch(ctx context.Context, branchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.cache.Catalog(ctx)
	if err != nil {
		return classify("load catalog", err)
	}
	branch, ok := c.QuestionByID(branchID)
	if !ok || !branch.IsBranchPoint {
		return domain.ErrBranchNotFound
	}
	choiceIDs := choiceIDsOf(c, branchID)

	if err := s.repo.DeleteChoices(ctx, branchID); err != nil {
		return classify("delete choices", err)
	}
	s.invalidate(ctx)

	touches := func(t domain.Team) bool {
		return t.PendingBranchID == branchID || choiceIDs[t.CurrentQuestionID]
	}
	moved, err := s.repairTeams(ctx, touches, func(t *domain.Team) {
		t.PendingBranchID = ""
		t.HintRevealedFor = ""
		advance(c, t, target{main: &branch, position: branchPosition(c, branchID, t.CurrentQuestion)})
	})
	if err != nil {
		return err
	}
	s.logger.Info("branch deleted", "question_id", branchID, "teams_moved", moved)
	return nil
}

// DeleteQuestion removes a question and its path questions. Teams on any of them move on to
// the question that followed it.
func (s *CatalogService) DeleteQuestion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.cache.Catalog(ctx)
	if err != nil {
		return classify("load catalog", err)
	}
	if _, ok := c.QuestionByID(id); !ok {
		return domain.ErrQuestionNotFound
	}
	choiceIDs := choiceIDsOf(c, id)
	pos, active := c.PositionOf(id)
	following, hasFollowing := c.NextActiveAfter(id)

	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return classify("delete question", err)
	}
	s.invalidate(ctx)

	onDeleted := func(t domain.Team) bool {
		return t.PendingBranchID == id || t.CurrentQuestionID == id || choiceIDs[t.CurrentQuestionID]
	}
	touches := func(t domain.Team) bool {
		return onDeleted(t) || (active && t.CurrentQuestion > pos)
	}
	moved, err := s.repairTeams(ctx, touches, func(t *domain.Team) {
		if onDeleted(*t) {
			t.PendingBranchID = ""
			t.HintRevealedFor = ""
			t.CurrentQuestionID = ""
			if hasFollowing {
				t.CurrentQuestionID = following.ID
			}
		}
		if active && t.CurrentQuestion > pos {
			t.CurrentQuestion--
		}
	})
	if err != nil {
		return err
	}
	s.logger.Info("question deleted", "question_id", id, "teams_moved", moved)
	return nil
}

// repairTeams applies fix to every team matching touches, rechecking the match inside the
// atomic update so concurrent progress is not clobbered. It runs after the catalog write so a
// failed write leaves every team untouched.
func (s *CatalogService) repairTeams(ctx context.Context, touches func(domain.Team) bool, fix func(*domain.Team)) (int, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return 0, classify("list teams", err)
	}
	moved := 0
	for _, team := range teams {
		if !touches(team) {
			continue
		}
		_, err := s.teams.Update(ctx, team.Name, func(t *domain.Team) error {
			if !touches(*t) {
				return errNoChange
			}
			fix(t)
			return nil
		})
		switch {
		case err == nil:
			moved++
		case errors.Is(err, errNoChange), errors.Is(err, domain.ErrNotFound):
		default:
			return moved, classify("repair team", err)
		}
	}
	return moved, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("catalog cache invalidation failed", "err", err)
	}
}

func choiceIDsOf(c domain.Catalog, branchID string) map[string]bool {
	ids := make(map[string]bool, 2)
	for _, ch := range c.Choices {
		if ch.BranchQuestionID == branchID {
			ids[ch.ID] = true
		}
	}
	return ids
}

func normalizeQuestion(q *domain.Question) error {
	q.Title = strings.TrimSpace(q.Title)
	q.Prompt = strings.TrimSpace(q.Prompt)
	if q.Prompt == "" {
		return fmt.Errorf("question prompt is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(q.Answer) == "" {
		return fmt.Errorf("question answer is required: %w", domain.ErrValidation)
	}
	if q.Points < 0 {
		return fmt.Errorf("question points must not be negative: %w", domain.ErrValidation)
	}
	switch q.MediaType {
	case "":
		q.MediaType = domain.MediaText
	case domain.MediaText, domain.MediaImage, domain.MediaVideo, domain.MediaAudio, domain.MediaDocument, domain.MediaFile:
	default:
		return fmt.Errorf("media type %q: %w", q.MediaType, domain.ErrValidation)
	}
	switch q.Difficulty {
	case "":
		q.Difficulty = domain.DifficultyNormal
	case domain.DifficultyEasy, domain.DifficultyNormal, domain.DifficultyHard, domain.DifficultyExpert:
	default:
		return fmt.Errorf("difficulty %q: %w", q.Difficulty, domain.ErrValidation)
	}
	if q.Title == "" {
		q.Title = "Question"
	}
	return nil
}

func checkNext(c domain.Catalog, q domain.Question) error {
	if q.NextQuestionID == "" {
		return nil
	}
	if _, ok := c.QuestionByID(q.NextQuestionID); !ok {
		return fmt.Errorf("next question %s does not exist: %w", q.NextQuestionID, domain.ErrValidation)
	}
	return nil
}

func checkSpec(side string, spec *domain.ChoiceSpec, defaultPoints int) error {
	if strings.TrimSpace(spec.Prompt) == "" || strings.TrimSpace(spec.Answer) == "" {
		return fmt.Errorf("%s path needs a prompt and an answer: %w", side, domain.ErrValidation)
	}
	if spec.Points < 0 {
		return fmt.Errorf("%s path points must not be negative: %w", side, domain.ErrValidation)
	}
	if spec.Points == 0 {
		spec.Points = defaultPoints
	}
	return nil
}

func choiceFromSpec(branch domain.Question, difficulty domain.Difficulty, spec domain.ChoiceSpec) domain.ChoiceQuestion {
	title := "Easy Path"
	if difficulty == domain.DifficultyHard {
		title = "Hard Path"
	}
	return domain.ChoiceQuestion{
		ID:               uuid.NewString(),
		BranchQuestionID: branch.ID,
		Title:            title,
		Prompt:           strings.TrimSpace(spec.Prompt),
		MediaType:        domain.MediaText,
		Answer:           spec.Answer,
		Hint:             spec.Hint,
		Points:           spec.Points,
		Category:         branch.Category,
		Difficulty:       difficulty,
		IsActive:         true,
	}
}
