package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"decodex/internal/domain"
)

// DefaultOpTimeout bounds every engine operation when no timeout is configured.
const DefaultOpTimeout = 5 * time.Second

// EngineConfig carries the optional collaborators of the Engine.
type EngineConfig struct {
	Bonus      BonusPolicy
	OpTimeout  time.Duration
	Scoreboard *Scoreboard
	Logger     *slog.Logger
	Clock      func() time.Time
}

// Engine is the branching progression state machine. Each team moves through
// awaiting_question -> (awaiting_choice ->) ... -> complete.
type Engine struct {
	catalog  CatalogReader
	teams    TeamRepository
	settings SettingsRepository
	bonus    BonusPolicy
	board    *Scoreboard
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time

	// finishMu serializes completion so ranks are handed out one at a time.
	finishMu sync.Mutex
}

func NewEngine(catalog CatalogReader, teams TeamRepository, settings SettingsRepository, cfg EngineConfig) *Engine {
	e := &Engine{
		catalog:  catalog,
		teams:    teams,
		settings: settings,
		bonus:    cfg.Bonus,
		board:    cfg.Scoreboard,
		logger:   cfg.Logger,
		timeout:  cfg.OpTimeout,
		now:      cfg.Clock,
	}
	if e.bonus == nil {
		e.bonus = NewTieredBonus(nil)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.timeout <= 0 {
		e.timeout = DefaultOpTimeout
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// NextQuestion reports what the team should see now: a sanitized question, its two path choices, or completion.
func (e *Engine) NextQuestion(ctx context.Context, teamName string) (domain.Progress, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.gate(ctx); err != nil {
		return domain.Progress{}, err
	}
	c, err := e.catalog.Catalog(ctx)
	if err != nil {
		return domain.Progress{}, classify("load catalog", err)
	}
	team, err := e.teams.Get(ctx, teamName)
	if err != nil {
		return domain.Progress{}, classify("get team", err)
	}

	state, tg := resolve(c, team)
	p := domain.Progress{State: state, Score: team.Score, Total: c.CountActive()}
	switch state {
	case domain.StateAwaitingChoice:
		p.Choices = projectChoices(tg.choices)
	case domain.StateAwaitingQuestion:
		view := questionView(team, tg, c.CountActive())
		p.Question = &view
	}
	return p, nil
}

// SubmitAnswer checks an answer against the team's current question and commits score,
// pointer, power-up and path changes as one unit. A wrong answer is a normal result with
// Success=false and leaves the team untouched.
func (e *Engine) SubmitAnswer(ctx context.Context, teamName string, sub domain.AnswerSubmission) (domain.AnswerResult, error) {
	if strings.TrimSpace(sub.Answer) == "" {
		return domain.AnswerResult{}, domain.ErrEmptyAnswer
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.gate(ctx); err != nil {
		return domain.AnswerResult{}, err
	}
	c, err := e.catalog.Catalog(ctx)
	if err != nil {
		return domain.AnswerResult{}, classify("load catalog", err)
	}

	var res domain.AnswerResult
	holding := false
	_, err = e.teams.Update(ctx, teamName, func(t *domain.Team) error {
		res = domain.AnswerResult{}
		state, tg := resolve(c, *t)
		switch state {
		case domain.StateComplete:
			return domain.ErrTeamComplete
		case domain.StateAwaitingChoice:
			return domain.ErrChoicePending
		}
		if sub.QuestionID != "" && sub.QuestionID != tg.id() {
			return domain.ErrQuestionMoved
		}
		res.QuestionID = tg.id()
		res.TotalScore = t.Score
		if !AnswersMatch(tg.answer(), sub.Answer) {
			return errNoChange
		}

		earned := tg.points()
		if t.BrainBoostActive {
			earned *= 2
			t.BrainBoostActive = false
		}
		now := e.now()
		t.QuestionPath = append(t.QuestionPath, domain.PathEntry{
			QuestionID: tg.id(),
			Answer:     strings.TrimSpace(sub.Answer),
			Points:     earned,
			Timestamp:  now,
		})
		t.Score += earned
		t.LastAnswered = &now
		res.Success = true
		res.PointsEarned = earned

		if err := e.progress(ctx, c, t, tg, &res, &holding); err != nil {
			return err
		}
		res.TotalScore = t.Score
		return nil
	})
	if holding {
		e.finishMu.Unlock()
	}
	if errors.Is(err, errNoChange) {
		e.logger.Debug("answer rejected", "team", teamName, "question_id", res.QuestionID)
		return domain.AnswerResult{Success: false, QuestionID: res.QuestionID, TotalScore: res.TotalScore}, nil
	}
	if err != nil {
		return domain.AnswerResult{}, classify("submit answer", err)
	}

	e.logger.Info("answer accepted",
		"team", teamName,
		"question_id", res.QuestionID,
		"points", res.PointsEarned,
		"bonus", res.BonusPoints,
		"has_choices", res.HasChoices,
		"complete", res.IsComplete,
	)
	e.publish()
	return res, nil
}

// SelectChoice points a team that just solved a branch point at the easy or hard path.
// It is accepted once per branch encounter.
func (e *Engine) SelectChoice(ctx context.Context, teamName string, difficulty domain.Difficulty) (domain.QuestionChoice, error) {
	if difficulty != domain.DifficultyEasy && difficulty != domain.DifficultyHard {
		return domain.QuestionChoice{}, fmt.Errorf("difficulty %q must be easy or hard: %w", difficulty, domain.ErrValidation)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	c, err := e.catalog.Catalog(ctx)
	if err != nil {
		return domain.QuestionChoice{}, classify("load catalog", err)
	}

	var chosen domain.ChoiceQuestion
	_, err = e.teams.Update(ctx, teamName, func(t *domain.Team) error {
		if t.PendingBranchID == "" {
			return domain.ErrNoChoicePending
		}
		choices, ok := c.ChoicesFor(t.PendingBranchID)
		if !ok {
			return domain.ErrBranchNotFound
		}
		for _, ch := range choices {
			if ch.Difficulty == difficulty {
				chosen = ch
			}
		}
		if pos, ok := c.PositionOf(t.PendingBranchID); ok {
			t.CurrentQuestion = pos
		}
		t.CurrentQuestionID = chosen.ID
		t.PendingBranchID = ""
		t.HintRevealedFor = ""
		return nil
	})
	if err != nil {
		return domain.QuestionChoice{}, classify("select choice", err)
	}

	e.logger.Info("path selected", "team", teamName, "branch_id", chosen.BranchQuestionID, "difficulty", difficulty)
	return projectChoice(chosen), nil
}

// Skip spends a skip power-up and advances exactly like a correct answer worth nothing.
// A skipped branch point still offers its choices. The brain boost stays armed.
func (e *Engine) Skip(ctx context.Context, teamName string) (domain.AnswerResult, error) {
	_, res, err := e.skip(ctx, teamName)
	return res, err
}

func (e *Engine) skip(ctx context.Context, teamName string) (domain.Team, domain.AnswerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.gate(ctx); err != nil {
		return domain.Team{}, domain.AnswerResult{}, err
	}
	c, err := e.catalog.Catalog(ctx)
	if err != nil {
		return domain.Team{}, domain.AnswerResult{}, classify("load catalog", err)
	}

	var res domain.AnswerResult
	holding := false
	team, err := e.teams.Update(ctx, teamName, func(t *domain.Team) error {
		res = domain.AnswerResult{}
		state, tg := resolve(c, *t)
		switch state {
		case domain.StateComplete:
			return domain.ErrTeamComplete
		case domain.StateAwaitingChoice:
			return domain.ErrChoicePending
		}
		if t.PowerUps.Skip <= 0 {
			return fmt.Errorf("skip: %w", domain.ErrExhausted)
		}
		t.PowerUps.Skip--
		t.QuestionPath = append(t.QuestionPath, domain.PathEntry{
			QuestionID: tg.id(),
			Skipped:    true,
			Timestamp:  e.now(),
		})
		res.Success = true
		res.Skipped = true
		res.QuestionID = tg.id()
		if err := e.progress(ctx, c, t, tg, &res, &holding); err != nil {
			return err
		}
		res.TotalScore = t.Score
		return nil
	})
	if holding {
		e.finishMu.Unlock()
	}
	if err != nil {
		return domain.Team{}, domain.AnswerResult{}, classify("skip question", err)
	}

	e.logger.Info("question skipped", "team", teamName, "question_id", res.QuestionID, "complete", res.IsComplete)
	e.publish()
	return team, res, nil
}

// progress moves t past the question it just cleared. Branch points park the team on the
// choice; passing the end of the sequence records completion and the one-time bonus.
func (e *Engine) progress(ctx context.Context, c domain.Catalog, t *domain.Team, tg target, res *domain.AnswerResult, holding *bool) error {
	t.HintRevealedFor = ""
	if tg.main != nil && tg.main.IsBranchPoint {
		if choices, ok := c.ChoicesFor(tg.main.ID); ok {
			t.PendingBranchID = tg.main.ID
			t.CurrentQuestionID = ""
			t.CurrentQuestion = tg.position
			res.HasChoices = true
			res.BranchChoices = projectChoices(choices)
			return nil
		}
		e.logger.Warn("branch point has no choices, advancing", "question_id", tg.main.ID)
	}

	advance(c, t, tg)
	if state, next := resolve(c, *t); state != domain.StateComplete {
		t.CurrentQuestion, t.CurrentQuestionID = next.position, next.id()
		return nil
	}
	t.CurrentQuestion, t.CurrentQuestionID = c.CountActive(), ""
	res.IsComplete = true

	if !*holding {
		e.finishMu.Lock()
		*holding = true
	}
	done, err := e.teams.CountCompleted(ctx)
	if err != nil {
		return err
	}
	now := e.now()
	t.CompletionTime = &now
	t.CompletionRank = done + 1
	bonus := e.bonus.Bonus(t.CompletionRank)
	t.BonusPoints += bonus
	t.Score += bonus
	res.BonusPoints = bonus
	res.CompletionRank = t.CompletionRank
	return nil
}

func (e *Engine) gate(ctx context.Context) error {
	s, err := e.settings.GetSettings(ctx)
	if err != nil {
		return classify("load settings", err)
	}
	switch s.State() {
	case domain.GameWaiting:
		return domain.ErrQuizInactive
	case domain.GamePaused:
		return domain.ErrQuizPaused
	}
	return nil
}

func (e *Engine) publish() {
	if e.board == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.board.Publish(ctx)
}

// target is what a team is currently on: a main-sequence question, a choice question, or the
// pair of choices of the branch point it just solved.
type target struct {
	main     *domain.Question
	choice   *domain.ChoiceQuestion
	choices  []domain.ChoiceQuestion
	position int
}

func (t target) id() string {
	if t.choice != nil {
		return t.choice.ID
	}
	if t.main != nil {
		return t.main.ID
	}
	return ""
}

func (t target) answer() string {
	if t.choice != nil {
		return t.choice.Answer
	}
	if t.main != nil {
		return t.main.Answer
	}
	return ""
}

func (t target) points() int {
	var p int
	if t.choice != nil {
		p = t.choice.Points
	} else if t.main != nil {
		p = t.main.Points
	}
	if p < 0 {
		return 0
	}
	return p
}

func (t target) hint() string {
	if t.choice != nil {
		return t.choice.Hint
	}
	if t.main != nil {
		return t.main.Hint
	}
	return ""
}

// resolve finds the team's state and current question. An explicit pointer wins over the
// position; a pointer to an inactive question lands on the next active one, and questions
// already in the team's path are passed over so they are never served or paid twice.
func resolve(c domain.Catalog, t domain.Team) (domain.TeamState, target) {
	if t.Finished() {
		return domain.StateComplete, target{position: c.CountActive()}
	}
	if t.PendingBranchID != "" {
		if choices, ok := c.ChoicesFor(t.PendingBranchID); ok {
			return domain.StateAwaitingChoice, target{choices: choices, position: branchPosition(c, t.PendingBranchID, t.CurrentQuestion)}
		}
	}

	var q domain.Question
	var ok bool
	if ch, found := c.ChoiceByID(t.CurrentQuestionID); found {
		if !t.HasCleared(ch.ID) {
			return domain.StateAwaitingQuestion, target{choice: &ch, position: branchPosition(c, ch.BranchQuestionID, t.CurrentQuestion)}
		}
		if b, known := c.QuestionByID(ch.BranchQuestionID); known {
			q, ok = nextAfter(c, b)
		}
	} else if _, known := c.QuestionByID(t.CurrentQuestionID); known {
		q, ok = c.ActiveFrom(t.CurrentQuestionID)
	} else {
		q, ok = c.QuestionAt(t.CurrentQuestion)
	}
	for ok && t.HasCleared(q.ID) {
		q, ok = c.NextActiveAfter(q.ID)
	}
	if !ok {
		return domain.StateComplete, target{position: c.CountActive()}
	}
	pos, _ := c.PositionOf(q.ID)
	return domain.StateAwaitingQuestion, target{main: &q, position: pos}
}

func branchPosition(c domain.Catalog, branchID string, fallback int) int {
	if pos, ok := c.PositionOf(branchID); ok {
		return pos
	}
	return fallback
}

// nextAfter is the question that follows from: its NextQuestionID override when that names
// another active question, else the next active question in order.
func nextAfter(c domain.Catalog, from domain.Question) (domain.Question, bool) {
	if from.NextQuestionID != "" && from.NextQuestionID != from.ID {
		if q, ok := c.QuestionByID(from.NextQuestionID); ok && q.IsActive {
			return q, true
		}
	}
	return c.NextActiveAfter(from.ID)
}

// advance points t past tg. Choice questions rejoin after their branch point.
func advance(c domain.Catalog, t *domain.Team, tg target) {
	from := tg.main
	if tg.choice != nil {
		from = nil
		if b, ok := c.QuestionByID(tg.choice.BranchQuestionID); ok {
			from = &b
		}
	}

	var next domain.Question
	var ok bool
	if from != nil {
		next, ok = nextAfter(c, *from)
	} else {
		next, ok = c.QuestionAt(tg.position + 1)
	}
	if !ok {
		t.CurrentQuestion, t.CurrentQuestionID = c.CountActive(), ""
		return
	}
	t.CurrentQuestion, _ = c.PositionOf(next.ID)
	t.CurrentQuestionID = next.ID
}

func questionView(team domain.Team, tg target, total int) domain.QuestionView {
	v := domain.QuestionView{Position: tg.position, Total: total}
	if tg.choice != nil {
		ch := tg.choice
		v.ID, v.Title, v.Prompt = ch.ID, ch.Title, ch.Prompt
		v.MediaType, v.MediaURL = ch.MediaType, ch.MediaURL
		v.Category, v.Difficulty = ch.Category, ch.Difficulty
		v.IsChoiceQuestion = true
	} else {
		q := tg.main
		v.ID, v.Title, v.Prompt = q.ID, q.Title, q.Prompt
		v.MediaType, v.MediaURL = q.MediaType, q.MediaURL
		v.Category, v.Difficulty = q.Category, q.Difficulty
		v.IsBranchPoint = q.IsBranchPoint
	}
	if v.MediaType == "" {
		v.MediaType = domain.MediaText
	}
	v.BasePoints = tg.points()
	v.Points = v.BasePoints
	if team.BrainBoostActive {
		v.Points *= 2
	}
	v.HintAvailable = tg.hint() != ""
	if team.HintRevealedFor == v.ID {
		v.Hint = tg.hint()
	}
	return v
}

func projectChoice(ch domain.ChoiceQuestion) domain.QuestionChoice {
	qc := domain.QuestionChoice{
		ID:         ch.ID,
		Difficulty: ch.Difficulty,
		Points:     ch.Points,
		QuestionID: ch.ID,
	}
	if ch.Difficulty == domain.DifficultyHard {
		qc.Title = "Hard Path"
		qc.Description = fmt.Sprintf("A tougher lead worth %d points", ch.Points)
		qc.Icon = "flame"
	} else {
		qc.Title = "Easy Path"
		qc.Description = fmt.Sprintf("A safer lead worth %d points", ch.Points)
		qc.Icon = "shield"
	}
	return qc
}

func projectChoices(choices []domain.ChoiceQuestion) []domain.QuestionChoice {
	out := make([]domain.QuestionChoice, 0, len(choices))
	for _, ch := range choices {
		out = append(out, projectChoice(ch))
	}
	return out
}
