package app_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"decodex/internal/app"
	"decodex/internal/domain"
	"decodex/internal/infra/memory"
)

type fixture struct {
	engine   *app.Engine
	catalog  *app.CatalogService
	store    *memory.QuestionStore
	cache    *memory.CatalogCache
	teams    *memory.TeamStore
	settings *memory.SettingsStore
	hub      *app.Hub
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newFixture(t *testing.T, questions []domain.Question, choices []domain.ChoiceQuestion) *fixture {
	t.Helper()
	store := memory.NewQuestionStore(questions, choices)
	cache := memory.NewCatalogCache(store, time.Minute)
	teams := memory.NewTeamStore()
	settings := memory.NewSettingsStore(domain.GameSettings{QuizActive: true})
	hub := app.NewHub()
	logger := quietLogger()

	return &fixture{
		engine: app.NewEngine(cache, teams, settings, app.EngineConfig{
			OpTimeout:  time.Second,
			Scoreboard: app.NewScoreboard(teams, hub, logger),
			Logger:     logger,
		}),
		catalog:  app.NewCatalogService(store, cache, teams, logger, time.Second),
		store:    store,
		cache:    cache,
		teams:    teams,
		settings: settings,
		hub:      hub,
	}
}

func (f *fixture) register(t *testing.T, name string) {
	t.Helper()
	team := domain.NewTeam(name, name+"@example.com", "hash", time.Now())
	if err := f.teams.Create(context.Background(), team); err != nil {
		t.Fatalf("create team %s: %v", name, err)
	}
}

func (f *fixture) team(t *testing.T, name string) domain.Team {
	t.Helper()
	team, err := f.teams.Get(context.Background(), name)
	if err != nil {
		t.Fatalf("get team %s: %v", name, err)
	}
	return team
}

func (f *fixture) answer(t *testing.T, name, answer string) domain.AnswerResult {
	t.Helper()
	res, err := f.engine.SubmitAnswer(context.Background(), name, domain.AnswerSubmission{Answer: answer})
	if err != nil {
		t.Fatalf("submit %q for %s: %v", answer, name, err)
	}
	return res
}

// linearQuestions returns n active questions q1..qn worth 100 points each with answer "answer-i".
func linearQuestions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, domain.Question{
			ID:         fmt.Sprintf("q%d", i),
			OrderIndex: i,
			Title:      fmt.Sprintf("Question %d", i),
			Prompt:     fmt.Sprintf("prompt %d", i),
			Answer:     fmt.Sprintf("answer-%d", i),
			Points:     100,
			IsActive:   true,
			Difficulty: domain.DifficultyNormal,
		})
	}
	return qs
}

// branchCatalog is q1, q2 (branch point with e2/h2), q3.
func branchCatalog() ([]domain.Question, []domain.ChoiceQuestion) {
	qs := linearQuestions(3)
	qs[1].IsBranchPoint = true
	choices := []domain.ChoiceQuestion{
		{ID: "e2", BranchQuestionID: "q2", Title: "Easy Path", Prompt: "easy", Answer: "easy-answer", Points: 100, Difficulty: domain.DifficultyEasy, IsActive: true},
		{ID: "h2", BranchQuestionID: "q2", Title: "Hard Path", Prompt: "hard", Answer: "hard-answer", Hint: "think harder", Points: 200, Difficulty: domain.DifficultyHard, IsActive: true},
	}
	return qs, choices
}

func TestSubmitAnswerAdvancesOnlyWhenCorrect(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(5), nil)
	f.register(t, "Sherlock")
	if _, err := f.teams.Update(ctx, "Sherlock", func(team *domain.Team) error {
		team.CurrentQuestion = 2
		return nil
	}); err != nil {
		t.Fatalf("position team: %v", err)
	}

	res := f.answer(t, "Sherlock", "wrong")
	if res.Success || res.PointsEarned != 0 {
		t.Fatalf("expected rejected answer, got %+v", res)
	}
	if team := f.team(t, "Sherlock"); team.CurrentQuestion != 2 || team.Score != 0 || len(team.QuestionPath) != 0 {
		t.Fatalf("wrong answer must not change the team, got %+v", team)
	}

	res = f.answer(t, "Sherlock", "  ANSWER-3 ")
	if !res.Success || res.PointsEarned != 100 || res.IsComplete || res.HasChoices {
		t.Fatalf("unexpected result %+v", res)
	}
	team := f.team(t, "Sherlock")
	if team.CurrentQuestion != 3 || team.Score != 100 {
		t.Fatalf("expected position 3 and score 100, got %d/%d", team.CurrentQuestion, team.Score)
	}
	if len(team.QuestionPath) != 1 || team.QuestionPath[0].QuestionID != "q3" || team.LastAnswered == nil {
		t.Fatalf("expected path entry for q3, got %+v", team.QuestionPath)
	}
}

func TestEmptyAnswerIsValidationError(t *testing.T) {
	f := newFixture(t, linearQuestions(1), nil)
	f.register(t, "owls")

	_, err := f.engine.SubmitAnswer(context.Background(), "owls", domain.AnswerSubmission{Answer: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUnknownTeamIsNotFound(t *testing.T) {
	f := newFixture(t, linearQuestions(1), nil)

	if _, err := f.engine.NextQuestion(context.Background(), "ghosts"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.engine.SubmitAnswer(context.Background(), "ghosts", domain.AnswerSubmission{Answer: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNextQuestionHidesAnswer(t *testing.T) {
	qs := linearQuestions(2)
	qs[0].Hint = "look closer"
	f := newFixture(t, qs, nil)
	f.register(t, "owls")

	p, err := f.engine.NextQuestion(context.Background(), "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.State != domain.StateAwaitingQuestion || p.Question == nil {
		t.Fatalf("expected a question, got %+v", p)
	}
	v := p.Question
	if v.ID != "q1" || v.Position != 0 || v.Total != 2 || v.Points != 100 {
		t.Fatalf("unexpected view %+v", v)
	}
	if !v.HintAvailable || v.Hint != "" {
		t.Fatalf("hint must be advertised but hidden before purchase, got %+v", v)
	}
	if v.MediaType != domain.MediaText {
		t.Fatalf("expected text media by default, got %q", v.MediaType)
	}
}

func TestBranchPointOffersChoicesAndSelectsOnce(t *testing.T) {
	ctx := context.Background()
	qs, choices := branchCatalog()
	f := newFixture(t, qs, choices)
	f.register(t, "owls")

	f.answer(t, "owls", "answer-1")
	res := f.answer(t, "owls", "answer-2")
	if !res.Success || !res.HasChoices || len(res.BranchChoices) != 2 {
		t.Fatalf("expected two choices, got %+v", res)
	}
	easy, hard := res.BranchChoices[0], res.BranchChoices[1]
	if easy.Difficulty != domain.DifficultyEasy || easy.Points != 100 || easy.Icon != "shield" {
		t.Fatalf("unexpected easy choice %+v", easy)
	}
	if hard.Difficulty != domain.DifficultyHard || hard.Points != 200 || hard.Title != "Hard Path" {
		t.Fatalf("unexpected hard choice %+v", hard)
	}

	team := f.team(t, "owls")
	if team.PendingBranchID != "q2" || team.CurrentQuestion != 1 {
		t.Fatalf("expected team parked on the branch, got %+v", team)
	}
	p, err := f.engine.NextQuestion(ctx, "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.State != domain.StateAwaitingChoice || len(p.Choices) != 2 || p.Question != nil {
		t.Fatalf("expected awaiting choice, got %+v", p)
	}
	if _, err := f.engine.SubmitAnswer(ctx, "owls", domain.AnswerSubmission{Answer: "answer-3"}); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state while a choice is pending, got %v", err)
	}
	if _, err := f.engine.Skip(ctx, "owls"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected skip to be refused while a choice is pending, got %v", err)
	}

	chosen, err := f.engine.SelectChoice(ctx, "owls", domain.DifficultyHard)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if chosen.QuestionID != "h2" {
		t.Fatalf("expected hard path question, got %+v", chosen)
	}
	if team := f.team(t, "owls"); team.CurrentQuestionID != "h2" || team.PendingBranchID != "" {
		t.Fatalf("expected pointer on h2, got %+v", team)
	}
	if _, err := f.engine.SelectChoice(ctx, "owls", domain.DifficultyEasy); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected second selection to fail, got %v", err)
	}

	p, err = f.engine.NextQuestion(ctx, "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.Question == nil || p.Question.ID != "h2" || !p.Question.IsChoiceQuestion || p.Question.Points != 200 {
		t.Fatalf("expected hard path question view, got %+v", p.Question)
	}

	res = f.answer(t, "owls", "hard-answer")
	if !res.Success || res.PointsEarned != 200 || res.HasChoices {
		t.Fatalf("unexpected path result %+v", res)
	}
	team = f.team(t, "owls")
	if team.CurrentQuestion != 2 || team.CurrentQuestionID != "q3" || team.Score != 400 {
		t.Fatalf("expected rejoin at q3 with 400 points, got %+v", team)
	}
}

func TestSelectChoiceRejectsUnknownDifficulty(t *testing.T) {
	qs, choices := branchCatalog()
	f := newFixture(t, qs, choices)
	f.register(t, "owls")

	if _, err := f.engine.SelectChoice(context.Background(), "owls", domain.DifficultyExpert); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := f.engine.SelectChoice(context.Background(), "owls", domain.DifficultyEasy); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected no pending choice, got %v", err)
	}
}

func TestNextQuestionOverrideIsHonored(t *testing.T) {
	qs := linearQuestions(4)
	qs[0].NextQuestionID = "q3"
	f := newFixture(t, qs, nil)
	f.register(t, "owls")

	f.answer(t, "owls", "answer-1")
	if team := f.team(t, "owls"); team.CurrentQuestion != 2 {
		t.Fatalf("expected jump to q3 at position 2, got %d", team.CurrentQuestion)
	}
}

func TestSelfTargetOverrideFallsThrough(t *testing.T) {
	qs := linearQuestions(3)
	qs[0].NextQuestionID = "q1"
	f := newFixture(t, qs, nil)
	f.register(t, "owls")

	f.answer(t, "owls", "answer-1")
	if team := f.team(t, "owls"); team.CurrentQuestion != 1 {
		t.Fatalf("expected ordinal advance, got %d", team.CurrentQuestion)
	}
}

func TestReplayedAnswerIsNotAwardedTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(3), nil)
	f.register(t, "owls")

	sub := domain.AnswerSubmission{QuestionID: "q1", Answer: "answer-1"}
	if _, err := f.engine.SubmitAnswer(ctx, "owls", sub); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.engine.SubmitAnswer(ctx, "owls", sub); !errors.Is(err, domain.ErrQuestionMoved) {
		t.Fatalf("expected replay to be refused, got %v", err)
	}
	if team := f.team(t, "owls"); team.Score != 100 || len(team.QuestionPath) != 1 {
		t.Fatalf("expected a single award, got %+v", team)
	}
}

func TestConcurrentDuplicateSubmissionsAwardOnce(t *testing.T) {
	f := newFixture(t, linearQuestions(3), nil)
	f.register(t, "owls")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.engine.SubmitAnswer(context.Background(), "owls", domain.AnswerSubmission{QuestionID: "q1", Answer: "answer-1"})
		}()
	}
	wg.Wait()

	if team := f.team(t, "owls"); team.Score != 100 || team.CurrentQuestion != 1 {
		t.Fatalf("expected exactly one award, got score %d position %d", team.Score, team.CurrentQuestion)
	}
}

func TestClearedQuestionIsNeverServedAgain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(3), nil)
	f.register(t, "owls")
	if _, err := f.teams.Update(ctx, "owls", func(team *domain.Team) error {
		team.CurrentQuestionID = "q1"
		team.Score = 100
		team.QuestionPath = append(team.QuestionPath, domain.PathEntry{QuestionID: "q1", Points: 100, Timestamp: time.Now()})
		return nil
	}); err != nil {
		t.Fatalf("position team: %v", err)
	}

	p, err := f.engine.NextQuestion(ctx, "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.Question == nil || p.Question.ID != "q2" {
		t.Fatalf("expected q2 after the solved q1, got %+v", p)
	}
	if _, err := f.engine.SubmitAnswer(ctx, "owls", domain.AnswerSubmission{QuestionID: "q1", Answer: "answer-1"}); !errors.Is(err, domain.ErrQuestionMoved) {
		t.Fatalf("expected solved question to be refused, got %v", err)
	}
	if res := f.answer(t, "owls", "answer-1"); res.Success {
		t.Fatalf("q1 answer must not score on q2, got %+v", res)
	}
	if team := f.team(t, "owls"); team.Score != 100 || len(team.QuestionPath) != 1 {
		t.Fatalf("expected no second award, got %+v", team)
	}
}

func TestClearedPathQuestionRejoinsAfterBranch(t *testing.T) {
	ctx := context.Background()
	qs, choices := branchCatalog()
	f := newFixture(t, qs, choices)
	f.register(t, "owls")
	if _, err := f.teams.Update(ctx, "owls", func(team *domain.Team) error {
		team.CurrentQuestion = 1
		team.CurrentQuestionID = "e2"
		team.QuestionPath = append(team.QuestionPath, domain.PathEntry{QuestionID: "e2", Points: 100, Timestamp: time.Now()})
		return nil
	}); err != nil {
		t.Fatalf("position team: %v", err)
	}

	p, err := f.engine.NextQuestion(ctx, "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.Question == nil || p.Question.ID != "q3" {
		t.Fatalf("expected q3 after the solved easy path, got %+v", p)
	}
	if res := f.answer(t, "owls", "easy-answer"); res.Success {
		t.Fatalf("solved path question must not pay again, got %+v", res)
	}
}

func TestGateBlocksInactiveAndPausedQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(2), nil)
	f.register(t, "owls")

	_ = f.settings.SaveSettings(ctx, domain.GameSettings{})
	if _, err := f.engine.NextQuestion(ctx, "owls"); !errors.Is(err, domain.ErrQuizInactive) {
		t.Fatalf("expected inactive quiz, got %v", err)
	}
	_ = f.settings.SaveSettings(ctx, domain.GameSettings{QuizActive: true, QuizPaused: true})
	_, err := f.engine.SubmitAnswer(ctx, "owls", domain.AnswerSubmission{Answer: "answer-1"})
	if !errors.Is(err, domain.ErrQuizPaused) || !domain.Retryable(err) {
		t.Fatalf("expected retryable paused error, got %v", err)
	}
	if _, err := f.engine.Consume(ctx, "owls", domain.PowerUpHint); !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("expected power-ups to be gated, got %v", err)
	}
	if team := f.team(t, "owls"); team.Score != 0 || team.PowerUps.Hint != 1 {
		t.Fatalf("gated calls must not mutate the team, got %+v", team)
	}
}

func TestCompletionBonusFollowsFinishOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(10), nil)
	f.register(t, "owls")
	f.register(t, "hawks")

	for i := 1; i <= 9; i++ {
		f.answer(t, "owls", fmt.Sprintf("answer-%d", i))
		f.answer(t, "hawks", fmt.Sprintf("answer-%d", i))
	}

	first := f.answer(t, "owls", "answer-10")
	if !first.IsComplete || first.CompletionRank != 1 || first.BonusPoints != 500 {
		t.Fatalf("expected rank 1 with 500 bonus, got %+v", first)
	}
	second := f.answer(t, "hawks", "answer-10")
	if !second.IsComplete || second.CompletionRank != 2 || second.BonusPoints >= first.BonusPoints {
		t.Fatalf("expected a smaller bonus for rank 2, got %+v", second)
	}

	owls := f.team(t, "owls")
	if owls.CompletionTime == nil || owls.Score != 1000+500 || owls.BonusPoints != 500 {
		t.Fatalf("unexpected finished team %+v", owls)
	}
	p, err := f.engine.NextQuestion(ctx, "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.State != domain.StateComplete || p.Question != nil {
		t.Fatalf("expected complete state, got %+v", p)
	}
	if _, err := f.engine.SubmitAnswer(ctx, "owls", domain.AnswerSubmission{Answer: "answer-10"}); !errors.Is(err, domain.ErrTeamComplete) {
		t.Fatalf("expected completed team to be refused, got %v", err)
	}
}

func TestConcurrentFinishersGetDistinctRanks(t *testing.T) {
	f := newFixture(t, linearQuestions(1), nil)
	names := []string{"a-team", "b-team", "c-team", "d-team", "e-team", "f-team"}
	for _, n := range names {
		f.register(t, n)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(names))
	for _, n := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := f.engine.SubmitAnswer(context.Background(), name, domain.AnswerSubmission{Answer: "answer-1"}); err != nil {
				errs <- err
			}
		}(n)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("submit: %v", err)
	}

	seen := make(map[int]bool)
	totalBonus := 0
	for _, n := range names {
		team := f.team(t, n)
		if team.CompletionRank < 1 || team.CompletionRank > len(names) || seen[team.CompletionRank] {
			t.Fatalf("rank %d for %s is out of range or duplicated", team.CompletionRank, n)
		}
		seen[team.CompletionRank] = true
		totalBonus += team.BonusPoints
	}
	if totalBonus != 500+300+200+100+50 {
		t.Fatalf("expected each tier paid once, got total %d", totalBonus)
	}
}

func TestSkipConsumesPowerUpAndKeepsScore(t *testing.T) {
	f := newFixture(t, linearQuestions(3), nil)
	f.register(t, "owls")

	res, err := f.engine.Skip(context.Background(), "owls")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if !res.Success || !res.Skipped || res.PointsEarned != 0 || res.QuestionID != "q1" {
		t.Fatalf("unexpected skip result %+v", res)
	}
	team := f.team(t, "owls")
	if team.PowerUps.Skip != 0 || team.CurrentQuestion != 1 || team.Score != 0 || team.LastAnswered != nil {
		t.Fatalf("unexpected team after skip %+v", team)
	}
	if len(team.QuestionPath) != 1 || !team.QuestionPath[0].Skipped || team.Solved() != 0 {
		t.Fatalf("expected a skipped path entry, got %+v", team.QuestionPath)
	}
}

func TestSkipWithoutBalanceIsExhausted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(3), nil)
	f.register(t, "owls")
	if _, err := f.engine.Grant(ctx, "owls", domain.PowerUpSkip, -1); err != nil {
		t.Fatalf("grant: %v", err)
	}
	before := f.team(t, "owls")

	if _, err := f.engine.Skip(ctx, "owls"); !errors.Is(err, domain.ErrExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	after := f.team(t, "owls")
	if after.CurrentQuestion != before.CurrentQuestion || len(after.QuestionPath) != 0 || after.Version != before.Version {
		t.Fatalf("exhausted skip must leave the team unchanged, got %+v", after)
	}
}

func TestSkippedBranchPointStillOffersChoices(t *testing.T) {
	qs, choices := branchCatalog()
	f := newFixture(t, qs, choices)
	f.register(t, "owls")
	f.answer(t, "owls", "answer-1")

	res, err := f.engine.Skip(context.Background(), "owls")
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	if !res.HasChoices || len(res.BranchChoices) != 2 {
		t.Fatalf("expected choices after skipping the branch point, got %+v", res)
	}
	if team := f.team(t, "owls"); team.PendingBranchID != "q2" {
		t.Fatalf("expected pending branch, got %+v", team)
	}
}

func TestBrainBoostDoublesNextCorrectAnswer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(3), nil)
	f.register(t, "owls")

	res, err := f.engine.Consume(ctx, "owls", domain.PowerUpBrainBoost)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !res.BrainBoostActive || res.Remaining != 0 {
		t.Fatalf("unexpected boost result %+v", res)
	}
	if _, err := f.engine.Consume(ctx, "owls", domain.PowerUpDoublePoints); err != nil {
		t.Fatalf("double points while boosted: %v", err)
	}
	if team := f.team(t, "owls"); team.PowerUps.DoublePoints != 1 {
		t.Fatalf("re-arming an active boost must be free, got %+v", team.PowerUps)
	}

	p, err := f.engine.NextQuestion(ctx, "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.Question.Points != 200 || p.Question.BasePoints != 100 {
		t.Fatalf("expected doubled display points, got %+v", p.Question)
	}

	if res := f.answer(t, "owls", "nope"); res.Success {
		t.Fatalf("expected wrong answer")
	}
	if team := f.team(t, "owls"); !team.BrainBoostActive {
		t.Fatalf("wrong answer must not spend the boost")
	}

	if _, err := f.engine.Skip(ctx, "owls"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if team := f.team(t, "owls"); !team.BrainBoostActive {
		t.Fatalf("skip must not spend the boost")
	}

	res2 := f.answer(t, "owls", "answer-2")
	if res2.PointsEarned != 200 {
		t.Fatalf("expected doubled points, got %+v", res2)
	}
	if team := f.team(t, "owls"); team.BrainBoostActive || team.Score != 200 {
		t.Fatalf("expected boost consumed and score 200, got %+v", team)
	}
}

func TestHintPowerUp(t *testing.T) {
	ctx := context.Background()
	qs := linearQuestions(2)
	qs[0].Hint = "look closer"
	f := newFixture(t, qs, nil)
	f.register(t, "owls")

	res, err := f.engine.Consume(ctx, "owls", domain.PowerUpHint)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if res.Hint != "look closer" || res.Remaining != 0 {
		t.Fatalf("unexpected hint result %+v", res)
	}
	res, err = f.engine.Consume(ctx, "owls", domain.PowerUpHint)
	if err != nil || res.Hint != "look closer" {
		t.Fatalf("re-reading the hint must be free, got %+v %v", res, err)
	}
	p, err := f.engine.NextQuestion(ctx, "owls")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if p.Question.Hint != "look closer" {
		t.Fatalf("expected revealed hint in view, got %+v", p.Question)
	}

	f.answer(t, "owls", "answer-1")
	if team := f.team(t, "owls"); team.HintRevealedFor != "" {
		t.Fatalf("hint reveal must reset after advancing, got %q", team.HintRevealedFor)
	}
	if _, err := f.engine.Grant(ctx, "owls", domain.PowerUpHint, 1); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := f.engine.Consume(ctx, "owls", domain.PowerUpHint); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state for a question without a hint, got %v", err)
	}
	if team := f.team(t, "owls"); team.PowerUps.Hint != 1 {
		t.Fatalf("a hintless question must not be charged, got %+v", team.PowerUps)
	}
}

func TestConsumeRejectsUnknownKind(t *testing.T) {
	f := newFixture(t, linearQuestions(1), nil)
	f.register(t, "owls")
	if _, err := f.engine.Consume(context.Background(), "owls", "teleport"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdjustScoreNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, linearQuestions(1), nil)
	f.register(t, "owls")

	team, err := f.engine.AdjustScore(ctx, "owls", 50)
	if err != nil || team.Score != 50 {
		t.Fatalf("expected 50, got %d %v", team.Score, err)
	}
	team, err = f.engine.AdjustScore(ctx, "owls", -1000)
	if err != nil || team.Score != 0 {
		t.Fatalf("expected clamp at zero, got %d %v", team.Score, err)
	}
}

func TestAnswerPublishesLeaderboard(t *testing.T) {
	f := newFixture(t, linearQuestions(2), nil)
	f.register(t, "owls")
	events, cancel := f.hub.Subscribe()
	defer cancel()

	f.answer(t, "owls", "answer-1")

	select {
	case ev := <-events:
		lb, ok := ev.Payload.(domain.Leaderboard)
		if ev.Type != app.EventLeaderboard || !ok {
			t.Fatalf("unexpected event %+v", ev)
		}
		if len(lb.Entries) != 1 || lb.Entries[0].Score != 100 {
			t.Fatalf("unexpected leaderboard %+v", lb)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a leaderboard update")
	}
}
