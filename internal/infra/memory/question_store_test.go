package memory

import (
	"context"
	"errors"
	"testing"

	"decodex/internal/domain"
)

func TestQuestionStoreDeleteRenumbersAndClearsReferences(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore([]domain.Question{
		{ID: "a", OrderIndex: 1, IsActive: true, NextQuestionID: "c"},
		{ID: "b", OrderIndex: 2, IsActive: true, IsBranchPoint: true},
		{ID: "c", OrderIndex: 3, IsActive: true},
	}, []domain.ChoiceQuestion{
		{ID: "b-easy", BranchQuestionID: "b", Difficulty: domain.DifficultyEasy},
		{ID: "b-hard", BranchQuestionID: "b", Difficulty: domain.DifficultyHard},
	})

	if err := store.DeleteQuestion(ctx, "b"); err != nil {
		t.Fatalf("delete b: %v", err)
	}
	if err := store.DeleteQuestion(ctx, "a"); err != nil {
		t.Fatalf("delete a: %v", err)
	}

	cat, err := store.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Questions) != 1 || cat.Questions[0].ID != "c" || cat.Questions[0].OrderIndex != 1 {
		t.Fatalf("expected only c at ordinal 1, got %+v", cat.Questions)
	}
	if len(cat.Choices) != 0 {
		t.Fatalf("expected branch choices removed, got %d", len(cat.Choices))
	}
}

func TestQuestionStoreDeleteClearsNextReference(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore([]domain.Question{
		{ID: "a", OrderIndex: 1, IsActive: true, NextQuestionID: "c"},
		{ID: "b", OrderIndex: 2, IsActive: true},
		{ID: "c", OrderIndex: 3, IsActive: true},
	}, nil)

	if err := store.DeleteQuestion(ctx, "c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	cat, _ := store.LoadCatalog(ctx)
	a, _ := cat.QuestionByID("a")
	if a.NextQuestionID != "" {
		t.Fatalf("expected next reference cleared, got %q", a.NextQuestionID)
	}
}

func TestQuestionStoreDeleteChoicesClearsBranchFlag(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionStore([]domain.Question{
		{ID: "b", OrderIndex: 1, IsActive: true, IsBranchPoint: true},
	}, []domain.ChoiceQuestion{
		{ID: "b-easy", BranchQuestionID: "b", Difficulty: domain.DifficultyEasy},
		{ID: "b-hard", BranchQuestionID: "b", Difficulty: domain.DifficultyHard},
	})

	if err := store.DeleteChoices(ctx, "b"); err != nil {
		t.Fatalf("delete choices: %v", err)
	}
	cat, _ := store.LoadCatalog(ctx)
	if _, ok := cat.ChoicesFor("b"); ok {
		t.Fatalf("expected no choices after delete")
	}
	if q, _ := cat.QuestionByID("b"); q.IsBranchPoint {
		t.Fatalf("expected branch flag cleared")
	}
}

func TestQuestionStoreUnknownID(t *testing.T) {
	store := NewQuestionStore(nil, nil)
	if err := store.SetActive(context.Background(), "missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
