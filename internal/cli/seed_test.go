package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"decodex/internal/app"
	"decodex/internal/domain"
	"decodex/internal/infra/memory"
)

func TestSeedCatalogFromPack(t *testing.T) {
	pack, err := loadPack(filepath.Join("..", "..", "config", "questions.example.yaml"))
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}

	questions := memory.NewQuestionStore(nil, nil)
	cache := memory.NewCatalogCache(questions, time.Minute)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	catalog := app.NewCatalogService(questions, cache, memory.NewTeamStore(), logger, time.Second)

	n, err := seedCatalog(context.Background(), catalog, pack, logger)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 questions seeded, got %d", n)
	}

	c, err := catalog.Catalog(context.Background())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if c.CountActive() != 3 {
		t.Fatalf("expected 3 active questions, got %d", c.CountActive())
	}
	branch, ok := c.QuestionAt(1)
	if !ok || !branch.IsBranchPoint {
		t.Fatalf("expected second question to be a branch point, got %+v", branch)
	}
	choices, ok := c.ChoicesFor(branch.ID)
	if !ok || choices[0].Difficulty != domain.DifficultyEasy || choices[1].Points != 200 {
		t.Fatalf("unexpected choices %+v", choices)
	}
}

func TestLoadPackMissingFile(t *testing.T) {
	if _, err := loadPack(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing pack")
	}
}
