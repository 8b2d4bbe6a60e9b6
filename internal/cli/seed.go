package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"decodex/internal/app"
	"decodex/internal/config"
	"decodex/internal/domain"
)

// questionPack is the YAML format of a seed file.
type questionPack struct {
	Questions []packQuestion `yaml:"questions"`
}

type packQuestion struct {
	Title       string            `yaml:"title"`
	Prompt      string            `yaml:"prompt"`
	MediaType   domain.MediaType  `yaml:"media_type"`
	MediaURL    string            `yaml:"media_url"`
	Answer      string            `yaml:"answer"`
	Hint        string            `yaml:"hint"`
	Points      int               `yaml:"points"`
	Category    string            `yaml:"category"`
	Explanation string            `yaml:"explanation"`
	Difficulty  domain.Difficulty `yaml:"difficulty"`
	Inactive    bool              `yaml:"inactive"`
	Branch      *struct {
		Easy domain.ChoiceSpec `yaml:"easy"`
		Hard domain.ChoiceSpec `yaml:"hard"`
	} `yaml:"branch"`
}

func (p packQuestion) question() domain.Question {
	return domain.Question{
		Title:       p.Title,
		Prompt:      p.Prompt,
		MediaType:   p.MediaType,
		MediaURL:    p.MediaURL,
		Answer:      p.Answer,
		Hint:        p.Hint,
		Points:      p.Points,
		Category:    p.Category,
		Explanation: p.Explanation,
		IsActive:    !p.Inactive,
		Difficulty:  p.Difficulty,
	}
}

// NewSeedCmd loads a YAML question pack into the configured Postgres catalog.
func NewSeedCmd(configPath *string) *cobra.Command {
	var packPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Append the questions of a YAML pack to the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, packPath)
		},
	}
	cmd.Flags().StringVar(&packPath, "file", "config/questions.example.yaml", "path to the YAML question pack")
	return cmd
}

func runSeed(ctx context.Context, configPath, packPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("seed needs a postgres url; use start --seed for in-memory catalogs")
	}

	pack, err := loadPack(packPath)
	if err != nil {
		return err
	}
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	opTimeout := config.TTLDuration(cfg.Engine.OpTimeout, app.DefaultOpTimeout)
	catalog := app.NewCatalogService(st.questions, st.catalog, st.teams, logger, opTimeout)
	n, err := seedCatalog(ctx, catalog, pack, logger)
	if err != nil {
		return err
	}
	logger.Info("seed complete", "questions", n, "file", packPath)
	return nil
}

func loadPack(path string) (questionPack, error) {
	var pack questionPack
	data, err := os.ReadFile(path)
	if err != nil {
		return pack, err
	}
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return pack, fmt.Errorf("parse %s: %w", path, err)
	}
	return pack, nil
}

func seedCatalog(ctx context.Context, catalog *app.CatalogService, pack questionPack, logger *slog.Logger) (int, error) {
	start := time.Now()
	for i, pq := range pack.Questions {
		if pq.Branch != nil {
			if _, err := catalog.CreateBranch(ctx, pq.question(), pq.Branch.Easy, pq.Branch.Hard); err != nil {
				return i, fmt.Errorf("question %d: %w", i+1, err)
			}
			continue
		}
		if _, err := catalog.AddQuestion(ctx, pq.question()); err != nil {
			return i, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	logger.Debug("catalog seeded", "count", len(pack.Questions), "took", time.Since(start))
	return len(pack.Questions), nil
}
