package postgres

import (
	"context"
	"fmt"

	"decodex/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CatalogLoader reads the questions and branch choices from Postgres.
type CatalogLoader struct {
	pool *pgxpool.Pool
}

func NewCatalogLoader(pool *pgxpool.Pool) *CatalogLoader {
	return &CatalogLoader{pool: pool}
}

const (
	selectQuestions = `
SELECT id, order_index, title, prompt, media_type, COALESCE(media_url, ''), answer, COALESCE(hint, ''),
       points, category, COALESCE(explanation, ''), is_active, difficulty, is_branch_point,
       COALESCE(next_question_id, '')
FROM questions
ORDER BY order_index, id`

	selectChoices = `
SELECT id, branch_question_id, title, prompt, media_type, COALESCE(media_url, ''), answer, COALESCE(hint, ''),
       points, category, COALESCE(explanation, ''), difficulty, is_active
FROM choice_questions
ORDER BY branch_question_id, difficulty`
)

func (l *CatalogLoader) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	rows, err := l.pool.Query(ctx, selectQuestions)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load questions: %w", err)
	}
	var questions []domain.Question
	for rows.Next() {
		var (
			q                     domain.Question
			mediaType, difficulty string
		)
		if err := rows.Scan(&q.ID, &q.OrderIndex, &q.Title, &q.Prompt, &mediaType, &q.MediaURL, &q.Answer, &q.Hint,
			&q.Points, &q.Category, &q.Explanation, &q.IsActive, &difficulty, &q.IsBranchPoint, &q.NextQuestionID); err != nil {
			rows.Close()
			return domain.Catalog{}, fmt.Errorf("scan question: %w", err)
		}
		q.MediaType, q.Difficulty = domain.MediaType(mediaType), domain.Difficulty(difficulty)
		questions = append(questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load questions: %w", err)
	}

	rows, err = l.pool.Query(ctx, selectChoices)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("load choices: %w", err)
	}
	defer rows.Close()
	var choices []domain.ChoiceQuestion
	for rows.Next() {
		var (
			ch                    domain.ChoiceQuestion
			mediaType, difficulty string
		)
		if err := rows.Scan(&ch.ID, &ch.BranchQuestionID, &ch.Title, &ch.Prompt, &mediaType, &ch.MediaURL, &ch.Answer, &ch.Hint,
			&ch.Points, &ch.Category, &ch.Explanation, &difficulty, &ch.IsActive); err != nil {
			return domain.Catalog{}, fmt.Errorf("scan choice: %w", err)
		}
		ch.MediaType, ch.Difficulty = domain.MediaType(mediaType), domain.Difficulty(difficulty)
		choices = append(choices, ch)
	}
	if err := rows.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("load choices: %w", err)
	}
	return domain.NewCatalog(questions, choices), nil
}
