package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"decodex/internal/domain"
	"github.com/uptrace/bun"
)

// QuestionStore persists authoring changes with bun.
type QuestionStore struct {
	db *bun.DB
}

func NewQuestionStore(db *bun.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) InsertQuestion(ctx context.Context, q domain.Question) error {
	if _, err := s.db.NewInsert().Model(questionFromDomain(q)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (s *QuestionStore) InsertBranch(ctx context.Context, q domain.Question, easy, hard domain.ChoiceQuestion) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(questionFromDomain(q)).Exec(ctx); err != nil {
			return fmt.Errorf("insert branch question: %w", err)
		}
		choices := []*choiceRow{choiceFromDomain(easy), choiceFromDomain(hard)}
		if _, err := tx.NewInsert().Model(&choices).Exec(ctx); err != nil {
			return fmt.Errorf("insert branch choices: %w", err)
		}
		return nil
	})
}

func (s *QuestionStore) SetActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.NewUpdate().
		Model((*questionRow)(nil)).
		Set("is_active = ?", active).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return expectRow(res, domain.ErrQuestionNotFound)
}

func (s *QuestionStore) DeleteChoices(ctx context.Context, branchID string) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*choiceRow)(nil)).Where("branch_question_id = ?", branchID).Exec(ctx); err != nil {
			return fmt.Errorf("delete choices: %w", err)
		}
		res, err := tx.NewUpdate().
			Model((*questionRow)(nil)).
			Set("is_branch_point = FALSE").
			Where("id = ?", branchID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("clear branch flag: %w", err)
		}
		return expectRow(res, domain.ErrQuestionNotFound)
	})
}

// DeleteQuestion removes the question and its choices, clears next-question references and
// renumbers the remaining ordinals from 1.
func (s *QuestionStore) DeleteQuestion(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*choiceRow)(nil)).Where("branch_question_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete choices: %w", err)
		}
		if _, err := tx.NewUpdate().
			Model((*questionRow)(nil)).
			Set("next_question_id = NULL").
			Where("next_question_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear next references: %w", err)
		}
		res, err := tx.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		if err := expectRow(res, domain.ErrQuestionNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE questions AS q SET order_index = r.rn
FROM (SELECT id, row_number() OVER (ORDER BY order_index, id) AS rn FROM questions) AS r
WHERE q.id = r.id`); err != nil {
			return fmt.Errorf("renumber questions: %w", err)
		}
		return nil
	})
}

func (s *QuestionStore) SetOrder(ctx context.Context, ids []string) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for i, id := range ids {
			res, err := tx.NewUpdate().
				Model((*questionRow)(nil)).
				Set("order_index = ?", i+1).
				Where("id = ?", id).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("set order of %s: %w", id, err)
			}
			if err := expectRow(res, domain.ErrQuestionNotFound); err != nil {
				return err
			}
		}
		return nil
	})
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
