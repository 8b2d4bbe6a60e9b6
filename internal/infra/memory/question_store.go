package memory

import (
	"context"
	"sort"
	"sync"

	"decodex/internal/domain"
)

// QuestionStore is an in-memory question catalog. It is both the loader behind the
// catalog cache and the authoring repository.
type QuestionStore struct {
	mu        sync.RWMutex
	questions map[string]domain.Question
	choices   map[string]domain.ChoiceQuestion
}

func NewQuestionStore(questions []domain.Question, choices []domain.ChoiceQuestion) *QuestionStore {
	s := &QuestionStore{
		questions: make(map[string]domain.Question, len(questions)),
		choices:   make(map[string]domain.ChoiceQuestion, len(choices)),
	}
	for _, q := range questions {
		s.questions[q.ID] = q
	}
	for _, ch := range choices {
		s.choices[ch.ID] = ch
	}
	return s
}

func (s *QuestionStore) LoadCatalog(context.Context) (domain.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		qs = append(qs, q)
	}
	// map order is random; ties on OrderIndex must still sort the same way every load
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].OrderIndex != qs[j].OrderIndex {
			return qs[i].OrderIndex < qs[j].OrderIndex
		}
		return qs[i].ID < qs[j].ID
	})
	chs := make([]domain.ChoiceQuestion, 0, len(s.choices))
	for _, ch := range s.choices {
		chs = append(chs, ch)
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i].ID < chs[j].ID })
	return domain.NewCatalog(qs, chs), nil
}

func (s *QuestionStore) InsertQuestion(_ context.Context, q domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; ok {
		return domain.ErrConflict
	}
	s.questions[q.ID] = q
	return nil
}

func (s *QuestionStore) InsertBranch(_ context.Context, q domain.Question, easy, hard domain.ChoiceQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[q.ID]; ok {
		return domain.ErrConflict
	}
	s.questions[q.ID] = q
	s.choices[easy.ID] = easy
	s.choices[hard.ID] = hard
	return nil
}

func (s *QuestionStore) SetActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[id]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q.IsActive = active
	s.questions[id] = q
	return nil
}

func (s *QuestionStore) DeleteChoices(_ context.Context, branchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.questions[branchID]
	if !ok {
		return domain.ErrQuestionNotFound
	}
	s.deleteChoicesLocked(branchID)
	q.IsBranchPoint = false
	s.questions[branchID] = q
	return nil
}

func (s *QuestionStore) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.deleteChoicesLocked(id)
	delete(s.questions, id)

	rest := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.NextQuestionID == id {
			q.NextQuestionID = ""
		}
		rest = append(rest, q)
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].OrderIndex != rest[j].OrderIndex {
			return rest[i].OrderIndex < rest[j].OrderIndex
		}
		return rest[i].ID < rest[j].ID
	})
	for i, q := range rest {
		q.OrderIndex = i + 1
		s.questions[q.ID] = q
	}
	return nil
}

func (s *QuestionStore) SetOrder(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.questions[id]; !ok {
			return domain.ErrQuestionNotFound
		}
	}
	for i, id := range ids {
		q := s.questions[id]
		q.OrderIndex = i + 1
		s.questions[id] = q
	}
	return nil
}

func (s *QuestionStore) deleteChoicesLocked(branchID string) {
	for id, ch := range s.choices {
		if ch.BranchQuestionID == branchID {
			delete(s.choices, id)
		}
	}
}
