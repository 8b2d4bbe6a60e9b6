package domain

import "sort"

// Catalog is an immutable snapshot of the authored questions and their branch choices.
// Positions are 0-based indexes into the active questions ordered by OrderIndex.
type Catalog struct {
	Questions []Question       `json:"questions"`
	Choices   []ChoiceQuestion `json:"choices"`

	active   []int
	byID     map[string]int
	choiceBy map[string]int
}

// NewCatalog sorts questions by OrderIndex and builds the lookup indexes.
func NewCatalog(questions []Question, choices []ChoiceQuestion) Catalog {
	qs := append([]Question(nil), questions...)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderIndex < qs[j].OrderIndex })

	c := Catalog{
		Questions: qs,
		Choices:   append([]ChoiceQuestion(nil), choices...),
		byID:      make(map[string]int, len(qs)),
		choiceBy:  make(map[string]int, len(choices)),
	}
	for i, q := range qs {
		c.byID[q.ID] = i
		if q.IsActive {
			c.active = append(c.active, i)
		}
	}
	for i, ch := range c.Choices {
		c.choiceBy[ch.ID] = i
	}
	return c
}

// CountActive returns the number of servable questions.
func (c Catalog) CountActive() int {
	return len(c.active)
}

// QuestionAt returns the active question at position.
func (c Catalog) QuestionAt(position int) (Question, bool) {
	if position < 0 || position >= len(c.active) {
		return Question{}, false
	}
	return c.Questions[c.active[position]], true
}

// QuestionByID looks up a main-sequence question, active or not.
func (c Catalog) QuestionByID(id string) (Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	return c.Questions[i], true
}

// PositionOf returns the active position of the question with id.
func (c Catalog) PositionOf(id string) (int, bool) {
	i, ok := c.byID[id]
	if !ok {
		return 0, false
	}
	for pos, idx := range c.active {
		if idx == i {
			return pos, true
		}
	}
	return 0, false
}

// NextActiveAfter returns the first active question ordered after id. The question named by id
// may itself be inactive.
func (c Catalog) NextActiveAfter(id string) (Question, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	for _, q := range c.Questions[i+1:] {
		if q.IsActive {
			return q, true
		}
	}
	return Question{}, false
}

// ActiveFrom returns the question named by id when it is active, otherwise the next active one.
func (c Catalog) ActiveFrom(id string) (Question, bool) {
	q, ok := c.QuestionByID(id)
	if !ok {
		return Question{}, false
	}
	if q.IsActive {
		return q, true
	}
	return c.NextActiveAfter(id)
}

// ChoiceByID looks up a choice question.
func (c Catalog) ChoiceByID(id string) (ChoiceQuestion, bool) {
	i, ok := c.choiceBy[id]
	if !ok {
		return ChoiceQuestion{}, false
	}
	return c.Choices[i], true
}

// ChoicesFor returns the [easy, hard] pair of a branch point.
func (c Catalog) ChoicesFor(branchID string) ([]ChoiceQuestion, bool) {
	q, ok := c.QuestionByID(branchID)
	if !ok || !q.IsBranchPoint {
		return nil, false
	}
	var easy, hard *ChoiceQuestion
	for i := range c.Choices {
		ch := &c.Choices[i]
		if ch.BranchQuestionID != branchID {
			continue
		}
		switch ch.Difficulty {
		case DifficultyEasy:
			easy = ch
		case DifficultyHard:
			hard = ch
		}
	}
	if easy == nil || hard == nil {
		return nil, false
	}
	return []ChoiceQuestion{*easy, *hard}, true
}

// MaxOrderIndex returns the highest ordinal in use, or 0 for an empty catalog.
func (c Catalog) MaxOrderIndex() int {
	if len(c.Questions) == 0 {
		return 0
	}
	return c.Questions[len(c.Questions)-1].OrderIndex
}
