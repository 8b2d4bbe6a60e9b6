package postgres

import (
	"time"

	"decodex/internal/domain"
	"github.com/uptrace/bun"
)

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID             string    `bun:"id,pk"`
	OrderIndex     int       `bun:"order_index,notnull"`
	Title          string    `bun:"title,notnull"`
	Prompt         string    `bun:"prompt,notnull"`
	MediaType      string    `bun:"media_type,notnull"`
	MediaURL       string    `bun:"media_url,nullzero"`
	Answer         string    `bun:"answer,notnull"`
	Hint           string    `bun:"hint,nullzero"`
	Points         int       `bun:"points,notnull"`
	Category       string    `bun:"category,notnull"`
	Explanation    string    `bun:"explanation,nullzero"`
	IsActive       bool      `bun:"is_active,notnull"`
	Difficulty     string    `bun:"difficulty,notnull"`
	IsBranchPoint  bool      `bun:"is_branch_point,notnull"`
	NextQuestionID string    `bun:"next_question_id,nullzero"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type choiceRow struct {
	bun.BaseModel `bun:"table:choice_questions,alias:cq"`

	ID               string `bun:"id,pk"`
	BranchQuestionID string `bun:"branch_question_id,notnull"`
	Title            string `bun:"title,notnull"`
	Prompt           string `bun:"prompt,notnull"`
	MediaType        string `bun:"media_type,notnull"`
	MediaURL         string `bun:"media_url,nullzero"`
	Answer           string `bun:"answer,notnull"`
	Hint             string `bun:"hint,nullzero"`
	Points           int    `bun:"points,notnull"`
	Category         string `bun:"category,notnull"`
	Explanation      string `bun:"explanation,nullzero"`
	Difficulty       string `bun:"difficulty,notnull"`
	IsActive         bool   `bun:"is_active,notnull"`
}

type teamRow struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	Name              string             `bun:"name,pk"`
	Email             string             `bun:"email,notnull,unique"`
	PasswordHash      string             `bun:"password_hash,notnull"`
	Score             int                `bun:"score,notnull"`
	CurrentQuestion   int                `bun:"current_question,notnull"`
	CurrentQuestionID string             `bun:"current_question_id,nullzero"`
	PendingBranchID   string             `bun:"pending_branch_id,nullzero"`
	PowerUps          domain.PowerUps    `bun:"power_ups,type:jsonb,notnull"`
	BrainBoostActive  bool               `bun:"brain_boost_active,notnull"`
	HintRevealedFor   string             `bun:"hint_revealed_for,nullzero"`
	LastAnswered      *time.Time         `bun:"last_answered"`
	CompletionTime    *time.Time         `bun:"completion_time"`
	CompletionRank    int                `bun:"completion_rank,notnull"`
	BonusPoints       int                `bun:"bonus_points,notnull"`
	QuestionPath      []domain.PathEntry `bun:"question_path,type:jsonb,notnull"`
	CreatedAt         time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	Version           int64              `bun:"version,notnull"`
}

type settingsRow struct {
	bun.BaseModel `bun:"table:game_settings"`

	ID         int       `bun:"id,pk"`
	QuizActive bool      `bun:"quiz_active,notnull"`
	QuizPaused bool      `bun:"quiz_paused,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

type announcementRow struct {
	bun.BaseModel `bun:"table:announcements,alias:a"`

	ID        string     `bun:"id,pk"`
	Title     string     `bun:"title,notnull"`
	Message   string     `bun:"message,notnull"`
	Kind      string     `bun:"kind,notnull"`
	IsActive  bool       `bun:"is_active,notnull"`
	ExpiresAt *time.Time `bun:"expires_at"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
}

func questionFromDomain(q domain.Question) *questionRow {
	return &questionRow{
		ID:             q.ID,
		OrderIndex:     q.OrderIndex,
		Title:          q.Title,
		Prompt:         q.Prompt,
		MediaType:      string(q.MediaType),
		MediaURL:       q.MediaURL,
		Answer:         q.Answer,
		Hint:           q.Hint,
		Points:         q.Points,
		Category:       q.Category,
		Explanation:    q.Explanation,
		IsActive:       q.IsActive,
		Difficulty:     string(q.Difficulty),
		IsBranchPoint:  q.IsBranchPoint,
		NextQuestionID: q.NextQuestionID,
	}
}

func choiceFromDomain(ch domain.ChoiceQuestion) *choiceRow {
	return &choiceRow{
		ID:               ch.ID,
		BranchQuestionID: ch.BranchQuestionID,
		Title:            ch.Title,
		Prompt:           ch.Prompt,
		MediaType:        string(ch.MediaType),
		MediaURL:         ch.MediaURL,
		Answer:           ch.Answer,
		Hint:             ch.Hint,
		Points:           ch.Points,
		Category:         ch.Category,
		Explanation:      ch.Explanation,
		Difficulty:       string(ch.Difficulty),
		IsActive:         ch.IsActive,
	}
}

func teamFromDomain(t domain.Team) *teamRow {
	path := t.QuestionPath
	if path == nil {
		path = []domain.PathEntry{}
	}
	return &teamRow{
		Name:              t.Name,
		Email:             t.Email,
		PasswordHash:      t.PasswordHash,
		Score:             t.Score,
		CurrentQuestion:   t.CurrentQuestion,
		CurrentQuestionID: t.CurrentQuestionID,
		PendingBranchID:   t.PendingBranchID,
		PowerUps:          t.PowerUps,
		BrainBoostActive:  t.BrainBoostActive,
		HintRevealedFor:   t.HintRevealedFor,
		LastAnswered:      t.LastAnswered,
		CompletionTime:    t.CompletionTime,
		CompletionRank:    t.CompletionRank,
		BonusPoints:       t.BonusPoints,
		QuestionPath:      path,
		CreatedAt:         t.CreatedAt,
		Version:           t.Version,
	}
}

func (r *teamRow) toDomain() domain.Team {
	path := r.QuestionPath
	if path == nil {
		path = []domain.PathEntry{}
	}
	return domain.Team{
		Name:              r.Name,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		Score:             r.Score,
		CurrentQuestion:   r.CurrentQuestion,
		CurrentQuestionID: r.CurrentQuestionID,
		PendingBranchID:   r.PendingBranchID,
		PowerUps:          r.PowerUps,
		BrainBoostActive:  r.BrainBoostActive,
		HintRevealedFor:   r.HintRevealedFor,
		LastAnswered:      r.LastAnswered,
		CompletionTime:    r.CompletionTime,
		CompletionRank:    r.CompletionRank,
		BonusPoints:       r.BonusPoints,
		QuestionPath:      path,
		CreatedAt:         r.CreatedAt,
		Version:           r.Version,
	}
}

func (r *announcementRow) toDomain() domain.Announcement {
	return domain.Announcement{
		ID:        r.ID,
		Title:     r.Title,
		Message:   r.Message,
		Kind:      domain.AnnouncementKind(r.Kind),
		IsActive:  r.IsActive,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}
