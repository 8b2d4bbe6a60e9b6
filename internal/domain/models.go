package domain

import "time"

// MediaType tags the optional attachment of a question.
type MediaType string

const (
	MediaText     MediaType = "text"
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
	MediaFile     MediaType = "file"
)

// Difficulty labels a question. Choice questions only use DifficultyEasy and DifficultyHard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// Question is an authored entry of the main sequence.
type Question struct {
	ID             string     `json:"id"`
	OrderIndex     int        `json:"orderIndex"`
	Title          string     `json:"title"`
	Prompt         string     `json:"prompt"`
	MediaType      MediaType  `json:"mediaType"`
	MediaURL       string     `json:"mediaUrl,omitempty"`
	Answer         string     `json:"answer"`
	Hint           string     `json:"hint,omitempty"`
	Points         int        `json:"points"`
	Category       string     `json:"category"`
	Explanation    string     `json:"explanation,omitempty"`
	IsActive       bool       `json:"isActive"`
	Difficulty     Difficulty `json:"difficulty"`
	IsBranchPoint  bool       `json:"isBranchPoint"`
	NextQuestionID string     `json:"nextQuestionId,omitempty"`
}

// ChoiceQuestion is one of the two path questions generated for a branch point.
type ChoiceQuestion struct {
	ID               string     `json:"id"`
	BranchQuestionID string     `json:"branchQuestionId"`
	Title            string     `json:"title"`
	Prompt           string     `json:"prompt"`
	MediaType        MediaType  `json:"mediaType"`
	MediaURL         string     `json:"mediaUrl,omitempty"`
	Answer           string     `json:"answer"`
	Hint             string     `json:"hint,omitempty"`
	Points           int        `json:"points"`
	Category         string     `json:"category"`
	Explanation      string     `json:"explanation,omitempty"`
	Difficulty       Difficulty `json:"difficulty"`
	IsActive         bool       `json:"isActive"`
}

// ChoiceSpec is the authoring input for one side of a branch.
type ChoiceSpec struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	Answer string `json:"answer" yaml:"answer"`
	Hint   string `json:"hint,omitempty" yaml:"hint"`
	Points int    `json:"points" yaml:"points"`
}

// QuestionChoice is what a team sees when offered a path after solving a branch point.
type QuestionChoice struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	Points      int        `json:"points"`
	Icon        string     `json:"icon"`
	QuestionID  string     `json:"questionId"`
}

// PowerUpKind names a single-use team ability.
type PowerUpKind string

const (
	PowerUpHint         PowerUpKind = "hint"
	PowerUpSkip         PowerUpKind = "skip"
	PowerUpBrainBoost   PowerUpKind = "brainBoost"
	PowerUpDoublePoints PowerUpKind = "doublePoints"
)

// PowerUps holds the remaining balance per kind.
type PowerUps struct {
	Hint         int `json:"hint"`
	Skip         int `json:"skip"`
	BrainBoost   int `json:"brainBoost"`
	DoublePoints int `json:"doublePoints"`
}

// Count returns the balance for kind.
func (p PowerUps) Count(kind PowerUpKind) int {
	switch kind {
	case PowerUpHint:
		return p.Hint
	case PowerUpSkip:
		return p.Skip
	case PowerUpBrainBoost:
		return p.BrainBoost
	case PowerUpDoublePoints:
		return p.DoublePoints
	}
	return 0
}

// Set overwrites the balance for kind, clamped at zero.
func (p *PowerUps) Set(kind PowerUpKind, n int) {
	if n < 0 {
		n = 0
	}
	switch kind {
	case PowerUpHint:
		p.Hint = n
	case PowerUpSkip:
		p.Skip = n
	case PowerUpBrainBoost:
		p.BrainBoost = n
	case PowerUpDoublePoints:
		p.DoublePoints = n
	}
}

// ValidPowerUp reports whether kind is a known power-up.
func ValidPowerUp(kind PowerUpKind) bool {
	switch kind {
	case PowerUpHint, PowerUpSkip, PowerUpBrainBoost, PowerUpDoublePoints:
		return true
	}
	return false
}

// PathEntry is one line of a team's append-only progress log.
type PathEntry struct {
	QuestionID string    `json:"questionId"`
	Answer     string    `json:"answer,omitempty"`
	Skipped    bool      `json:"skipped,omitempty"`
	Points     int       `json:"points"`
	Timestamp  time.Time `json:"timestamp"`
}

// Team is a registered player group and its progress.
// CurrentQuestionID names the main or choice question the team is on and wins over the
// CurrentQuestion position, which only locates teams that have no explicit pointer yet.
type Team struct {
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	PasswordHash      string      `json:"-"`
	Score             int         `json:"score"`
	CurrentQuestion   int         `json:"currentQuestion"`
	CurrentQuestionID string      `json:"currentQuestionId,omitempty"`
	PendingBranchID   string      `json:"pendingBranchId,omitempty"`
	PowerUps          PowerUps    `json:"powerUps"`
	BrainBoostActive  bool        `json:"brainBoostActive"`
	HintRevealedFor   string      `json:"hintRevealedFor,omitempty"`
	LastAnswered      *time.Time  `json:"lastAnswered,omitempty"`
	CompletionTime    *time.Time  `json:"completionTime,omitempty"`
	CompletionRank    int         `json:"completionRank,omitempty"`
	BonusPoints       int         `json:"bonusPoints"`
	QuestionPath      []PathEntry `json:"questionPath"`
	CreatedAt         time.Time   `json:"createdAt"`
	Version           int64       `json:"version"`
}

// NewTeam returns a freshly registered team: zero score and one of each power-up.
func NewTeam(name, email, passwordHash string, now time.Time) Team {
	return Team{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		PowerUps:     PowerUps{Hint: 1, Skip: 1, BrainBoost: 1, DoublePoints: 1},
		QuestionPath: []PathEntry{},
		CreatedAt:    now,
	}
}

// Clone returns a deep copy so repositories can apply mutations without aliasing.
func (t Team) Clone() Team {
	c := t
	c.QuestionPath = append(make([]PathEntry, 0, len(t.QuestionPath)), t.QuestionPath...)
	if t.LastAnswered != nil {
		v := *t.LastAnswered
		c.LastAnswered = &v
	}
	if t.CompletionTime != nil {
		v := *t.CompletionTime
		c.CompletionTime = &v
	}
	return c
}

// Finished reports whether the team has been credited with completing the sequence.
func (t Team) Finished() bool {
	return t.CompletionTime != nil
}

// Solved counts the non-skipped entries of the path.
func (t Team) Solved() int {
	n := 0
	for _, e := range t.QuestionPath {
		if !e.Skipped {
			n++
		}
	}
	return n
}

// HasCleared reports whether the path already holds an entry, answered or skipped, for id.
func (t Team) HasCleared(id string) bool {
	for _, e := range t.QuestionPath {
		if e.QuestionID == id {
			return true
		}
	}
	return false
}

// TeamState is the progression state a team is in.
type TeamState string

const (
	StateAwaitingQuestion TeamState = "awaiting_question"
	StateAwaitingChoice   TeamState = "awaiting_choice"
	StateComplete         TeamState = "complete"
)

// GameState is the derived, user-facing view of GameSettings.
type GameState string

const (
	GameWaiting GameState = "waiting"
	GameRunning GameState = "running"
	GamePaused  GameState = "paused"
)

// GameSettings is the process-wide gate for serving questions.
type GameSettings struct {
	QuizActive bool      `json:"quizActive"`
	QuizPaused bool      `json:"quizPaused"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// State distinguishes "not started" from "paused".
func (s GameSettings) State() GameState {
	switch {
	case !s.QuizActive:
		return GameWaiting
	case s.QuizPaused:
		return GamePaused
	default:
		return GameRunning
	}
}

// Running reports whether questions may be served and answered.
func (s GameSettings) Running() bool {
	return s.State() == GameRunning
}

// AnnouncementKind styles an admin broadcast.
type AnnouncementKind string

const (
	AnnouncementInfo    AnnouncementKind = "info"
	AnnouncementWarning AnnouncementKind = "warning"
	AnnouncementSuccess AnnouncementKind = "success"
	AnnouncementUrgent  AnnouncementKind = "urgent"
)

// Announcement is an admin broadcast shown to all players.
type Announcement struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Kind      AnnouncementKind `json:"kind"`
	IsActive  bool             `json:"isActive"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Visible reports whether the announcement should be shown at now.
func (a Announcement) Visible(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	return a.ExpiresAt == nil || now.Before(*a.ExpiresAt)
}

// LeaderboardEntry is a snapshot-friendly view of a team.
type LeaderboardEntry struct {
	Rank           int        `json:"rank"`
	TeamName       string     `json:"teamName"`
	Score          int        `json:"score"`
	BonusPoints    int        `json:"bonusPoints"`
	Solved         int        `json:"solved"`
	LastAnswered   *time.Time `json:"lastAnswered,omitempty"`
	CompletionTime *time.Time `json:"completionTime,omitempty"`
}

// Leaderboard captures the ordered scoreboard.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuestionView is the sanitized question payload handed to players. It never carries the answer.
type QuestionView struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Prompt           string     `json:"prompt"`
	Hint             string     `json:"hint,omitempty"`
	HintAvailable    bool       `json:"hintAvailable"`
	MediaType        MediaType  `json:"mediaType"`
	MediaURL         string     `json:"mediaUrl,omitempty"`
	Points           int        `json:"points"`
	BasePoints       int        `json:"basePoints"`
	Category         string     `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	IsBranchPoint    bool       `json:"isBranchPoint"`
	IsChoiceQuestion bool       `json:"isChoiceQuestion"`
	Position         int        `json:"position"`
	Total            int        `json:"total"`
}

// Progress is the answer to "what should this team see now".
type Progress struct {
	State    TeamState        `json:"state"`
	Question *QuestionView    `json:"question,omitempty"`
	Choices  []QuestionChoice `json:"choices,omitempty"`
	Score    int              `json:"score"`
	Total    int              `json:"total"`
}

// AnswerSubmission is a raw answer from a team. QuestionID is optional; when set the answer is
// only applied if the team is still on that question.
type AnswerSubmission struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// AnswerResult summarizes the outcome of an answer or a skip.
type AnswerResult struct {
	Success        bool             `json:"success"`
	Skipped        bool             `json:"skipped,omitempty"`
	QuestionID     string           `json:"question_id,omitempty"`
	PointsEarned   int              `json:"points_earned"`
	BonusPoints    int              `json:"bonus_points"`
	CompletionRank int              `json:"completion_rank,omitempty"`
	IsComplete     bool             `json:"is_complete"`
	HasChoices     bool             `json:"has_choices"`
	BranchChoices  []QuestionChoice `json:"branch_choices,omitempty"`
	TotalScore     int              `json:"total_score"`
}

// PowerUpResult reports the effect of consuming a power-up.
type PowerUpResult struct {
	Kind             PowerUpKind   `json:"kind"`
	Remaining        int           `json:"remaining"`
	Hint             string        `json:"hint,omitempty"`
	BrainBoostActive bool          `json:"brainBoostActive"`
	Skip             *AnswerResult `json:"skip,omitempty"`
}
