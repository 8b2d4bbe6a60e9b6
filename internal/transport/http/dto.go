package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"decodex/internal/domain"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type answerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer" validate:"required"`
}

type choiceRequest struct {
	Difficulty domain.Difficulty `json:"difficulty" validate:"required,oneof=easy hard"`
}

type choiceSpecRequest struct {
	Prompt string `json:"prompt" validate:"required"`
	Answer string `json:"answer" validate:"required"`
	Hint   string `json:"hint"`
	Points int    `json:"points" validate:"gte=0"`
}

type branchRequest struct {
	Easy choiceSpecRequest `json:"easy"`
	Hard choiceSpecRequest `json:"hard"`
}

type questionRequest struct {
	Title          string            `json:"title" validate:"max=200"`
	Prompt         string            `json:"prompt" validate:"required"`
	MediaType      domain.MediaType  `json:"mediaType" validate:"omitempty,oneof=text image video audio document file"`
	MediaURL       string            `json:"mediaUrl" validate:"omitempty,url"`
	Answer         string            `json:"answer" validate:"required"`
	Hint           string            `json:"hint"`
	Points         int               `json:"points" validate:"gte=0"`
	Category       string            `json:"category"`
	Explanation    string            `json:"explanation"`
	IsActive       *bool             `json:"isActive"`
	Difficulty     domain.Difficulty `json:"difficulty" validate:"omitempty,oneof=easy normal hard expert"`
	NextQuestionID string            `json:"nextQuestionId"`
	Branch         *branchRequest    `json:"branch" validate:"omitempty"`
}

func (q questionRequest) toDomain() domain.Question {
	active := true
	if q.IsActive != nil {
		active = *q.IsActive
	}
	return domain.Question{
		Title:          q.Title,
		Prompt:         q.Prompt,
		MediaType:      q.MediaType,
		MediaURL:       q.MediaURL,
		Answer:         q.Answer,
		Hint:           q.Hint,
		Points:         q.Points,
		Category:       q.Category,
		Explanation:    q.Explanation,
		IsActive:       active,
		Difficulty:     q.Difficulty,
		NextQuestionID: q.NextQuestionID,
	}
}

func (c choiceSpecRequest) toDomain() domain.ChoiceSpec {
	return domain.ChoiceSpec{Prompt: c.Prompt, Answer: c.Answer, Hint: c.Hint, Points: c.Points}
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type orderRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type settingsRequest struct {
	QuizActive *bool `json:"quizActive"`
	QuizPaused *bool `json:"quizPaused"`
}

type announcementRequest struct {
	Title      string                  `json:"title" validate:"required,max=200"`
	Message    string                  `json:"message" validate:"required"`
	Kind       domain.AnnouncementKind `json:"kind" validate:"omitempty,oneof=info warning success urgent"`
	TTLSeconds int                     `json:"ttlSeconds" validate:"gte=0"`
}

type grantRequest struct {
	Kind  domain.PowerUpKind `json:"kind" validate:"required,oneof=hint skip brainBoost doublePoints"`
	Delta int                `json:"delta"`
}

type scoreRequest struct {
	Delta int `json:"delta"`
}

// decode reads a JSON body into dst and validates it. Failures are ErrValidation.
func decode(r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", domain.ErrValidation)
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields %s: %w", strings.Join(fields, ", "), domain.ErrValidation)
		}
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	return nil
}
