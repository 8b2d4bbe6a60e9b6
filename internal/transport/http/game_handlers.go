package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"decodex/internal/domain"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.Teams.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Scoreboard.Publish(r.Context())
	writeJSON(w, http.StatusCreated, session, "team registered")
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	session, err := h.Teams.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session, "")
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	team, err := h.Teams.Get(r.Context(), subject(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team, "")
}

func (h *Handlers) NextQuestion(w http.ResponseWriter, r *http.Request) {
	progress, err := h.Engine.NextQuestion(r.Context(), subject(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress, "")
}

func (h *Handlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Engine.SubmitAnswer(r.Context(), subject(r), domain.AnswerSubmission{QuestionID: req.QuestionID, Answer: req.Answer})
	if err != nil {
		writeError(w, err)
		return
	}
	msg := "incorrect answer"
	if res.Success {
		msg = "correct answer"
	}
	writeJSON(w, http.StatusOK, res, msg)
}

func (h *Handlers) SelectChoice(w http.ResponseWriter, r *http.Request) {
	var req choiceRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	choice, err := h.Engine.SelectChoice(r.Context(), subject(r), req.Difficulty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, choice, "")
}

func (h *Handlers) Skip(w http.ResponseWriter, r *http.Request) {
	res, err := h.Engine.Skip(r.Context(), subject(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res, "question skipped")
}

func (h *Handlers) UsePowerUp(w http.ResponseWriter, r *http.Request) {
	kind := domain.PowerUpKind(chi.URLParam(r, "kind"))
	res, err := h.Engine.Consume(r.Context(), subject(r), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res, "")
}

func (h *Handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.Scoreboard.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb, "")
}

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	view, err := h.Settings.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view, "")
}

func (h *Handlers) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	list, err := h.Announcements.Active(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list, "")
}

func (h *Handlers) QuestionCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Catalog.CountActive(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n}, "")
}
