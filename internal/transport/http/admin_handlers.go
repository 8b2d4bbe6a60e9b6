package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	token, err := h.Auth.AdminLogin(req.Name, req.Password)
	if err != nil {
		h.Logger.Warn("admin login rejected", "user", req.Name)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token}, "")
}

func (h *Handlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.Catalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c, "")
}

func (h *Handlers) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Branch != nil {
		ids, err := h.Catalog.CreateBranch(r.Context(), req.toDomain(), req.Branch.Easy.toDomain(), req.Branch.Hard.toDomain())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ids, "branch created")
		return
	}
	q, err := h.Catalog.AddQuestion(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q, "question created")
}

func (h *Handlers) ReorderQuestions(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Catalog.Reorder(r.Context(), req.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "questions reordered")
}

func (h *Handlers) SetQuestionActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Catalog.SetActive(r.Context(), chi.URLParam(r, "id"), *req.Active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "question updated")
}

func (h *Handlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteQuestion(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "question deleted")
}

func (h *Handlers) BranchChoices(w http.ResponseWriter, r *http.Request) {
	choices, err := h.Catalog.ChoicesFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, choices, "")
}

func (h *Handlers) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteBranch(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil, "branch deleted")
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.Settings.Update(r.Context(), req.QuizActive, req.QuizPaused)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view, "settings updated")
}

func (h *Handlers) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req announcementRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	a, err := h.Announcements.Create(r.Context(), req.Title, req.Message, req.Kind, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a, "announcement sent")
}

func (h *Handlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Teams.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams, "")
}

func (h *Handlers) GrantPowerUp(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	team, err := h.Engine.Grant(r.Context(), chi.URLParam(r, "name"), req.Kind, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team, "power-ups updated")
}

func (h *Handlers) AdjustScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decode(r, h.validate, &req); err != nil {
		writeError(w, err)
		return
	}
	team, err := h.Engine.AdjustScore(r.Context(), chi.URLParam(r, "name"), req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team, "score updated")
}
