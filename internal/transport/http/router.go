package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"decodex/internal/app"
)

// Deps are the use cases the HTTP layer exposes.
type Deps struct {
	Engine        *app.Engine
	Catalog       *app.CatalogService
	Teams         *app.TeamService
	Settings      *app.SettingsService
	Announcements *app.AnnouncementService
	Scoreboard    *app.Scoreboard
	Auth          *app.Authenticator
	Hub           *app.Hub
	Logger        *slog.Logger
	CORSOrigins   []string
}

// Handlers holds the dependencies of every route.
type Handlers struct {
	Deps
	validate *validator.Validate
	ws       *WSHandler
}

func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &Handlers{
		Deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	h.ws = NewWSHandler(deps.Engine, deps.Hub, deps.Auth, deps.Logger)
	return h
}

// Routes builds the chi router.
func (h *Handlers) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(h.requestLogger)
	mux.Use(h.corsHandler())

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/ws", h.ws.ServeWS)

	mux.Route("/api", func(r chi.Router) {
		r.Post("/teams", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/admin/login", h.AdminLogin)

		r.Get("/leaderboard", h.Leaderboard)
		r.Get("/settings", h.GetSettings)
		r.Get("/announcements", h.ListAnnouncements)
		r.Get("/questions/count", h.QuestionCount)

		r.Route("/game", func(r chi.Router) {
			r.Use(h.requireRole(app.RoleTeam))
			r.Get("/me", h.Me)
			r.Get("/question", h.NextQuestion)
			r.Post("/answer", h.SubmitAnswer)
			r.Post("/choice", h.SelectChoice)
			r.Post("/skip", h.Skip)
			r.Post("/powerups/{kind}", h.UsePowerUp)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireRole(app.RoleAdmin))
			r.Get("/questions", h.ListQuestions)
			r.Post("/questions", h.CreateQuestion)
			r.Put("/questions/order", h.ReorderQuestions)
			r.Patch("/questions/{id}/active", h.SetQuestionActive)
			r.Delete("/questions/{id}", h.DeleteQuestion)
			r.Get("/questions/{id}/choices", h.BranchChoices)
			r.Delete("/questions/{id}/branch", h.DeleteBranch)
			r.Put("/settings", h.UpdateSettings)
			r.Post("/announcements", h.CreateAnnouncement)
			r.Get("/teams", h.ListTeams)
			r.Post("/teams/{name}/powerups", h.GrantPowerUp)
			r.Post("/teams/{name}/score", h.AdjustScore)
		})
	})

	return mux
}

func (h *Handlers) corsHandler() func(http.Handler) http.Handler {
	if len(h.CORSOrigins) == 0 {
		return cors.AllowAll().Handler
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   h.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
