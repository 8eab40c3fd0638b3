package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

type HandlerConfig struct {
	AllowedOrigins []string
	SecureCookie   bool
}

func NewHandler(portal *services.Portal, tokens *TabTokens, cfg HandlerConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	authHandler := NewAuthHandler()
	ballotHandler := NewBallotHandler()
	adminHandler := NewAdminHandler(portal.Admin)
	rosterHandler := NewRosterHandler(portal, logger)
	eventsHandler := NewEventsHandler(portal.Records.Store())

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("welcome"))
		})

		r.Group(func(r chi.Router) {
			r.Use(TabMiddleware(portal, tokens, cfg.SecureCookie, logger))

			r.Get("/view", authHandler.GetView)
			r.Post("/view/login", authHandler.ShowLogin)
			r.Get("/events", eventsHandler.Stream)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/admin", authHandler.AdminLogin)
				r.Post("/voter", authHandler.VoterLogin)
				r.Post("/logout", authHandler.Logout)
			})

			r.Route("/ballot", func(r chi.Router) {
				r.Use(RequireVoter)
				r.Get("/", ballotHandler.GetBallot)
				r.Put("/election", ballotHandler.SelectElection)
				r.Put("/candidate", ballotHandler.SelectCandidate)
				r.Post("/submit", ballotHandler.Submit)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Get("/elections", adminHandler.ListElections)
				r.Post("/elections", adminHandler.AddElection)
				r.Delete("/elections/{id}", adminHandler.DeleteElection)

				r.Get("/candidates", adminHandler.ListCandidates)
				r.Post("/candidates", adminHandler.AddCandidate)
				r.Delete("/candidates/{index}", adminHandler.DeleteCandidate)

				r.Get("/voters", adminHandler.ListVoters)
				r.Post("/voters", adminHandler.AddVoter)
				r.Delete("/voters/{uid}", adminHandler.DeleteVoter)
				r.Post("/voters/import", rosterHandler.ImportVoters)
				r.Get("/voters/export", rosterHandler.ExportVoters)

				r.Post("/users/import", rosterHandler.ImportUsers)
				r.Get("/users", rosterHandler.ListUsers)
				r.Get("/users/export", rosterHandler.ExportUsers)

				r.Get("/status", rosterHandler.Status)
			})
		})
	})

	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}).Handler(r)
}
