package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/paulexconde/eventmatch/internal/auth"
	"github.com/paulexconde/eventmatch/internal/handler"
	mw "github.com/paulexconde/eventmatch/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Hosts        *handler.HostHandler
	Events       *handler.EventHandler
	Registration *handler.RegistrationHandler
	QA           *handler.QAHandler
	Templates    *handler.TemplateHandler
}

func New(logger *slog.Logger, tokens *auth.Tokens, gatherer prometheus.Gatherer, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery(logger))
	r.Use(mw.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/hosts/register", h.Hosts.Register)
		r.Post("/hosts/login", h.Hosts.Login)

		r.Get("/events", h.Events.ListPublished)
		r.Get("/events/{eventID}", h.Events.GetPublished)
		r.Get("/events/{eventID}/form", h.Registration.Form)
		r.Post("/events/{eventID}/register", h.Registration.Register)
		r.Get("/events/{eventID}/questions", h.QA.List)
		r.Post("/events/{eventID}/questions", h.QA.Submit)
		r.Post("/questions/{questionID}/vote", h.QA.Vote)

		// Host routes
		r.Route("/host", func(r chi.Router) {
			r.Use(auth.Middleware(tokens))

			r.Get("/me", h.Hosts.Me)
			r.Put("/me", h.Hosts.UpdateMe)
			r.Get("/dashboard", h.Hosts.Dashboard)

			r.Get("/templates", h.Templates.List)
			r.Get("/templates/{templateID}/questions", h.Templates.Questions)

			r.Get("/events", h.Events.List)
			r.Post("/events", h.Events.Create)
			r.Get("/events/{eventID}", h.Events.Get)
			r.Put("/events/{eventID}", h.Events.Update)
			r.Post("/events/{eventID}/publish", h.Events.Publish)
			r.Get("/events/{eventID}/stats", h.Events.Stats)
			r.Get("/events/{eventID}/participants", h.Events.Participants)

			r.Get("/events/{eventID}/questions", h.Events.Questions)
			r.Post("/events/{eventID}/questions", h.Events.AddQuestion)
			r.Delete("/events/{eventID}/questions/{questionID}", h.Events.DeleteQuestion)

			r.Post("/participants/{participantID}/cancel", h.Events.CancelParticipant)
			r.Post("/participants/{participantID}/attend", h.Events.MarkAttended)

			r.Post("/public-questions/{questionID}/answer", h.QA.Answer)
		})
	})

	return r
}
