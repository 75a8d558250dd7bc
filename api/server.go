/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and every route. This is
  the wiring layer that connects URLs to handlers and role gates.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the browser client

ROUTE GROUPS (under BasePath, default /api):
  /auth/*            register, login, me
  /leavetypes        catalog (list is public, create is admin)
  /leaves/*          submission (employee), listings, decision and report (admin)
  /notifications/*   caller's own outbox
  GET /              health text, outside BasePath

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Authentication and role gates
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/leave-manager/leave"
)

// HealthMessage is served on GET /.
const HealthMessage = "Leave Management API Running"

// RouterConfig controls mounting and CORS.
type RouterConfig struct {
	BasePath       string
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(HealthMessage))
	})

	routes := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(h.Authenticate).Get("/me", h.Me)
		})

		r.Route("/leavetypes", func(r chi.Router) {
			r.Get("/", h.ListLeaveTypes)
			r.With(h.Authenticate, RequireRole(leave.RoleAdmin)).Post("/", h.CreateLeaveType)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Use(h.Authenticate)

			r.With(RequireRole(leave.RoleEmployee)).Post("/", h.SubmitLeave)
			r.Get("/my", h.MyLeaves)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(leave.RoleAdmin))
				r.Get("/", h.ListLeaves)
				r.Get("/report", h.Report)
				r.Put("/{id}/decision", h.DecideLeave)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Get("/", h.ListNotifications)
			r.Put("/{id}/read", h.MarkNotificationRead)
		})
	}

	base := strings.TrimRight(cfg.BasePath, "/")
	if base == "" {
		r.Group(routes)
	} else {
		r.Route(base, routes)
	}

	return r
}
