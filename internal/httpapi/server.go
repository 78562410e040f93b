// Package httpapi exposes the access desk, grant issuer and appointment
// scheduler over JSON/HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/woreda-portal/server/internal/portal/service"
)

// maxRequestBody caps JSON request bodies.  The largest payload is an
// appointment form with a 2000 character reason.
const maxRequestBody = 16 << 10

type Dependencies struct {
	Addr        string
	Version     string
	CORSOrigins []string
	Admin       AdminAuth

	Desk      *service.AccessDesk
	Issuer    *service.GrantIssuer
	Scheduler *service.AppointmentScheduler
}

type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	version    string
	admin      AdminAuth

	desk      *service.AccessDesk
	issuer    *service.GrantIssuer
	scheduler *service.AppointmentScheduler
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		version:   d.Version,
		admin:     d.Admin,
		desk:      d.Desk,
		issuer:    d.Issuer,
		scheduler: d.Scheduler,
	}

	s.router.Use(requestLogger)
	s.router.Use(panicHandler)
	if len(d.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: d.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}
	s.mountRoutes()

	if len(d.Admin.Secret) == 0 {
		log.Warn().Msg("admin JWT secret is empty; admin routes will reject every request")
	}

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) mountRoutes() {
	r := s.router
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/tenants/{tenantID}/access-requests", s.handleSubmitAccessRequest)
		r.Get("/access-requests/{code}", s.handleAccessRequestStatus)
		r.Post("/access/validate", s.handleValidateAccess)

		r.Post("/tenants/{tenantID}/appointments", s.handleCreateAppointment)
		r.Get("/appointments/{code}", s.handleAppointmentByCode)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/access-requests", s.handleListAccessRequests)
			r.Post("/access-requests/{id}/approve", s.handleApproveAccessRequest)
			r.Post("/access-requests/{id}/deny", s.handleDenyAccessRequest)

			r.Get("/appointments", s.handleListAppointments)
			r.Post("/appointments/{id}/decision", s.handleDecideAppointment)
		})
	})
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type versionResponse struct {
	ServerVersion string `json:"server_version"`
	APIVersion    string `json:"api_version"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{ServerVersion: s.version, APIVersion: "v1"})
}
