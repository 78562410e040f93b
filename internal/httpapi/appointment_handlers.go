package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/woreda-portal/server/internal/portal/types"
)

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req types.CreateAppointmentRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	resp, err := s.scheduler.Create(r.Context(), chi.URLParam(r, "tenantID"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAppointmentByCode(w http.ResponseWriter, r *http.Request) {
	resp, err := s.scheduler.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "limit: must be a non-negative integer")
		return
	}

	resp, err := s.scheduler.List(r.Context(), adminTenant(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecideAppointment(w http.ResponseWriter, r *http.Request) {
	var req types.AppointmentDecisionRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}

	resp, err := s.scheduler.Decide(r.Context(), adminTenant(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
