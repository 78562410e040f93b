package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/woreda-portal/server/internal/portal/types"
)

// ── Public ───────────────────────────────────────────────────────────────────

func (s *Server) handleSubmitAccessRequest(w http.ResponseWriter, r *http.Request) {
	var req types.SubmitAccessRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}

	resp, err := s.desk.Submit(r.Context(), chi.URLParam(r, "tenantID"), req, clientIP(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleAccessRequestStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.desk.FindByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleValidateAccess accepts the token in the body or as a bearer token.
func (s *Server) handleValidateAccess(w http.ResponseWriter, r *http.Request) {
	var req types.ValidateAccessRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if req.Token == "" {
		req.Token, _ = bearerToken(r)
	}

	grant, err := s.issuer.Validate(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ValidateAccessResponse{
		Valid:     true,
		TenantID:  grant.TenantID,
		ExpiresAt: grant.ExpiresAt,
	})
}

// ── Admin ────────────────────────────────────────────────────────────────────

func (s *Server) handleListAccessRequests(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "validation_error", "limit: must be a non-negative integer")
		return
	}

	resp, err := s.desk.ListRecent(r.Context(), adminTenant(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveAccessRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.issuer.Approve(r.Context(), adminTenant(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleDenyAccessRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.issuer.Deny(r.Context(), adminTenant(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
