package transfers

import (
	"encoding/json"
	"net/http"
	"strings"

	"eprf-collab/internal/middleware"
	"eprf-collab/internal/permissions"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/incidents/{incidentID}/patients/{letter}/transfer", transferPatientHandler(svc))
	r.Post("/incidents/{incidentID}/transfer", transferIncidentHandler(svc))
}

type transferRequest struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	ToCallsign string `json:"to_callsign"`
}

func transferPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req transferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		err := svc.TransferPatient(r.Context(), TransferInput{
			IncidentID:    chi.URLParam(r, "incidentID"),
			PatientLetter: strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "letter"))),
			FromUserID:    strings.TrimSpace(req.FromUserID),
			ToUserID:      strings.TrimSpace(req.ToUserID),
			ToCallsign:    strings.TrimSpace(req.ToCallsign),
			RequestedBy:   claims.UserID,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput, permissions.ErrInvalidInput:
				http.Error(w, "invalid input", http.StatusBadRequest)
			case ErrForbidden, permissions.ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			case ErrConflict:
				http.Error(w, "patient is not owned by from_user_id", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// transferIncidentHandler responde 200 con resultado por letra; un fallo
// parcial queda visible en el detalle, nunca como éxito global.
func transferIncidentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req transferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		results, err := svc.TransferIncident(r.Context(), TransferInput{
			IncidentID:  chi.URLParam(r, "incidentID"),
			FromUserID:  strings.TrimSpace(req.FromUserID),
			ToUserID:    strings.TrimSpace(req.ToUserID),
			ToCallsign:  strings.TrimSpace(req.ToCallsign),
			RequestedBy: claims.UserID,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput, permissions.ErrInvalidInput:
				http.Error(w, "invalid input", http.StatusBadRequest)
			case ErrForbidden, permissions.ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, results)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
