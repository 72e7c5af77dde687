package accessrequests

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"eprf-collab/internal/middleware"
	"eprf-collab/internal/permissions"
	"eprf-collab/internal/ports/admin"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver *permissions.Resolver, admins admin.Directory) {
	r.Route("/incidents/{incidentID}/access-requests", func(ar chi.Router) {
		ar.Post("/", submitHandler(svc))
		ar.Get("/", listHandler(svc, resolver, admins))
	})
	r.Post("/access-requests/{requestID}/review", reviewHandler(svc))
}

type submitRequest struct {
	PatientLetter  string `json:"patient_letter,omitempty"`
	RequestedLevel string `json:"requested_level"`
	Message        string `json:"message,omitempty"`
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

type requestResponse struct {
	ID                string            `json:"id"`
	IncidentID        string            `json:"incident_id"`
	PatientLetter     string            `json:"patient_letter,omitempty"`
	RequesterID       string            `json:"requester_id"`
	RequesterCallsign string            `json:"requester_callsign,omitempty"`
	RequestedLevel    permissions.Level `json:"requested_level"`
	Message           string            `json:"message,omitempty"`
	Status            Status            `json:"status"`
	ReviewedBy        string            `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// submitHandler no pide permiso previo: pedir acceso es justamente lo
// que hace quien todavía no tiene ninguno.
func submitHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		level, ok := permissions.ParseLevel(req.RequestedLevel)
		if !ok {
			http.Error(w, "requested_level must be view, edit or manage", http.StatusBadRequest)
			return
		}

		out, err := svc.Submit(r.Context(), SubmitInput{
			IncidentID:        chi.URLParam(r, "incidentID"),
			PatientLetter:     strings.ToUpper(strings.TrimSpace(req.PatientLetter)),
			RequesterID:       claims.UserID,
			RequesterCallsign: claims.Callsign,
			RequestedLevel:    level,
			Message:           req.Message,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toRequestResponse(out))
	}
}

func listHandler(svc *Service, resolver *permissions.Resolver, admins admin.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		incidentID := chi.URLParam(r, "incidentID")

		// Misma autoridad que para revisar: admin de sistema u owner.
		if !admins.IsSystemAdmin(r.Context(), claims.UserID) {
			level, err := resolver.Resolve(r.Context(), claims.UserID, incidentID, "")
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if level != permissions.LevelOwner {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		items, err := svc.ListByIncident(r.Context(), incidentID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]requestResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toRequestResponse(it))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func reviewHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		out, err := svc.Review(r.Context(), ReviewInput{
			RequestID:  chi.URLParam(r, "requestID"),
			ReviewerID: claims.UserID,
			Approve:    req.Approve,
			Reason:     strings.TrimSpace(req.Reason),
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
				http.Error(w, "request already reviewed", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(out))
	}
}

func toRequestResponse(r Request) requestResponse {
	return requestResponse{
		ID:                r.ID,
		IncidentID:        r.IncidentID,
		PatientLetter:     r.PatientLetter,
		RequesterID:       r.RequesterID,
		RequesterCallsign: r.RequesterCallsign,
		RequestedLevel:    r.RequestedLevel,
		Message:           r.Message,
		Status:            r.Status,
		ReviewedBy:        r.ReviewedBy,
		ReviewedAt:        r.ReviewedAt,
		CreatedAt:         r.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
