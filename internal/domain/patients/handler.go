package patients

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"eprf-collab/internal/middleware"
	"eprf-collab/internal/permissions"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, resolver *permissions.Resolver) {
	r.Route("/incidents/{incidentID}/patients", func(pr chi.Router) {
		pr.Post("/", createPatientHandler(svc))
		pr.Get("/", listPatientsHandler(svc, resolver))
		pr.Get("/{letter}", getPatientHandler(svc, resolver))
		pr.Post("/{letter}/status", setStatusHandler(svc, resolver))
	})
}

type createPatientRequest struct {
	Letter string `json:"letter"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type patientResponse struct {
	IncidentID     string    `json:"incident_id"`
	Letter         string    `json:"letter"`
	AuthorUserID   string    `json:"author_user_id"`
	AuthorCallsign string    `json:"author_callsign"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// createPatientHandler: cualquier usuario autenticado crea su paciente y
// queda como autor. El que crea A queda además como owner del incidente.
func createPatientHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		incidentID := chi.URLParam(r, "incidentID")

		var req createPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p, err := svc.Create(r.Context(), CreateInput{
			IncidentID:     incidentID,
			Letter:         req.Letter,
			AuthorUserID:   claims.UserID,
			AuthorCallsign: claims.Callsign,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrConflict:
				http.Error(w, "patient letter already taken", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listPatientsHandler(svc *Service, resolver *permissions.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		incidentID := chi.URLParam(r, "incidentID")

		if _, err := resolver.RequireAtLeast(r.Context(), claims.UserID, permissions.IncidentScope(incidentID), permissions.LevelView); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByIncident(r.Context(), incidentID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]patientResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPatientHandler(svc *Service, resolver *permissions.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		incidentID := chi.URLParam(r, "incidentID")
		letter := chi.URLParam(r, "letter")

		if _, err := resolver.RequireAtLeast(r.Context(), claims.UserID, permissions.PatientScope(incidentID, strings.ToUpper(letter)), permissions.LevelView); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		p, err := svc.Get(r.Context(), incidentID, letter)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

// setStatusHandler: autor del paciente o manage+ sobre su scope.
func setStatusHandler(svc *Service, resolver *permissions.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		incidentID := chi.URLParam(r, "incidentID")
		letter := chi.URLParam(r, "letter")

		var req setStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if _, err := resolver.RequireAtLeast(r.Context(), claims.UserID, permissions.PatientScope(incidentID, strings.ToUpper(letter)), permissions.LevelManage); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		p, err := svc.SetStatus(r.Context(), incidentID, letter, Status(strings.ToLower(strings.TrimSpace(req.Status))))
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func toPatientResponse(p Patient) patientResponse {
	return patientResponse{
		IncidentID:     p.IncidentID,
		Letter:         p.Letter,
		AuthorUserID:   p.AuthorUserID,
		AuthorCallsign: p.AuthorCallsign,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// writeJSON se duplica a propósito en cada módulo; extraer un helper
// compartido recién tiene sentido cuando el formato diverja.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
