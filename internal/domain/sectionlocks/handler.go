package sectionlocks

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
	r.Route("/incidents/{incidentID}/patients/{letter}/locks", func(lr chi.Router) {
		lr.Post("/", lockHandler(svc))
		lr.Get("/", listLocksHandler(svc, resolver))
		lr.Delete("/{section}", unlockHandler(svc, admins))
	})
}

type lockRequest struct {
	Section string `json:"section"`
	Level   string `json:"level"`
}

type lockResponse struct {
	IncidentID    string            `json:"incident_id"`
	PatientLetter string            `json:"patient_letter"`
	Section       string            `json:"section"`
	Level         permissions.Level `json:"level"`
	LockedBy      string            `json:"locked_by"`
	LockedAt      time.Time         `json:"locked_at"`
	Version       int               `json:"version"`
}

func lockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req lockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		level, ok := permissions.ParseLockLevel(req.Level)
		if !ok {
			http.Error(w, "level must be edit or manage", http.StatusBadRequest)
			return
		}

		l, err := svc.Lock(r.Context(), LockInput{
			IncidentID:    chi.URLParam(r, "incidentID"),
			PatientLetter: strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "letter"))),
			Section:       req.Section,
			Level:         level,
			LockerID:      claims.UserID,
		})
		if err != nil {
			switch err {
			case ErrInvalidInput, permissions.ErrInvalidInput:
				http.Error(w, "invalid input", http.StatusBadRequest)
			case ErrForbidden, permissions.ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toLockResponse(l))
	}
}

func listLocksHandler(svc *Service, resolver *permissions.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		incidentID := chi.URLParam(r, "incidentID")
		letter := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "letter")))

		if _, err := resolver.RequireAtLeast(r.Context(), claims.UserID, permissions.PatientScope(incidentID, letter), permissions.LevelView); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.List(r.Context(), incidentID, letter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]lockResponse, 0, len(items))
		for _, l := range items {
			out = append(out, toLockResponse(l))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type unlockResponse struct {
	Removed bool `json:"removed"`
}

// unlockHandler: el override de admin se decide acá con el directorio,
// el service no conoce admins.
func unlockHandler(svc *Service, admins admin.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		adminOverride := admins.IsSystemAdmin(r.Context(), claims.UserID)

		removed, err := svc.Unlock(
			r.Context(),
			chi.URLParam(r, "incidentID"),
			strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "letter"))),
			chi.URLParam(r, "section"),
			claims.UserID,
			adminOverride,
		)
		if err != nil {
			switch err {
			case ErrInvalidInput, permissions.ErrInvalidInput:
				http.Error(w, "invalid input", http.StatusBadRequest)
			case ErrForbidden, permissions.ErrForbidden:
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, unlockResponse{Removed: removed})
	}
}

func toLockResponse(l Lock) lockResponse {
	return lockResponse{
		IncidentID:    l.IncidentID,
		PatientLetter: l.PatientLetter,
		Section:       l.Section,
		Level:         l.Level,
		LockedBy:      l.LockedBy,
		LockedAt:      l.LockedAt,
		Version:       l.Version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
