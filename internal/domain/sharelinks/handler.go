package sharelinks

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

func RegisterRoutes(r chi.Router, svc *Service, admins admin.Directory) {
	r.Post("/incidents/{incidentID}/share-links", createLinkHandler(svc))
	r.Route("/share-links/{code}", func(sr chi.Router) {
		sr.Get("/", inspectLinkHandler(svc))
		sr.Post("/redeem", redeemLinkHandler(svc))
		sr.Delete("/", revokeLinkHandler(svc, admins))
	})
}

type createLinkRequest struct {
	PatientLetter  string `json:"patient_letter,omitempty"`
	Level          string `json:"level"`
	ExpiresInHours int    `json:"expires_in_hours,omitempty"`
}

type linkResponse struct {
	Code          string            `json:"code"`
	IncidentID    string            `json:"incident_id"`
	PatientLetter string            `json:"patient_letter,omitempty"`
	Level         permissions.Level `json:"level"`
	CreatedBy     string            `json:"created_by"`
	CreatedAt     time.Time         `json:"created_at"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
}

func createLinkHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createLinkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		level, ok := permissions.ParseLevel(req.Level)
		if !ok {
			http.Error(w, "level must be view, edit or manage", http.StatusBadRequest)
			return
		}

		l, err := svc.Create(r.Context(), CreateInput{
			IncidentID:     chi.URLParam(r, "incidentID"),
			PatientLetter:  strings.ToUpper(strings.TrimSpace(req.PatientLetter)),
			Level:          level,
			CreatedBy:      claims.UserID,
			ExpiresInHours: req.ExpiresInHours,
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

		writeJSON(w, http.StatusCreated, toLinkResponse(l))
	}
}

type inspectResponse struct {
	IncidentID    string            `json:"incident_id"`
	PatientLetter string            `json:"patient_letter,omitempty"`
	Level         permissions.Level `json:"level"`
	IsExpired     bool              `json:"is_expired"`
	IsUsed        bool              `json:"is_used"`
	UsedBy        string            `json:"used_by,omitempty"`
}

// inspectLinkHandler muestra qué otorga el link sin consumirlo: el
// cliente decide antes de redimir.
func inspectLinkHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		info, err := svc.Inspect(r.Context(), chi.URLParam(r, "code"))
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

		writeJSON(w, http.StatusOK, inspectResponse{
			IncidentID:    info.IncidentID,
			PatientLetter: info.PatientLetter,
			Level:         info.Level,
			IsExpired:     info.IsExpired,
			IsUsed:        info.IsUsed,
			UsedBy:        info.UsedBy,
		})
	}
}

type redeemResponse struct {
	IncidentID    string            `json:"incident_id"`
	PatientLetter string            `json:"patient_letter,omitempty"`
	UserID        string            `json:"user_id"`
	Level         permissions.Level `json:"level"`
}

func redeemLinkHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Redeem(r.Context(), chi.URLParam(r, "code"), claims.UserID, claims.Callsign)
		if err != nil {
			switch err {
			case ErrInvalidInput, permissions.ErrInvalidInput:
				http.Error(w, "invalid input", http.StatusBadRequest)
			case ErrNotFound:
				http.Error(w, "not found", http.StatusNotFound)
			case ErrExpired:
				http.Error(w, err.Error(), http.StatusConflict)
			case ErrUsedByOther:
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, redeemResponse{
			IncidentID:    g.IncidentID,
			PatientLetter: g.PatientLetter,
			UserID:        g.UserID,
			Level:         g.Level,
		})
	}
}

func revokeLinkHandler(svc *Service, admins admin.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		adminOverride := admins.IsSystemAdmin(r.Context(), claims.UserID)

		if err := svc.Revoke(r.Context(), chi.URLParam(r, "code"), claims.UserID, adminOverride); err != nil {
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

		w.WriteHeader(http.StatusNoContent)
	}
}

func toLinkResponse(l Link) linkResponse {
	return linkResponse{
		Code:          l.Code,
		IncidentID:    l.IncidentID,
		PatientLetter: l.PatientLetter,
		Level:         l.Level,
		CreatedBy:     l.CreatedBy,
		CreatedAt:     l.CreatedAt,
		ExpiresAt:     l.ExpiresAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
