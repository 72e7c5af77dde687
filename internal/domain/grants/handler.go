package grants

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
	// Scope de incidente
	r.Route("/incidents/{incidentID}/grants", func(gr chi.Router) {
		gr.Post("/", grantHandler(svc, resolver, false))
		gr.Get("/", listGrantsHandler(svc, resolver, false))
		gr.Delete("/{userID}", revokeHandler(svc, false))
	})

	// Scope de paciente
	r.Route("/incidents/{incidentID}/patients/{letter}/grants", func(gr chi.Router) {
		gr.Post("/", grantHandler(svc, resolver, true))
		gr.Get("/", listGrantsHandler(svc, resolver, true))
		gr.Delete("/{userID}", revokeHandler(svc, true))
	})

	// Nivel efectivo del caller (¿qué puedo hacer acá?)
	r.Get("/incidents/{incidentID}/permissions/me", myLevelHandler(resolver))
}

type grantRequest struct {
	UserID       string `json:"user_id"`
	Level        string `json:"level"`
	ExpiresHours int    `json:"expires_in_hours,omitempty"`
}

type grantResponse struct {
	IncidentID    string            `json:"incident_id"`
	PatientLetter string            `json:"patient_letter,omitempty"`
	UserID        string            `json:"user_id"`
	Level         permissions.Level `json:"level"`
	AddedBy       string            `json:"added_by"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func scopeFromRequest(r *http.Request, patientScoped bool) permissions.Scope {
	incidentID := chi.URLParam(r, "incidentID")
	if !patientScoped {
		return permissions.IncidentScope(incidentID)
	}
	letter := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "letter")))
	return permissions.PatientScope(incidentID, letter)
}

// grantHandler aplica la política completa antes de tocar el store:
// escalera de asignación (manage da view/edit, owner hasta manage) y
// superación estricta sobre el grant vigente del target.
func grantHandler(svc *Service, resolver *permissions.Resolver, patientScoped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		scope := scopeFromRequest(r, patientScoped)

		var req grantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		level, ok := permissions.ParseLevel(req.Level)
		if !ok {
			http.Error(w, "level must be view, edit or manage", http.StatusBadRequest)
			return
		}
		targetID := strings.TrimSpace(req.UserID)
		if targetID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}

		actorLevel, err := resolver.Resolve(r.Context(), claims.UserID, scope.IncidentID, scope.PatientLetter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !permissions.CanAssignLevel(actorLevel, level) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		// Si el target ya tiene nivel en el scope, pisarlo exige
		// superarlo estrictamente. Deja afuera manage-vs-manage y
		// cualquier intento contra el owner.
		targetLevel, err := resolver.Resolve(r.Context(), targetID, scope.IncidentID, scope.PatientLetter)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if targetLevel != permissions.LevelNone && !permissions.CanModifyTarget(actorLevel, targetLevel) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if req.ExpiresHours < 0 {
			http.Error(w, "expires_in_hours must be >= 0", http.StatusBadRequest)
			return
		}

		// La expiración se materializa en el service, contra su reloj.
		g, err := svc.Grant(r.Context(), GrantInput{
			Scope:          scope,
			UserID:         targetID,
			Level:          level,
			AddedBy:        claims.UserID,
			ExpiresInHours: req.ExpiresHours,
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

		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

func listGrantsHandler(svc *Service, resolver *permissions.Resolver, patientScoped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		scope := scopeFromRequest(r, patientScoped)

		if _, err := resolver.RequireAtLeast(r.Context(), claims.UserID, scope, permissions.LevelManage); err != nil {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		items, err := svc.ListByScope(r.Context(), scope)
		if err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrantResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func revokeHandler(svc *Service, patientScoped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		scope := scopeFromRequest(r, patientScoped)
		targetID := chi.URLParam(r, "userID")

		if err := svc.Revoke(r.Context(), scope, targetID, claims.UserID); err != nil {
			switch err {
			case ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
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

type myLevelResponse struct {
	IncidentID    string            `json:"incident_id"`
	PatientLetter string            `json:"patient_letter,omitempty"`
	Level         permissions.Level `json:"level"`
}

// myLevelHandler resuelve el nivel efectivo del caller. ?letter=B lo
// baja al scope de paciente.
func myLevelHandler(resolver *permissions.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		incidentID := chi.URLParam(r, "incidentID")
		letter := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("letter")))

		level, err := resolver.Resolve(r.Context(), claims.UserID, incidentID, letter)
		if err != nil {
			switch err {
			case permissions.ErrInvalidInput:
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, myLevelResponse{
			IncidentID:    incidentID,
			PatientLetter: letter,
			Level:         level,
		})
	}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		IncidentID:    g.IncidentID,
		PatientLetter: g.PatientLetter,
		UserID:        g.UserID,
		Level:         g.Level,
		AddedBy:       g.AddedBy,
		ExpiresAt:     g.ExpiresAt,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
