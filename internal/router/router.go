package router

import (
	"database/sql"
	"net/http"
	"time"

	mem "eprf-collab/internal/adapters/storage/memory"
	pg "eprf-collab/internal/adapters/storage/postgres"

	"eprf-collab/internal/adapters/admin/staticdir"
	"eprf-collab/internal/adapters/auth/jwtauth"
	"eprf-collab/internal/adapters/notify/webhook"
	"eprf-collab/internal/config"
	"eprf-collab/internal/domain/accessrequests"
	"eprf-collab/internal/domain/grants"
	"eprf-collab/internal/domain/notifications"
	"eprf-collab/internal/domain/patients"
	"eprf-collab/internal/domain/sectionlocks"
	"eprf-collab/internal/domain/sharelinks"
	"eprf-collab/internal/domain/transfers"
	"eprf-collab/internal/middleware"
	"eprf-collab/internal/permissions"
	"eprf-collab/internal/platform/httpclient"
	"eprf-collab/internal/platform/logger"
	"eprf-collab/internal/platform/metrics"
	"eprf-collab/internal/ports/auth"
	"eprf-collab/internal/ports/notify"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "eprf-collab/docs"
)

// Deps es el grafo armado de services. Lo consumen NewRouter y el
// sweeper en main (PurgeExpired de grants y links).
type Deps struct {
	Verifier auth.AuthVerifier // nil = modo dev

	Patients       *patients.Service
	Grants         *grants.Service
	Locks          *sectionlocks.Service
	Transfers      *transfers.Service
	AccessRequests *accessrequests.Service
	ShareLinks     *sharelinks.Service
	Inbox          *notifications.Service

	Resolver *permissions.Resolver
	Admins   *staticdir.Directory
}

// BuildDeps cablea repos (postgres si hay DB, memoria si no), resolver
// y services. El orden importa: grants y patients se referencian en
// cruz, así que ambos cierran el cableado con un Attach posterior.
func BuildDeps(cfg config.Config, db *sql.DB, log logger.Logger) Deps {
	var (
		patientsRepo patients.Repository
		grantsRepo   grants.Repository
		locksRepo    sectionlocks.Repository
		requestsRepo accessrequests.Repository
		linksRepo    sharelinks.Repository
		notifsRepo   notifications.Repository
	)

	if db != nil {
		patientsRepo = pg.NewPatientsRepo(db)
		grantsRepo = pg.NewGrantsRepo(db)
		locksRepo = pg.NewSectionLocksRepo(db)
		requestsRepo = pg.NewAccessRequestsRepo(db)
		linksRepo = pg.NewShareLinksRepo(db)
		notifsRepo = pg.NewNotificationsRepo(db)
	} else {
		patientsRepo = mem.NewPatientsRepo()
		grantsRepo = mem.NewGrantsRepo()
		locksRepo = mem.NewSectionLocksRepo()
		requestsRepo = mem.NewAccessRequestsRepo()
		linksRepo = mem.NewShareLinksRepo()
		notifsRepo = mem.NewNotificationsRepo()
	}

	patientsSvc := patients.NewService(patientsRepo)
	grantsSvc := grants.NewService(grantsRepo, patientsSvc)
	patientsSvc.AttachSeeder(grantsSvc)

	resolver := permissions.NewResolver(patientsSvc, grants.NewLevelSource(grantsRepo))
	grantsSvc.AttachResolver(resolver)

	admins := staticdir.New(cfg.RootAdminID, cfg.AdminUserIDs)

	// Inbox siempre; webhook solo si está configurado. Todo best-effort.
	inboxSvc := notifications.NewService(notifsRepo)
	sinks := notify.Multi{inboxSvc}
	if cfg.NotifyWebhookURL != "" {
		sinks = append(sinks, webhook.New(httpclient.New(10*time.Second), cfg.NotifyWebhookURL))
	}
	sink := notify.BestEffort{Sink: sinks, Log: log}

	locksSvc := sectionlocks.NewService(locksRepo, resolver)
	transfersSvc := transfers.NewService(patientsRepo, grantsSvc, resolver, sink)
	requestsSvc := accessrequests.NewService(requestsRepo, grantsSvc, resolver, admins, sink)
	linksSvc := sharelinks.NewService(linksRepo, grantsSvc, resolver)

	var verifier auth.AuthVerifier
	if cfg.JWTSecret != "" {
		verifier = jwtauth.New(cfg.JWTSecret, cfg.JWTIssuer)
	}

	return Deps{
		Verifier:       verifier,
		Patients:       patientsSvc,
		Grants:         grantsSvc,
		Locks:          locksSvc,
		Transfers:      transfersSvc,
		AccessRequests: requestsSvc,
		ShareLinks:     linksSvc,
		Inbox:          inboxSvc,
		Resolver:       resolver,
		Admins:         admins,
	}
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(middleware.AuthContext(d.Verifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	patients.RegisterRoutes(r, d.Patients, d.Resolver)
	grants.RegisterRoutes(r, d.Grants, d.Resolver)
	sectionlocks.RegisterRoutes(r, d.Locks, d.Resolver, d.Admins)
	transfers.RegisterRoutes(r, d.Transfers)
	accessrequests.RegisterRoutes(r, d.AccessRequests, d.Resolver, d.Admins)
	sharelinks.RegisterRoutes(r, d.ShareLinks, d.Admins)
	notifications.RegisterRoutes(r, d.Inbox)

	return r
}
