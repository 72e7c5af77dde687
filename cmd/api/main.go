package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eprf-collab/internal/config"
	pg "eprf-collab/internal/adapters/storage/postgres"
	"eprf-collab/internal/platform/logger"
	"eprf-collab/internal/platform/sweep"
	"eprf-collab/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("db open failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()

		if err := pg.Migrate(db); err != nil {
			log.Error("db migrate failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	} else {
		log.Warn("DB_DSN empty, using in-memory repos", nil)
	}

	deps := router.BuildDeps(cfg, db, log)

	// Barridos de expiración: grants y share links vencidos.
	sweeper := sweep.New(log)
	if err := sweeper.Add(cfg.SweepSchedule, "expired_grants", deps.Grants.PurgeExpired); err != nil {
		log.Error("sweep schedule invalid", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	if err := sweeper.Add(cfg.SweepSchedule, "expired_share_links", deps.ShareLinks.PurgeExpired); err != nil {
		log.Error("sweep schedule invalid", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", map[string]any{"error": err.Error()})
	}
	log.Info("server stopped", nil)
}
