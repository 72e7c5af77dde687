package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"eprf-collab/internal/platform/logger"
)

// Sweeper agenda barridos batch (expiración de grants y share links).
// La corrección del core no depende del timing: lo vencido ya resuelve
// como ausente; esto solo limpia filas muertas.
type Sweeper struct {
	cron *cron.Cron
	log  logger.Logger
}

func New(log logger.Logger) *Sweeper {
	return &Sweeper{
		cron: cron.New(),
		log:  log,
	}
}

// Add agenda una tarea con spec de cron (acepta @every Ns).
func (s *Sweeper) Add(spec, name string, fn func(ctx context.Context) (int, error)) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := fn(ctx)
		if err != nil {
			s.log.Error("sweep failed", map[string]any{"task": name, "error": err.Error()})
			return
		}
		if n > 0 {
			s.log.Info("sweep done", map[string]any{"task": name, "purged": n})
		}
	})
	return err
}

func (s *Sweeper) Start() {
	s.cron.Start()
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}
