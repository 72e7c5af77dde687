package notify

import (
	"context"

	"eprf-collab/internal/platform/logger"
)

// Message es una notificación saliente. Context lleva referencias
// (incident_id, patient_letter, etc.) para que el cliente pueda navegar.
type Message struct {
	RecipientUserID string
	Type            string
	Title           string
	Body            string
	Context         map[string]string
}

// Sink entrega notificaciones. La entrega es best-effort: un fallo del sink
// nunca debe tumbar la operación que lo disparó.
type Sink interface {
	Notify(ctx context.Context, m Message) error
}

// Multi entrega a varios sinks. Devuelve el primer error encontrado,
// pero intenta todos.
type Multi []Sink

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var firstErr error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BestEffort envuelve un Sink: loguea y traga errores.
// Los services lo usan para cumplir "notificación nunca rompe la operación".
type BestEffort struct {
	Sink Sink
	Log  logger.Logger
}

func (b BestEffort) Notify(ctx context.Context, m Message) error {
	if b.Sink == nil {
		return nil
	}
	if err := b.Sink.Notify(ctx, m); err != nil {
		if b.Log != nil {
			b.Log.Warn("notification delivery failed", map[string]any{
				"recipient": m.RecipientUserID,
				"type":      m.Type,
				"error":     err.Error(),
			})
		}
	}
	return nil
}
