package webhook

import (
	"context"
	"fmt"

	"eprf-collab/internal/platform/httpclient"
	"eprf-collab/internal/ports/notify"
)

// Sink envía cada notificación como POST JSON a un webhook externo.
type Sink struct {
	client *httpclient.Client
	url    string
}

func New(client *httpclient.Client, url string) *Sink {
	return &Sink{client: client, url: url}
}

var _ notify.Sink = (*Sink)(nil)

func (s *Sink) Notify(ctx context.Context, msg notify.Message) error {
	if s.url == "" {
		return nil
	}
	if err := s.client.DoJSON(ctx, "POST", s.url, nil, msg, nil); err != nil {
		return fmt.Errorf("webhook notify: %w", err)
	}
	return nil
}
