package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"eprf-collab/internal/domain/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	ctxJSON, err := json.Marshal(contextOrEmpty(n.Context))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, recipient_user_id, type, title, message,
			context, read, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		n.ID,
		n.RecipientUserID,
		n.Type,
		n.Title,
		n.Message,
		ctxJSON,
		n.Read,
		n.CreatedAt,
	)
	return err
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, recipient_user_id, type, title, message,
		       context, read, created_at
		FROM notifications
		WHERE id = $1
	`, id)

	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return notifications.Notification{}, notifications.ErrNotFound
	}
	if err != nil {
		return notifications.Notification{}, err
	}
	return n, nil
}

func (r *NotificationsRepo) ListByRecipient(ctx context.Context, recipientUserID string, unreadOnly bool) ([]notifications.Notification, error) {
	q := `
		SELECT id, recipient_user_id, type, title, message,
		       context, read, created_at
		FROM notifications
		WHERE recipient_user_id = $1
	`
	if unreadOnly {
		q += ` AND read = FALSE`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, q, recipientUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notifications.ErrNotFound
	}
	return nil
}

func scanNotification(row rowScanner) (notifications.Notification, error) {
	var n notifications.Notification
	var ctxJSON []byte

	if err := row.Scan(
		&n.ID,
		&n.RecipientUserID,
		&n.Type,
		&n.Title,
		&n.Message,
		&ctxJSON,
		&n.Read,
		&n.CreatedAt,
	); err != nil {
		return notifications.Notification{}, err
	}

	if len(ctxJSON) > 0 {
		if err := json.Unmarshal(ctxJSON, &n.Context); err != nil {
			return notifications.Notification{}, err
		}
	}
	return n, nil
}

func contextOrEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
