package pgfreight

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

const notificationColumns = `id, owner_id, kind, email, subject, status, error, created_at, sent_at`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(
		&n.ID, &n.OwnerID, &n.Kind, &n.Email, &n.Subject,
		&n.Status, &n.Error, &n.CreatedAt, &n.SentAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("notification")
		}
		return nil, errors.Wrap(err, "scan notification")
	}
	return &n, nil
}

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	return scanNotification(s.db.QueryRow(ctx, `
INSERT INTO notifications (id, owner_id, kind, email, subject, status)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING `+notificationColumns+`
`, n.ID, n.OwnerID, n.Kind, n.Email, n.Subject, n.Status))
}

func (s *Storage) MarkNotificationSent(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE notifications SET status = 'sent', error = NULL, sent_at = now() WHERE id = $1
`, id)
	if err != nil {
		return errors.Wrap(err, "mark notification sent")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

func (s *Storage) MarkNotificationFailed(ctx context.Context, id string, cause string) error {
	tag, err := s.db.Exec(ctx, `
UPDATE notifications SET status = 'failed', error = $2 WHERE id = $1
`, id, cause)
	if err != nil {
		return errors.Wrap(err, "mark notification failed")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification")
	}
	return nil
}

// ListNotifications returns the full history (ownerID nil, admin view) or one
// owner's history, newest first.
func (s *Storage) ListNotifications(ctx context.Context, ownerID *int64, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
SELECT `+notificationColumns+` FROM notifications
WHERE $1::bigint IS NULL OR owner_id = $1
ORDER BY created_at DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select notifications")
	}
	defer rows.Close()

	out := []*models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
