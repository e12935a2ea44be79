package pgfreight

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

const markColumns = `
  m.id, m.mark_id, m.owner_id, m.name, m.created_at,
  o.username, o.full_name, o.email`

const markFrom = `FROM shipping_marks m JOIN owners o ON o.id = m.owner_id`

func scanMark(row pgx.Row) (*models.ShippingMark, error) {
	var m models.ShippingMark
	if err := row.Scan(
		&m.ID, &m.MarkID, &m.OwnerID, &m.Name, &m.CreatedAt,
		&m.OwnerUsername, &m.OwnerFullName, &m.OwnerEmail,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("shipping mark")
		}
		return nil, errors.Wrap(err, "scan shipping mark")
	}
	return &m, nil
}

func (s *Storage) MarkByMarkID(ctx context.Context, markID string) (*models.ShippingMark, error) {
	return scanMark(s.db.QueryRow(ctx, `SELECT `+markColumns+` `+markFrom+` WHERE m.mark_id = $1`, markID))
}

func (s *Storage) MarkByOwner(ctx context.Context, ownerID int64) (*models.ShippingMark, error) {
	return scanMark(s.db.QueryRow(ctx, `SELECT `+markColumns+` `+markFrom+` WHERE m.owner_id = $1`, ownerID))
}

func (s *Storage) CreateMark(ctx context.Context, markID string, ownerID int64, name string) (*models.ShippingMark, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
INSERT INTO shipping_marks (mark_id, owner_id, name)
VALUES ($1, $2, $3)
RETURNING id
`, markID, ownerID, name).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "insert shipping mark")
	}
	return scanMark(s.db.QueryRow(ctx, `SELECT `+markColumns+` `+markFrom+` WHERE m.id = $1`, id))
}

func (s *Storage) MarkIDExists(ctx context.Context, markID string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shipping_marks WHERE mark_id = $1)`, markID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check mark id")
	}
	return exists, nil
}

func (s *Storage) ListMarks(ctx context.Context) ([]*models.ShippingMark, error) {
	rows, err := s.db.Query(ctx, `SELECT `+markColumns+` `+markFrom+` ORDER BY m.created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select shipping marks")
	}
	defer rows.Close()

	out := []*models.ShippingMark{}
	for rows.Next() {
		m, err := scanMark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
