package pgfreight

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

const trackingColumns = `
  t.id, t.tracking_number, t.owner_id, o.username, t.container_id,
  t.shipping_mark, t.status, t.cbm, t.shipping_fee, t.goods_type,
  t.eta, t.date_added, t.updated_at`

const trackingFrom = `FROM trackings t LEFT JOIN owners o ON o.id = t.owner_id`

func scanTracking(row pgx.Row) (*models.Tracking, error) {
	var t models.Tracking
	if err := row.Scan(
		&t.ID, &t.TrackingNumber, &t.OwnerID, &t.OwnerUsername, &t.ContainerID,
		&t.ShippingMark, &t.Status, &t.CBM, &t.ShippingFee, &t.GoodsType,
		&t.ETA, &t.DateAdded, &t.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("tracking")
		}
		return nil, errors.Wrap(err, "scan tracking")
	}
	return &t, nil
}

// UpsertTracking writes one submission keyed by tracking_number. A second
// submission of the same number lands on the existing row; NULL input fields
// keep the stored value (field-level merge). The row lock taken by the upsert
// serializes concurrent submissions of one number, so every reader observes a
// single consistent view without any separate reconciliation pass.
// Returns the re-read row and whether it was newly created.
func (s *Storage) UpsertTracking(ctx context.Context, in models.TrackingSubmitInput) (*models.Tracking, bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	var created bool
	err = tx.QueryRow(ctx, `
INSERT INTO trackings (
  tracking_number, owner_id, container_id, shipping_mark, status,
  cbm, shipping_fee, goods_type, eta, date_added, updated_at
)
VALUES ($1, $2, $3, COALESCE($4, ''), COALESCE($5, 'pending'), $6, $7, $8, $9, now(), now())
ON CONFLICT (tracking_number)
DO UPDATE SET
  owner_id      = COALESCE($2, trackings.owner_id),
  container_id  = COALESCE($3, trackings.container_id),
  shipping_mark = COALESCE($4, trackings.shipping_mark),
  status        = COALESCE($5, trackings.status),
  cbm           = COALESCE($6, trackings.cbm),
  shipping_fee  = COALESCE($7, trackings.shipping_fee),
  goods_type    = COALESCE($8, trackings.goods_type),
  eta           = COALESCE($9, trackings.eta),
  updated_at    = now()
RETURNING id, (xmax = 0)
`, in.TrackingNumber, in.OwnerID, in.ContainerID, in.ShippingMark, in.Status,
		in.CBM, in.ShippingFee, in.GoodsType, in.ETA).Scan(&id, &created)
	if err != nil {
		return nil, false, errors.Wrap(err, "upsert tracking")
	}

	t, err := scanTracking(tx.QueryRow(ctx, `SELECT `+trackingColumns+` `+trackingFrom+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, errors.Wrap(err, "commit tx")
	}
	return t, created, nil
}

// UpdateTrackingByID applies the same NULL-preserving merge to a row
// addressed by id. The tracking number itself is immutable here.
func (s *Storage) UpdateTrackingByID(ctx context.Context, id int64, in models.TrackingSubmitInput) (*models.Tracking, error) {
	tag, err := s.db.Exec(ctx, `
UPDATE trackings SET
  owner_id      = COALESCE($2, owner_id),
  container_id  = COALESCE($3, container_id),
  shipping_mark = COALESCE($4, shipping_mark),
  status        = COALESCE($5, status),
  cbm           = COALESCE($6, cbm),
  shipping_fee  = COALESCE($7, shipping_fee),
  goods_type    = COALESCE($8, goods_type),
  eta           = COALESCE($9, eta),
  updated_at    = now()
WHERE id = $1
`, id, in.OwnerID, in.ContainerID, in.ShippingMark, in.Status,
		in.CBM, in.ShippingFee, in.GoodsType, in.ETA)
	if err != nil {
		return nil, errors.Wrap(err, "update tracking")
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound("tracking")
	}
	return s.GetTracking(ctx, id)
}

func (s *Storage) GetTracking(ctx context.Context, id int64) (*models.Tracking, error) {
	return scanTracking(s.db.QueryRow(ctx, `SELECT `+trackingColumns+` `+trackingFrom+` WHERE t.id = $1`, id))
}

func (s *Storage) GetTrackingByNumber(ctx context.Context, number string) (*models.Tracking, error) {
	return scanTracking(s.db.QueryRow(ctx, `SELECT `+trackingColumns+` `+trackingFrom+` WHERE t.tracking_number = $1`, number))
}

// ListTrackings returns all rows for admins (ownerID nil) or the caller's
// rows otherwise, newest first.
func (s *Storage) ListTrackings(ctx context.Context, ownerID *int64) ([]*models.Tracking, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+trackingColumns+` `+trackingFrom+`
WHERE $1::bigint IS NULL OR t.owner_id = $1
ORDER BY t.date_added DESC
`, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "select trackings")
	}
	defer rows.Close()

	out := []*models.Tracking{}
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// TrackingsForSelection fetches the invoiceable rows for one
// (shipping mark, container) pair, newest first.
func (s *Storage) TrackingsForSelection(ctx context.Context, markID string, containerID int64) ([]*models.Tracking, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+trackingColumns+` `+trackingFrom+`
WHERE t.shipping_mark = $1 AND t.container_id = $2
ORDER BY t.date_added DESC
`, markID, containerID)
	if err != nil {
		return nil, errors.Wrap(err, "select selection trackings")
	}
	defer rows.Close()

	out := []*models.Tracking{}
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
