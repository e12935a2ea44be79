package pgfreight

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

const containerColumns = `
  id, container_number, port_of_loading, port_of_discharge, status,
  departure_date, arrival_date, notes, created_at, updated_at`

func scanContainer(row pgx.Row) (*models.Container, error) {
	var c models.Container
	if err := row.Scan(
		&c.ID, &c.ContainerNumber, &c.PortOfLoading, &c.PortOfDischarge, &c.Status,
		&c.DepartureDate, &c.ArrivalDate, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("container")
		}
		return nil, errors.Wrap(err, "scan container")
	}
	return &c, nil
}

func (s *Storage) CreateContainer(ctx context.Context, in models.ContainerInput) (*models.Container, error) {
	status := in.Status
	if status == "" {
		status = models.ContainerStatusPreparing
	}
	return scanContainer(s.db.QueryRow(ctx, `
INSERT INTO containers (container_number, port_of_loading, port_of_discharge, status, departure_date, arrival_date, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING `+containerColumns+`
`, in.ContainerNumber, in.PortOfLoading, in.PortOfDischarge, status, in.DepartureDate, in.ArrivalDate, in.Notes))
}

func (s *Storage) UpdateContainer(ctx context.Context, id int64, in models.ContainerInput) (*models.Container, error) {
	c, err := scanContainer(s.db.QueryRow(ctx, `
UPDATE containers SET
  container_number = $2,
  port_of_loading = $3,
  port_of_discharge = $4,
  status = $5,
  departure_date = $6,
  arrival_date = $7,
  notes = $8,
  updated_at = now()
WHERE id = $1
RETURNING `+containerColumns+`
`, id, in.ContainerNumber, in.PortOfLoading, in.PortOfDischarge, in.Status, in.DepartureDate, in.ArrivalDate, in.Notes))
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Storage) DeleteContainer(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM containers WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete container")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("container")
	}
	return nil
}

func (s *Storage) GetContainer(ctx context.Context, id int64) (*models.Container, error) {
	return scanContainer(s.db.QueryRow(ctx, `SELECT `+containerColumns+` FROM containers WHERE id = $1`, id))
}

func (s *Storage) ListContainers(ctx context.Context) ([]*models.Container, error) {
	rows, err := s.db.Query(ctx, `SELECT `+containerColumns+` FROM containers ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "select containers")
	}
	defer rows.Close()

	out := []*models.Container{}
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// MarkStats groups the container's trackings by shipping_mark and sums CBM
// and fee, NULLs counted as zero. Grouping order is whatever the database
// returns; callers that need cross-mark totals sum the slice.
func (s *Storage) MarkStats(ctx context.Context, containerID int64) ([]*models.MarkStat, error) {
	rows, err := s.db.Query(ctx, `
SELECT shipping_mark, COUNT(*), COALESCE(SUM(cbm), 0), COALESCE(SUM(shipping_fee), 0)
FROM trackings
WHERE container_id = $1
GROUP BY shipping_mark
`, containerID)
	if err != nil {
		return nil, errors.Wrap(err, "select mark stats")
	}
	defer rows.Close()

	out := []*models.MarkStat{}
	for rows.Next() {
		var st models.MarkStat
		if err := rows.Scan(&st.ShippingMark, &st.TrackingCount, &st.TotalCBM, &st.TotalShippingFee); err != nil {
			return nil, errors.Wrap(err, "scan mark stat")
		}
		out = append(out, &st)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) TrackingCount(ctx context.Context, containerID int64) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM trackings WHERE container_id = $1`, containerID).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count trackings")
	}
	return n, nil
}
