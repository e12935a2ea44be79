package pgfreight

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

const rateColumns = `id, kind, usd_to_ghs, ghs_to_cny, cny_to_ghs, updated_by, notes, created_at`

func scanRate(row pgx.Row) (*models.ExchangeRate, error) {
	var r models.ExchangeRate
	if err := row.Scan(
		&r.ID, &r.Kind, &r.UsdToGhs, &r.GhsToCny, &r.CnyToGhs,
		&r.UpdatedBy, &r.Notes, &r.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("exchange rate")
		}
		return nil, errors.Wrap(err, "scan exchange rate")
	}
	return &r, nil
}

// LatestRate returns the most recently created entry for the kind, or
// apperr.ErrNotFound when the ledger is empty (callers substitute a default).
func (s *Storage) LatestRate(ctx context.Context, kind models.RateKind) (*models.ExchangeRate, error) {
	return scanRate(s.db.QueryRow(ctx, `
SELECT `+rateColumns+` FROM exchange_rates
WHERE kind = $1
ORDER BY created_at DESC, id DESC
LIMIT 1
`, kind))
}

// InsertRate appends one ledger entry. Rows are never updated or deleted;
// the full history is the audit trail.
func (s *Storage) InsertRate(ctx context.Context, r *models.ExchangeRate) (*models.ExchangeRate, error) {
	return scanRate(s.db.QueryRow(ctx, `
INSERT INTO exchange_rates (kind, usd_to_ghs, ghs_to_cny, cny_to_ghs, updated_by, notes)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING `+rateColumns+`
`, r.Kind, r.UsdToGhs, r.GhsToCny, r.CnyToGhs, r.UpdatedBy, r.Notes))
}

func (s *Storage) ListRates(ctx context.Context, kind models.RateKind, limit int) ([]*models.ExchangeRate, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
SELECT `+rateColumns+` FROM exchange_rates
WHERE kind = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, kind, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select exchange rates")
	}
	defer rows.Close()

	out := []*models.ExchangeRate{}
	for rows.Next() {
		r, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
