package pgfreight

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

const ownerColumns = `id, username, full_name, email, role, created_at`

func scanOwner(row pgx.Row) (*models.Owner, error) {
	var o models.Owner
	if err := row.Scan(&o.ID, &o.Username, &o.FullName, &o.Email, &o.Role, &o.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("owner")
		}
		return nil, errors.Wrap(err, "scan owner")
	}
	return &o, nil
}

func (s *Storage) OwnerByID(ctx context.Context, id int64) (*models.Owner, error) {
	return scanOwner(s.db.QueryRow(ctx, `
SELECT `+ownerColumns+` FROM owners WHERE id = $1
`, id))
}

// OwnerByToken resolves an API token to an owner. This is the identity
// resolver's single lookup; token issuance lives outside the core.
func (s *Storage) OwnerByToken(ctx context.Context, token string) (*models.Owner, error) {
	return scanOwner(s.db.QueryRow(ctx, `
SELECT `+ownerColumns+` FROM owners WHERE api_token = $1
`, token))
}

func (s *Storage) OwnerByUsername(ctx context.Context, username string) (*models.Owner, error) {
	return scanOwner(s.db.QueryRow(ctx, `
SELECT `+ownerColumns+` FROM owners WHERE username = $1
`, username))
}
