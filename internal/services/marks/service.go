package marks

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

type Repository interface {
	MarkByOwner(ctx context.Context, ownerID int64) (*models.ShippingMark, error)
	CreateMark(ctx context.Context, markID string, ownerID int64, name string) (*models.ShippingMark, error)
	MarkIDExists(ctx context.Context, markID string) (bool, error)
	ListMarks(ctx context.Context) ([]*models.ShippingMark, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

const shortIDAttempts = 20

// Ensure returns the caller's permanent mark, creating it on first use with a
// fresh FIM id. Short 3-digit ids are tried first; once the space gets
// crowded the generator falls back to 6 digits.
func (s *Service) Ensure(ctx context.Context, p models.Principal) (*models.ShippingMark, error) {
	m, err := s.repo.MarkByOwner(ctx, p.OwnerID)
	if err == nil {
		return m, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	markID, err := s.generateMarkID(ctx)
	if err != nil {
		return nil, err
	}
	name := p.FullName
	if name == "" {
		name = p.Username
	}
	return s.repo.CreateMark(ctx, markID, p.OwnerID, name)
}

func (s *Service) ListAll(ctx context.Context, p models.Principal) ([]*models.ShippingMark, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return s.repo.ListMarks(ctx)
}

func (s *Service) generateMarkID(ctx context.Context) (string, error) {
	for i := 0; i < shortIDAttempts; i++ {
		candidate := fmt.Sprintf("FIM%03d", rand.Intn(1000))
		exists, err := s.repo.MarkIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	for i := 0; i < shortIDAttempts; i++ {
		candidate := fmt.Sprintf("FIM%06d", rand.Intn(1_000_000))
		exists, err := s.repo.MarkIDExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.New("mark id space exhausted")
}
