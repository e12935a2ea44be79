package containers

import (
	"context"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

type Repository interface {
	CreateContainer(ctx context.Context, in models.ContainerInput) (*models.Container, error)
	UpdateContainer(ctx context.Context, id int64, in models.ContainerInput) (*models.Container, error)
	DeleteContainer(ctx context.Context, id int64) error
	GetContainer(ctx context.Context, id int64) (*models.Container, error)
	ListContainers(ctx context.Context) ([]*models.Container, error)
	MarkStats(ctx context.Context, containerID int64) ([]*models.MarkStat, error)
	TrackingCount(ctx context.Context, containerID int64) (int64, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

var validStatuses = map[string]struct{}{
	models.ContainerStatusPreparing:   {},
	models.ContainerStatusLoading:     {},
	models.ContainerStatusInTransit:   {},
	models.ContainerStatusArrivedPort: {},
	models.ContainerStatusClearing:    {},
	models.ContainerStatusCompleted:   {},
}

func (s *Service) Create(ctx context.Context, p models.Principal, in models.ContainerInput) (*models.Container, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	return s.repo.CreateContainer(ctx, in)
}

func (s *Service) Update(ctx context.Context, p models.Principal, id int64, in models.ContainerInput) (*models.Container, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	return s.repo.UpdateContainer(ctx, id, in)
}

func (s *Service) Delete(ctx context.Context, p models.Principal, id int64) error {
	if !p.IsAdmin() {
		return apperr.Permission("admin only")
	}
	return s.repo.DeleteContainer(ctx, id)
}

func (s *Service) Get(ctx context.Context, p models.Principal, id int64) (*models.Container, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return s.repo.GetContainer(ctx, id)
}

func (s *Service) List(ctx context.Context, p models.Principal) ([]*models.Container, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return s.repo.ListContainers(ctx)
}

// MarkStats is readable by any authenticated caller: customers use it to see
// their share of a container.
func (s *Service) MarkStats(ctx context.Context, containerID int64) ([]*models.MarkStat, error) {
	if _, err := s.repo.GetContainer(ctx, containerID); err != nil {
		return nil, err
	}
	return s.repo.MarkStats(ctx, containerID)
}

func (s *Service) TrackingCount(ctx context.Context, containerID int64) (int64, error) {
	return s.repo.TrackingCount(ctx, containerID)
}

func validate(in *models.ContainerInput) error {
	if in.ContainerNumber == "" {
		return apperr.Validation("container_number is required")
	}
	if in.Status == "" {
		in.Status = models.ContainerStatusPreparing
	}
	if _, ok := validStatuses[in.Status]; !ok {
		return apperr.Validationf("unknown status %q", in.Status)
	}
	return nil
}
