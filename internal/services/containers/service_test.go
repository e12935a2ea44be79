package containers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

type fakeRepo struct {
	byID   map[int64]*models.Container
	stats  map[int64][]*models.MarkStat
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[int64]*models.Container{}, stats: map[int64][]*models.MarkStat{}}
}

func (r *fakeRepo) CreateContainer(ctx context.Context, in models.ContainerInput) (*models.Container, error) {
	r.nextID++
	c := &models.Container{ID: r.nextID, ContainerNumber: in.ContainerNumber, Status: in.Status}
	r.byID[c.ID] = c
	return c, nil
}

func (r *fakeRepo) UpdateContainer(ctx context.Context, id int64, in models.ContainerInput) (*models.Container, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("container")
	}
	c.ContainerNumber = in.ContainerNumber
	c.Status = in.Status
	return c, nil
}

func (r *fakeRepo) DeleteContainer(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return apperr.NotFound("container")
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeRepo) GetContainer(ctx context.Context, id int64) (*models.Container, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("container")
	}
	return c, nil
}

func (r *fakeRepo) ListContainers(ctx context.Context) ([]*models.Container, error) {
	var out []*models.Container
	for _, c := range r.byID {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeRepo) MarkStats(ctx context.Context, containerID int64) ([]*models.MarkStat, error) {
	return r.stats[containerID], nil
}

func (r *fakeRepo) TrackingCount(ctx context.Context, containerID int64) (int64, error) {
	var n int64
	for _, st := range r.stats[containerID] {
		n += st.TrackingCount
	}
	return n, nil
}

var (
	admin = models.Principal{OwnerID: 1, Role: models.RoleAdmin}
	user  = models.Principal{OwnerID: 2, Role: models.RoleUser}
)

func TestCRUD_adminOnly(t *testing.T) {
	svc := New(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, user, models.ContainerInput{ContainerNumber: "MSKU1"})
	require.True(t, apperr.IsPermission(err))
	_, err = svc.List(ctx, user)
	require.True(t, apperr.IsPermission(err))

	c, err := svc.Create(ctx, admin, models.ContainerInput{ContainerNumber: "MSKU1"})
	require.NoError(t, err)
	require.Equal(t, models.ContainerStatusPreparing, c.Status)

	upd, err := svc.Update(ctx, admin, c.ID, models.ContainerInput{
		ContainerNumber: "MSKU1",
		Status:          models.ContainerStatusInTransit,
	})
	require.NoError(t, err)
	require.Equal(t, models.ContainerStatusInTransit, upd.Status)

	require.NoError(t, svc.Delete(ctx, admin, c.ID))
	_, err = svc.Get(ctx, admin, c.ID)
	require.True(t, apperr.IsNotFound(err))
}

func TestCreate_validation(t *testing.T) {
	svc := New(newFakeRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, models.ContainerInput{})
	require.True(t, apperr.IsValidation(err))

	_, err = svc.Create(ctx, admin, models.ContainerInput{ContainerNumber: "MSKU1", Status: "sunk"})
	require.True(t, apperr.IsValidation(err))
}

func TestMarkStats(t *testing.T) {
	r := newFakeRepo()
	svc := New(r)
	ctx := context.Background()

	c, err := svc.Create(ctx, admin, models.ContainerInput{ContainerNumber: "MSKU1"})
	require.NoError(t, err)
	r.stats[c.ID] = []*models.MarkStat{
		{ShippingMark: "FIM123", TrackingCount: 2, TotalCBM: decimal.RequireFromString("3.5")},
	}

	stats, err := svc.MarkStats(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	_, err = svc.MarkStats(ctx, 404)
	require.True(t, apperr.IsNotFound(err))

	n, err := svc.TrackingCount(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
