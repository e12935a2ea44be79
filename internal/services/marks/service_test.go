package marks

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

type fakeRepo struct {
	byOwner map[int64]*models.ShippingMark
	ids     map[string]bool
	nextID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byOwner: map[int64]*models.ShippingMark{}, ids: map[string]bool{}}
}

func (r *fakeRepo) MarkByOwner(ctx context.Context, ownerID int64) (*models.ShippingMark, error) {
	if m, ok := r.byOwner[ownerID]; ok {
		return m, nil
	}
	return nil, apperr.NotFound("shipping mark")
}

func (r *fakeRepo) CreateMark(ctx context.Context, markID string, ownerID int64, name string) (*models.ShippingMark, error) {
	r.nextID++
	m := &models.ShippingMark{ID: r.nextID, MarkID: markID, OwnerID: ownerID, Name: name}
	r.byOwner[ownerID] = m
	r.ids[markID] = true
	return m, nil
}

func (r *fakeRepo) MarkIDExists(ctx context.Context, markID string) (bool, error) {
	return r.ids[markID], nil
}

func (r *fakeRepo) ListMarks(ctx context.Context) ([]*models.ShippingMark, error) {
	var out []*models.ShippingMark
	for _, m := range r.byOwner {
		out = append(out, m)
	}
	return out, nil
}

var fimShort = regexp.MustCompile(`^FIM\d{3}$`)

func TestEnsure_createsOnceWithFIMID(t *testing.T) {
	r := newFakeRepo()
	svc := New(r)
	p := models.Principal{OwnerID: 2, Username: "alice", FullName: "Alice Owusu", Role: models.RoleUser}

	m, err := svc.Ensure(context.Background(), p)
	require.NoError(t, err)
	require.Regexp(t, fimShort, m.MarkID)
	require.Equal(t, "Alice Owusu", m.Name)

	again, err := svc.Ensure(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, m.ID, again.ID)
	require.Len(t, r.ids, 1)
}

func TestEnsure_fallsBackToLongID(t *testing.T) {
	r := newFakeRepo()
	for i := 0; i < 1000; i++ {
		r.ids[markID3(i)] = true
	}
	svc := New(r)

	m, err := svc.Ensure(context.Background(), models.Principal{OwnerID: 5, Username: "kofi", Role: models.RoleUser})
	require.NoError(t, err)
	require.Regexp(t, `^FIM\d{6}$`, m.MarkID)
}

func markID3(n int) string {
	return "FIM" + string([]byte{byte('0' + n/100), byte('0' + n/10%10), byte('0' + n%10)})
}

func TestListAll_adminOnly(t *testing.T) {
	r := newFakeRepo()
	svc := New(r)

	_, err := svc.Ensure(context.Background(), models.Principal{OwnerID: 2, Username: "alice", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = svc.ListAll(context.Background(), models.Principal{OwnerID: 2, Role: models.RoleUser})
	require.True(t, apperr.IsPermission(err))

	all, err := svc.ListAll(context.Background(), models.Principal{OwnerID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, all, 1)
}
