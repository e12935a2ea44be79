package freight_api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
	"github.com/fofoo/freightdesk/internal/services/invoices"
)

type fakeOwners struct{}

func (fakeOwners) OwnerByToken(ctx context.Context, token string) (*models.Owner, error) {
	switch token {
	case "admin-token":
		return &models.Owner{ID: 1, Username: "boss", Role: models.RoleAdmin}, nil
	case "alice-token":
		return &models.Owner{ID: 2, Username: "alice", Role: models.RoleUser}, nil
	}
	return nil, apperr.NotFound("owner")
}

type fakeTrackings struct {
	byNumber map[string]*models.Tracking
}

func (f *fakeTrackings) Submit(ctx context.Context, p models.Principal, in models.TrackingSubmitInput) (*models.Tracking, bool, error) {
	if in.TrackingNumber == "" {
		return nil, false, apperr.Validation("tracking_number is required")
	}
	if t, ok := f.byNumber[in.TrackingNumber]; ok {
		return t, false, nil
	}
	t := &models.Tracking{ID: int64(len(f.byNumber) + 1), TrackingNumber: in.TrackingNumber}
	f.byNumber[in.TrackingNumber] = t
	return t, true, nil
}

func (f *fakeTrackings) UpdateByID(ctx context.Context, p models.Principal, id int64, in models.TrackingSubmitInput) (*models.Tracking, error) {
	return nil, apperr.NotFound("tracking")
}

func (f *fakeTrackings) List(ctx context.Context, p models.Principal) ([]*models.Tracking, error) {
	var out []*models.Tracking
	for _, t := range f.byNumber {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTrackings) Get(ctx context.Context, p models.Principal, id int64) (*models.Tracking, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("not your tracking")
	}
	return nil, apperr.NotFound("tracking")
}

func (f *fakeTrackings) GetByNumber(ctx context.Context, number string) (*models.Tracking, error) {
	if t, ok := f.byNumber[number]; ok {
		return t, nil
	}
	return nil, apperr.NotFound("tracking")
}

type fakeContainers struct{}

func (fakeContainers) Create(ctx context.Context, p models.Principal, in models.ContainerInput) (*models.Container, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return &models.Container{ID: 1, ContainerNumber: in.ContainerNumber}, nil
}
func (fakeContainers) Update(ctx context.Context, p models.Principal, id int64, in models.ContainerInput) (*models.Container, error) {
	return nil, apperr.NotFound("container")
}
func (fakeContainers) Delete(ctx context.Context, p models.Principal, id int64) error {
	if !p.IsAdmin() {
		return apperr.Permission("admin only")
	}
	return nil
}
func (fakeContainers) Get(ctx context.Context, p models.Principal, id int64) (*models.Container, error) {
	return nil, apperr.NotFound("container")
}
func (fakeContainers) List(ctx context.Context, p models.Principal) ([]*models.Container, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return []*models.Container{}, nil
}
func (fakeContainers) MarkStats(ctx context.Context, containerID int64) ([]*models.MarkStat, error) {
	return []*models.MarkStat{}, nil
}

type fakeRates struct{}

func (fakeRates) Current(ctx context.Context, kind models.RateKind) (*models.ExchangeRate, error) {
	return &models.ExchangeRate{Kind: kind}, nil
}
func (fakeRates) Record(ctx context.Context, p models.Principal, kind models.RateKind, in models.RateInput) (*models.ExchangeRate, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return &models.ExchangeRate{ID: 1, Kind: kind}, nil
}
func (fakeRates) History(ctx context.Context, p models.Principal, kind models.RateKind) ([]*models.ExchangeRate, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return []*models.ExchangeRate{}, nil
}

type fakeInvoices struct{}

func (fakeInvoices) Preview(ctx context.Context, p models.Principal, markID string, containerID int64) (*invoices.Preview, error) {
	return nil, apperr.NotFound("shipping mark")
}
func (fakeInvoices) CreateAndSend(ctx context.Context, p models.Principal, markID string, containerID int64) (*invoices.CreateResult, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	if markID == "" {
		return nil, apperr.Validation("mark_id is required")
	}
	return &invoices.CreateResult{
		Invoice:        &models.Invoice{ID: 1, InvoiceNumber: "INV-20240101-001", ShippingMark: markID},
		NotificationID: "n-1",
		Queued:         true,
	}, nil
}
func (fakeInvoices) CreateManual(ctx context.Context, p models.Principal, in models.InvoiceManualInput) (*models.Invoice, error) {
	return &models.Invoice{ID: 2, CustomerName: in.CustomerName}, nil
}
func (fakeInvoices) UpdateStatus(ctx context.Context, p models.Principal, id int64, in models.InvoiceUpdateInput) (*models.Invoice, error) {
	return nil, apperr.NotFound("invoice")
}
func (fakeInvoices) List(ctx context.Context, p models.Principal) ([]*models.Invoice, error) {
	return []*models.Invoice{}, nil
}
func (fakeInvoices) Get(ctx context.Context, p models.Principal, id int64) (*models.Invoice, error) {
	return nil, apperr.NotFound("invoice")
}

type fakeMarks struct{}

func (fakeMarks) Ensure(ctx context.Context, p models.Principal) (*models.ShippingMark, error) {
	return &models.ShippingMark{ID: 1, MarkID: "FIM123", OwnerID: p.OwnerID}, nil
}
func (fakeMarks) ListAll(ctx context.Context, p models.Principal) ([]*models.ShippingMark, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return []*models.ShippingMark{}, nil
}

type fakeNotifications struct{}

func (fakeNotifications) List(ctx context.Context, p models.Principal, limit int) ([]*models.Notification, error) {
	return []*models.Notification{}, nil
}

type fakeLimiter struct {
	counts map[string]int64
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	f.counts[key]++
	return f.counts[key] <= limit, f.counts[key], nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeLimiter) {
	t.Helper()
	limiter := &fakeLimiter{counts: map[string]int64{}}
	api := New(Deps{
		Trackings:           &fakeTrackings{byNumber: map[string]*models.Tracking{}},
		Containers:          fakeContainers{},
		Rates:               fakeRates{},
		Invoices:            fakeInvoices{},
		Marks:               fakeMarks{},
		Notifications:       fakeNotifications{},
		Owners:              fakeOwners{},
		Limiter:             limiter,
		LookupRatePerMinute: 3,
	})
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)
	return srv, limiter
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/trackings", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/trackings", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/trackings", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubmitTracking_createdThenOK(t *testing.T) {
	srv, _ := newTestServer(t)

	body := map[string]any{"tracking_number": "TRK-1"}
	resp := do(t, http.MethodPost, srv.URL+"/trackings", "alice-token", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/trackings", "alice-token", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/trackings", "alice-token", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublicLookup_rateLimited(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp := do(t, http.MethodGet, srv.URL+"/trackings/by-number/NOPE", "", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
	resp := do(t, http.MethodGet, srv.URL+"/trackings/by-number/NOPE", "", nil)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestPermissionMappedToGenericForbidden(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/containers", "alice-token", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	var out map[string]string
	require.NoError(t, json.Unmarshal(b, &out))
	require.Equal(t, "forbidden", out["detail"])
}

func TestSendInvoice(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/invoices/send", "admin-token", map[string]any{
		"mark_id":      "FIM123",
		"container_id": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Invoice        *models.Invoice `json:"invoice"`
		NotificationID string          `json:"notification_id"`
		Sent           bool            `json:"sent"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.True(t, out.Sent)
	require.Equal(t, "n-1", out.NotificationID)
	require.Equal(t, "INV-20240101-001", out.Invoice.InvoiceNumber)

	resp = do(t, http.MethodPost, srv.URL+"/invoices/send", "alice-token", map[string]any{"mark_id": "FIM123"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/invoices/send", "admin-token", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMarksAndRates(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/marks/mine", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mark models.ShippingMark
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&mark))
	require.Equal(t, "FIM123", mark.MarkID)

	resp = do(t, http.MethodGet, srv.URL+"/marks", "alice-token", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/exchange-rates/current", "alice-token", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPost, srv.URL+"/exchange-rates/alipay", "admin-token", map[string]any{"ghs_to_cny": "0.543"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/exchange-rates/history", "alice-token", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
