package pgfreight

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

func startStorage(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "freightdesk_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/freightdesk_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func seedOwner(t *testing.T, st *Storage, username, role string) int64 {
	t.Helper()
	var id int64
	err := st.db.QueryRow(context.Background(), `
INSERT INTO owners (username, full_name, email, role, api_token)
VALUES ($1, $1, $1 || '@example.com', $2, 'tok-' || $1)
RETURNING id
`, username, role).Scan(&id)
	require.NoError(t, err)
	return id
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func TestStorage_UpsertTracking_flow(t *testing.T) {
	st := startStorage(t)
	ctx := context.Background()

	kofi := seedOwner(t, st, "kofi", models.RoleUser)

	// Первый сабмит создаёт строку.
	tr, created, err := st.UpsertTracking(ctx, models.TrackingSubmitInput{
		TrackingNumber: "SF123",
		OwnerID:        &kofi,
		ShippingMark:   str("FIM482"),
		CBM:            dec("1.5"),
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "SF123", tr.TrackingNumber)
	require.Equal(t, "pending", tr.Status)
	require.Equal(t, "FIM482", tr.ShippingMark)

	// Repeat submission of the same number updates in place: no second row,
	// absent fields keep their stored values.
	tr2, created, err := st.UpsertTracking(ctx, models.TrackingSubmitInput{
		TrackingNumber: "SF123",
		Status:         str(models.TrackingStatusInTransit),
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, tr.ID, tr2.ID)
	require.Equal(t, models.TrackingStatusInTransit, tr2.Status)
	require.Equal(t, "FIM482", tr2.ShippingMark)
	require.True(t, tr2.CBM.Equal(decimal.RequireFromString("1.5")))

	all, err := st.ListTrackings(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// Reading either path returns the same converged view.
	byNum, err := st.GetTrackingByNumber(ctx, "SF123")
	require.NoError(t, err)
	require.Equal(t, tr2.Status, byNum.Status)

	// Owner filter.
	ama := seedOwner(t, st, "ama", models.RoleUser)
	mine, err := st.ListTrackings(ctx, &ama)
	require.NoError(t, err)
	require.Len(t, mine, 0)
}

func TestStorage_UpdateTrackingByID_notFound(t *testing.T) {
	st := startStorage(t)

	_, err := st.UpdateTrackingByID(context.Background(), 9999, models.TrackingSubmitInput{
		Status: str(models.TrackingStatusDelivered),
	})
	require.True(t, apperr.IsNotFound(err))
}

func TestStorage_MarkStats(t *testing.T) {
	st := startStorage(t)
	ctx := context.Background()

	kofi := seedOwner(t, st, "kofi", models.RoleUser)
	cont, err := st.CreateContainer(ctx, models.ContainerInput{ContainerNumber: "MSKU1234567"})
	require.NoError(t, err)

	for _, in := range []models.TrackingSubmitInput{
		{TrackingNumber: "A1", OwnerID: &kofi, ContainerID: &cont.ID, ShippingMark: str("A"), CBM: dec("1.5"), ShippingFee: dec("10")},
		{TrackingNumber: "A2", OwnerID: &kofi, ContainerID: &cont.ID, ShippingMark: str("A"), CBM: dec("2.0"), ShippingFee: dec("15")},
		{TrackingNumber: "B1", OwnerID: &kofi, ContainerID: &cont.ID, ShippingMark: str("B"), CBM: dec("3.0"), ShippingFee: dec("20")},
	} {
		_, _, err := st.UpsertTracking(ctx, in)
		require.NoError(t, err)
	}

	stats, err := st.MarkStats(ctx, cont.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byMark := map[string]*models.MarkStat{}
	for _, s := range stats {
		byMark[s.ShippingMark] = s
	}
	require.EqualValues(t, 2, byMark["A"].TrackingCount)
	require.True(t, byMark["A"].TotalCBM.Equal(decimal.RequireFromString("3.5")))
	require.True(t, byMark["A"].TotalShippingFee.Equal(decimal.RequireFromString("25")))
	require.EqualValues(t, 1, byMark["B"].TrackingCount)
	require.True(t, byMark["B"].TotalCBM.Equal(decimal.RequireFromString("3.0")))

	n, err := st.TrackingCount(ctx, cont.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestStorage_InvoiceNumbering_sequential(t *testing.T) {
	st := startStorage(t)
	ctx := context.Background()

	now := time.Now().UTC()
	prefix := "INV-" + now.Format("20060102") + "-"

	base := models.Invoice{
		ShippingMark: "FIM100",
		Subtotal:     decimal.RequireFromString("100"),
		TotalAmount:  decimal.RequireFromString("100"),
		ExchangeRate: decimal.RequireFromString("12.5"),
		Status:       models.InvoiceStatusPending,
		IssueDate:    now,
		DueDate:      now.AddDate(0, 0, 30),
	}

	first, err := st.CreateInvoiceWithItems(ctx, &base, nil)
	require.NoError(t, err)
	require.Equal(t, prefix+"001", first.InvoiceNumber)

	second, err := st.CreateInvoiceWithItems(ctx, &base, nil)
	require.NoError(t, err)
	require.Equal(t, prefix+"002", second.InvoiceNumber)
}

func TestStorage_Invoice_itemsAndStatusTransition(t *testing.T) {
	st := startStorage(t)
	ctx := context.Background()

	now := time.Now().UTC()
	inv := models.Invoice{
		ShippingMark:   "FIM200",
		Subtotal:       decimal.RequireFromString("45"),
		TotalAmount:    decimal.RequireFromString("45"),
		ExchangeRate:   decimal.RequireFromString("12.5"),
		TotalAmountGHS: decimal.RequireFromString("562.5"),
		Status:         models.InvoiceStatusPending,
		IssueDate:      now,
		DueDate:        now.AddDate(0, 0, 30),
	}
	items := []*models.InvoiceItem{
		{Description: "Freight for A1", TrackingNumber: "A1", CBM: decimal.RequireFromString("1.5"), TotalAmount: decimal.RequireFromString("20")},
		{Description: "Freight for A2", TrackingNumber: "A2", CBM: decimal.RequireFromString("2.0"), TotalAmount: decimal.RequireFromString("25")},
	}

	created, err := st.CreateInvoiceWithItems(ctx, &inv, items)
	require.NoError(t, err)
	require.Len(t, created.Items, 2)
	require.True(t, created.TotalAmountGHS.Equal(decimal.RequireFromString("562.5")))

	paid := models.InvoiceStatusPaid
	updated, oldStatus, err := st.UpdateInvoice(ctx, created.ID, models.InvoiceUpdateInput{Status: &paid})
	require.NoError(t, err)
	require.Equal(t, models.InvoiceStatusPending, oldStatus)
	require.Equal(t, models.InvoiceStatusPaid, updated.Status)

	// Items survive the update untouched.
	require.Len(t, updated.Items, 2)
}

func TestStorage_Rates_appendOnlyLatest(t *testing.T) {
	st := startStorage(t)
	ctx := context.Background()

	_, err := st.LatestRate(ctx, models.RateUSDGHS)
	require.True(t, apperr.IsNotFound(err))

	for _, v := range []string{"12.0", "12.5"} {
		r := decimal.RequireFromString(v)
		_, err := st.InsertRate(ctx, &models.ExchangeRate{Kind: models.RateUSDGHS, UsdToGhs: &r})
		require.NoError(t, err)
	}

	latest, err := st.LatestRate(ctx, models.RateUSDGHS)
	require.NoError(t, err)
	require.True(t, latest.UsdToGhs.Equal(decimal.RequireFromString("12.5")))

	hist, err := st.ListRates(ctx, models.RateUSDGHS, 20)
	require.NoError(t, err)
	require.Len(t, hist, 2)
}

func TestStorage_Notifications_outcomes(t *testing.T) {
	st := startStorage(t)
	ctx := context.Background()

	kofi := seedOwner(t, st, "kofi", models.RoleUser)

	n, err := st.CreateNotification(ctx, &models.Notification{
		ID:      uuid.NewString(),
		OwnerID: &kofi,
		Kind:    models.NotificationInvoiceReady,
		Email:   "kofi@example.com",
		Subject: "Invoice",
		Status:  models.NotificationStatusQueued,
	})
	require.NoError(t, err)
	require.Equal(t, models.NotificationStatusQueued, n.Status)

	require.NoError(t, st.MarkNotificationFailed(ctx, n.ID, "smtp timeout"))
	require.NoError(t, st.MarkNotificationSent(ctx, n.ID))

	list, err := st.ListNotifications(ctx, &kofi, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.NotificationStatusSent, list[0].Status)
	require.Nil(t, list[0].Error)
	require.NotNil(t, list[0].SentAt)
}
