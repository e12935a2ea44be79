// Package freight_api is the REST surface over the freight services. Every
// route except the public tracking lookup requires a bearer token resolved
// against the owners table.
package freight_api

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fofoo/freightdesk/internal/models"
	"github.com/fofoo/freightdesk/internal/services/invoices"
)

type TrackingsService interface {
	Submit(ctx context.Context, p models.Principal, in models.TrackingSubmitInput) (*models.Tracking, bool, error)
	UpdateByID(ctx context.Context, p models.Principal, id int64, in models.TrackingSubmitInput) (*models.Tracking, error)
	List(ctx context.Context, p models.Principal) ([]*models.Tracking, error)
	Get(ctx context.Context, p models.Principal, id int64) (*models.Tracking, error)
	GetByNumber(ctx context.Context, number string) (*models.Tracking, error)
}

type ContainersService interface {
	Create(ctx context.Context, p models.Principal, in models.ContainerInput) (*models.Container, error)
	Update(ctx context.Context, p models.Principal, id int64, in models.ContainerInput) (*models.Container, error)
	Delete(ctx context.Context, p models.Principal, id int64) error
	Get(ctx context.Context, p models.Principal, id int64) (*models.Container, error)
	List(ctx context.Context, p models.Principal) ([]*models.Container, error)
	MarkStats(ctx context.Context, containerID int64) ([]*models.MarkStat, error)
}

type RatesService interface {
	Current(ctx context.Context, kind models.RateKind) (*models.ExchangeRate, error)
	Record(ctx context.Context, p models.Principal, kind models.RateKind, in models.RateInput) (*models.ExchangeRate, error)
	History(ctx context.Context, p models.Principal, kind models.RateKind) ([]*models.ExchangeRate, error)
}

type InvoicesService interface {
	Preview(ctx context.Context, p models.Principal, markID string, containerID int64) (*invoices.Preview, error)
	CreateAndSend(ctx context.Context, p models.Principal, markID string, containerID int64) (*invoices.CreateResult, error)
	CreateManual(ctx context.Context, p models.Principal, in models.InvoiceManualInput) (*models.Invoice, error)
	UpdateStatus(ctx context.Context, p models.Principal, id int64, in models.InvoiceUpdateInput) (*models.Invoice, error)
	List(ctx context.Context, p models.Principal) ([]*models.Invoice, error)
	Get(ctx context.Context, p models.Principal, id int64) (*models.Invoice, error)
}

type MarksService interface {
	Ensure(ctx context.Context, p models.Principal) (*models.ShippingMark, error)
	ListAll(ctx context.Context, p models.Principal) ([]*models.ShippingMark, error)
}

type NotificationsService interface {
	List(ctx context.Context, p models.Principal, limit int) ([]*models.Notification, error)
}

// OwnerResolver turns a bearer token into an identity row.
type OwnerResolver interface {
	OwnerByToken(ctx context.Context, token string) (*models.Owner, error)
}

// RateLimiter guards the public lookup per client address.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type API struct {
	trackings     TrackingsService
	containers    ContainersService
	rates         RatesService
	invoices      InvoicesService
	marks         MarksService
	notifications NotificationsService

	owners  OwnerResolver
	limiter RateLimiter

	lookupRatePerMinute int64
	swaggerPath         string
}

type Deps struct {
	Trackings     TrackingsService
	Containers    ContainersService
	Rates         RatesService
	Invoices      InvoicesService
	Marks         MarksService
	Notifications NotificationsService

	Owners  OwnerResolver
	Limiter RateLimiter

	LookupRatePerMinute int64
	SwaggerPath         string
}

func New(d Deps) *API {
	return &API{
		trackings:           d.Trackings,
		containers:          d.Containers,
		rates:               d.Rates,
		invoices:            d.Invoices,
		marks:               d.Marks,
		notifications:       d.Notifications,
		owners:              d.Owners,
		limiter:             d.Limiter,
		lookupRatePerMinute: d.LookupRatePerMinute,
		swaggerPath:         d.SwaggerPath,
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	if a.swaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, a.swaggerPath)
		})
		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(a.swaggerPath); err == nil {
			swaggerURL = "/swagger.json?v=" + fi.ModTime().UTC().Format("20060102150405")
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}

	// Public lookup, rate limited by client address.
	r.With(a.rateLimit).Get("/trackings/by-number/{number}", a.getTrackingByNumber)

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.Post("/trackings", a.submitTracking)
		r.Get("/trackings", a.listTrackings)
		r.Get("/trackings/{id}", a.getTracking)
		r.Put("/trackings/{id}", a.updateTracking)

		r.Get("/containers", a.listContainers)
		r.Post("/containers", a.createContainer)
		r.Get("/containers/{id}", a.getContainer)
		r.Put("/containers/{id}", a.updateContainer)
		r.Delete("/containers/{id}", a.deleteContainer)
		r.Get("/containers/{id}/mark-stats", a.containerMarkStats)

		r.Get("/marks/mine", a.myMark)
		r.Get("/marks", a.listMarks)

		r.Get("/invoices", a.listInvoices)
		r.Post("/invoices", a.createInvoiceManual)
		r.Get("/invoices/preview", a.previewInvoice)
		r.Post("/invoices/send", a.sendInvoice)
		r.Get("/invoices/{id}", a.getInvoice)
		r.Put("/invoices/{id}", a.updateInvoice)

		r.Get("/exchange-rates/current", a.currentUsdRate)
		r.Post("/exchange-rates/current", a.recordUsdRate)
		r.Get("/exchange-rates/history", a.usdRateHistory)
		r.Get("/exchange-rates/alipay", a.currentAlipayRate)
		r.Post("/exchange-rates/alipay", a.recordAlipayRate)
		r.Get("/exchange-rates/alipay/history", a.alipayRateHistory)

		r.Get("/notifications", a.listAllNotifications)
		r.Get("/notifications/mine", a.listMyNotifications)
	})

	return r
}

// dispatchResponse is the wire shape of a send attempt.
type dispatchResponse struct {
	Invoice        *models.Invoice `json:"invoice"`
	NotificationID string          `json:"notification_id,omitempty"`
	Sent           bool            `json:"sent"`
}

func toDispatchResponse(res *invoices.CreateResult) dispatchResponse {
	return dispatchResponse{Invoice: res.Invoice, NotificationID: res.NotificationID, Sent: res.Queued}
}
