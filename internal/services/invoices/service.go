package invoices

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
	"github.com/fofoo/freightdesk/internal/services/notify"
)

type Repository interface {
	MarkByMarkID(ctx context.Context, markID string) (*models.ShippingMark, error)
	MarkByOwner(ctx context.Context, ownerID int64) (*models.ShippingMark, error)
	OwnerByID(ctx context.Context, id int64) (*models.Owner, error)
	GetContainer(ctx context.Context, id int64) (*models.Container, error)
	TrackingsForSelection(ctx context.Context, markID string, containerID int64) ([]*models.Tracking, error)
	CreateInvoiceWithItems(ctx context.Context, inv *models.Invoice, items []*models.InvoiceItem) (*models.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*models.Invoice, error)
	ListInvoices(ctx context.Context, markFilter *string) ([]*models.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, in models.InvoiceUpdateInput) (*models.Invoice, string, error)
}

type RateProvider interface {
	Current(ctx context.Context, kind models.RateKind) (*models.ExchangeRate, error)
}

type PDFRenderer interface {
	Render(inv *models.Invoice) ([]byte, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, req notify.Request) (string, bool)
}

type Service struct {
	repo     Repository
	rates    RateProvider
	pdf      PDFRenderer
	dispatch Enqueuer
	log      *slog.Logger
}

func New(repo Repository, rates RateProvider, pdf PDFRenderer, dispatch Enqueuer, log *slog.Logger) *Service {
	return &Service{repo: repo, rates: rates, pdf: pdf, dispatch: dispatch, log: log}
}

const dueInDays = 30

var validStatuses = map[string]struct{}{
	models.InvoiceStatusPending:   {},
	models.InvoiceStatusPaid:      {},
	models.InvoiceStatusCancelled: {},
	models.InvoiceStatusOverdue:   {},
}

// Preview is the read-only half of the aggregation: what an invoice for this
// mark and container would contain.
type Preview struct {
	Mark      *models.ShippingMark `json:"mark"`
	Container *models.Container    `json:"container"`
	Trackings []*models.Tracking   `json:"trackings"`
	Totals    models.InvoiceTotals `json:"totals"`
}

// CreateResult couples the committed invoice with the delivery attempt.
type CreateResult struct {
	Invoice        *models.Invoice `json:"invoice"`
	NotificationID string          `json:"notification_id,omitempty"`
	Queued         bool            `json:"queued"`
}

func (s *Service) Preview(ctx context.Context, p models.Principal, markID string, containerID int64) (*Preview, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	mark, container, trackings, err := s.resolveSelection(ctx, markID, containerID)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Mark:      mark,
		Container: container,
		Trackings: trackings,
		Totals:    totalsOf(trackings),
	}, nil
}

// CreateAndSend freezes the aggregation into an invoice and queues the email.
// The invoice commit and the delivery are separate concerns: a dead broker or
// a broken PDF never undoes the committed invoice.
func (s *Service) CreateAndSend(ctx context.Context, p models.Principal, markID string, containerID int64) (*CreateResult, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	mark, container, trackings, err := s.resolveSelection(ctx, markID, containerID)
	if err != nil {
		return nil, err
	}
	if len(trackings) == 0 {
		return nil, apperr.Validation("no trackings for this mark in this container")
	}
	owner, err := s.repo.OwnerByID(ctx, mark.OwnerID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation("shipping mark has no owner")
		}
		return nil, err
	}

	totals := totalsOf(trackings)
	rate, err := s.currentUsdGhs(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	inv := &models.Invoice{
		ShippingMark:   mark.MarkID,
		CustomerName:   displayName(owner),
		CustomerEmail:  owner.Email,
		Subtotal:       totals.TotalFee,
		TotalAmount:    totals.TotalFee,
		ExchangeRate:   rate,
		TotalAmountGHS: totals.TotalFee.Mul(rate),
		Status:         models.InvoiceStatusPending,
		IssueDate:      now,
		DueDate:        now.AddDate(0, 0, dueInDays),
		ContainerID:    &container.ID,
		CreatedBy:      &p.OwnerID,
	}
	items := itemsFor(trackings)

	inv, err = s.repo.CreateInvoiceWithItems(ctx, inv, items)
	if err != nil {
		return nil, err
	}
	inv.ContainerNumber = &container.ContainerNumber

	res := &CreateResult{Invoice: inv}
	res.NotificationID, res.Queued = s.sendInvoiceReady(ctx, inv, owner)
	return res, nil
}

// CreateManual is the hand-filled path: the admin supplies the billing fields
// and the subtotal is only derived when a mark and container selection is
// given.
func (s *Service) CreateManual(ctx context.Context, p models.Principal, in models.InvoiceManualInput) (*models.Invoice, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	if in.CustomerName == "" {
		return nil, apperr.Validation("customer_name is required")
	}
	status := in.Status
	if status == "" {
		status = models.InvoiceStatusPending
	}
	if _, ok := validStatuses[status]; !ok {
		return nil, apperr.Validationf("unknown status %q", status)
	}

	subtotal := decimal.Zero
	var items []*models.InvoiceItem
	if in.ShippingMark != "" && in.ContainerID != nil {
		_, _, trackings, err := s.resolveSelection(ctx, in.ShippingMark, *in.ContainerID)
		if err != nil {
			return nil, err
		}
		subtotal = totalsOf(trackings).TotalFee
		items = itemsFor(trackings)
	}

	tax := decimal.Zero
	if in.TaxAmount != nil {
		tax = *in.TaxAmount
	}
	discount := decimal.Zero
	if in.DiscountAmount != nil {
		discount = *in.DiscountAmount
	}
	total := subtotal.Add(tax).Sub(discount)

	rate, err := s.currentUsdGhs(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	issue := now
	if in.IssueDate != nil {
		issue = *in.IssueDate
	}
	due := issue.AddDate(0, 0, dueInDays)
	if in.DueDate != nil {
		due = *in.DueDate
	}

	inv := &models.Invoice{
		InvoiceNumber:    in.InvoiceNumber,
		ShippingMark:     in.ShippingMark,
		CustomerName:     in.CustomerName,
		CustomerEmail:    in.CustomerEmail,
		Subtotal:         subtotal,
		TaxAmount:        tax,
		DiscountAmount:   discount,
		TotalAmount:      total,
		ExchangeRate:     rate,
		TotalAmountGHS:   total.Mul(rate),
		Status:           status,
		IssueDate:        issue,
		DueDate:          due,
		PaidDate:         in.PaidDate,
		PaymentMethod:    in.PaymentMethod,
		PaymentReference: in.PaymentReference,
		Notes:            in.Notes,
		ContainerID:      in.ContainerID,
		CreatedBy:        &p.OwnerID,
	}
	return s.repo.CreateInvoiceWithItems(ctx, inv, items)
}

// UpdateStatus applies a partial update; crossing into paid queues the
// thank-you email once, and only for that crossing.
func (s *Service) UpdateStatus(ctx context.Context, p models.Principal, id int64, in models.InvoiceUpdateInput) (*models.Invoice, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	if in.Status != nil {
		if _, ok := validStatuses[*in.Status]; !ok {
			return nil, apperr.Validationf("unknown status %q", *in.Status)
		}
		if *in.Status == models.InvoiceStatusPaid && in.PaidDate == nil {
			now := time.Now().UTC()
			in.PaidDate = &now
		}
	}

	inv, oldStatus, err := s.repo.UpdateInvoice(ctx, id, in)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && *in.Status == models.InvoiceStatusPaid && oldStatus != models.InvoiceStatusPaid {
		s.sendInvoicePaid(ctx, inv)
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context, p models.Principal) ([]*models.Invoice, error) {
	if p.IsAdmin() {
		return s.repo.ListInvoices(ctx, nil)
	}
	mark, err := s.repo.MarkByOwner(ctx, p.OwnerID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return []*models.Invoice{}, nil
		}
		return nil, err
	}
	return s.repo.ListInvoices(ctx, &mark.MarkID)
}

func (s *Service) Get(ctx context.Context, p models.Principal, id int64) (*models.Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		return inv, nil
	}
	mark, err := s.repo.MarkByOwner(ctx, p.OwnerID)
	if err != nil || mark.MarkID != inv.ShippingMark {
		return nil, apperr.Permission("not your invoice")
	}
	return inv, nil
}

func (s *Service) resolveSelection(ctx context.Context, markID string, containerID int64) (*models.ShippingMark, *models.Container, []*models.Tracking, error) {
	if markID == "" {
		return nil, nil, nil, apperr.Validation("mark_id is required")
	}
	mark, err := s.repo.MarkByMarkID(ctx, markID)
	if err != nil {
		return nil, nil, nil, err
	}
	container, err := s.repo.GetContainer(ctx, containerID)
	if err != nil {
		return nil, nil, nil, err
	}
	trackings, err := s.repo.TrackingsForSelection(ctx, mark.MarkID, container.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return mark, container, trackings, nil
}

func (s *Service) currentUsdGhs(ctx context.Context) (decimal.Decimal, error) {
	r, err := s.rates.Current(ctx, models.RateUSDGHS)
	if err != nil {
		return decimal.Zero, err
	}
	if r.UsdToGhs == nil {
		return decimal.Zero, apperr.Validation("usd_to_ghs rate is not set")
	}
	return *r.UsdToGhs, nil
}

func (s *Service) sendInvoiceReady(ctx context.Context, inv *models.Invoice, owner *models.Owner) (string, bool) {
	if owner.Email == "" {
		s.log.Warn("invoice owner has no email, skipping notification", "invoice", inv.InvoiceNumber)
		return "", false
	}

	var attachment []byte
	if s.pdf != nil {
		b, err := s.pdf.Render(inv)
		if err != nil {
			// Degrade to a plain email.
			s.log.Error("invoice pdf render failed", "invoice", inv.InvoiceNumber, "err", err)
		} else {
			attachment = b
		}
	}

	subject, text, html := invoiceReadyEmail(inv, displayName(owner))
	return s.dispatch.Enqueue(ctx, notify.Request{
		OwnerID:        &owner.ID,
		Kind:           models.NotificationInvoiceReady,
		ToEmail:        owner.Email,
		ToName:         displayName(owner),
		Subject:        subject,
		TextBody:       text,
		HTMLBody:       html,
		AttachmentName: inv.InvoiceNumber + ".pdf",
		Attachment:     attachment,
	})
}

// sendInvoicePaid walks invoice -> mark -> owner and quietly gives up at the
// first broken link.
func (s *Service) sendInvoicePaid(ctx context.Context, inv *models.Invoice) {
	if inv.ShippingMark == "" {
		return
	}
	mark, err := s.repo.MarkByMarkID(ctx, inv.ShippingMark)
	if err != nil {
		s.log.Debug("paid notification skipped, mark unresolved", "invoice", inv.InvoiceNumber)
		return
	}
	owner, err := s.repo.OwnerByID(ctx, mark.OwnerID)
	if err != nil || owner.Email == "" {
		s.log.Debug("paid notification skipped, owner unresolved", "invoice", inv.InvoiceNumber)
		return
	}

	subject, text, html := invoicePaidEmail(inv, displayName(owner))
	s.dispatch.Enqueue(ctx, notify.Request{
		OwnerID:  &owner.ID,
		Kind:     models.NotificationInvoicePaid,
		ToEmail:  owner.Email,
		ToName:   displayName(owner),
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	})
}

func totalsOf(trackings []*models.Tracking) models.InvoiceTotals {
	t := models.InvoiceTotals{Count: int64(len(trackings))}
	for _, tr := range trackings {
		if tr.CBM != nil {
			t.TotalCBM = t.TotalCBM.Add(*tr.CBM)
		}
		if tr.ShippingFee != nil {
			t.TotalFee = t.TotalFee.Add(*tr.ShippingFee)
		}
	}
	return t
}

func itemsFor(trackings []*models.Tracking) []*models.InvoiceItem {
	items := make([]*models.InvoiceItem, 0, len(trackings))
	for _, tr := range trackings {
		it := &models.InvoiceItem{
			TrackingID:     &tr.ID,
			Description:    "Freight for " + tr.TrackingNumber,
			TrackingNumber: tr.TrackingNumber,
			RatePerCBM:     decimal.Zero,
		}
		if tr.CBM != nil {
			it.CBM = *tr.CBM
		}
		if tr.ShippingFee != nil {
			it.TotalAmount = *tr.ShippingFee
		}
		if tr.GoodsType != nil {
			it.GoodsType = *tr.GoodsType
		}
		items = append(items, it)
	}
	return items
}

func displayName(o *models.Owner) string {
	if o.FullName != "" {
		return o.FullName
	}
	return o.Username
}
