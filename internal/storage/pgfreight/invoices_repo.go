package pgfreight

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

const invoiceColumns = `
  i.id, i.invoice_number, i.shipping_mark, i.customer_name, i.customer_email,
  i.subtotal, i.tax_amount, i.discount_amount, i.total_amount,
  i.exchange_rate, i.total_amount_ghs, i.status,
  i.issue_date, i.due_date, i.paid_date,
  i.payment_method, i.payment_reference, i.notes,
  i.container_id, c.container_number, i.created_by, i.created_at, i.updated_at`

const invoiceFrom = `FROM invoices i LEFT JOIN containers c ON c.id = i.container_id`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	if err := row.Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.ShippingMark, &inv.CustomerName, &inv.CustomerEmail,
		&inv.Subtotal, &inv.TaxAmount, &inv.DiscountAmount, &inv.TotalAmount,
		&inv.ExchangeRate, &inv.TotalAmountGHS, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.PaidDate,
		&inv.PaymentMethod, &inv.PaymentReference, &inv.Notes,
		&inv.ContainerID, &inv.ContainerNumber, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("invoice")
		}
		return nil, errors.Wrap(err, "scan invoice")
	}
	return &inv, nil
}

// nextInvoiceNumber allocates INV-YYYYMMDD-NNN inside the caller's tx. The
// per-day counter row is bumped with an upsert, so the row lock serializes
// concurrent creations and two invoices can never share a number.
func nextInvoiceNumber(ctx context.Context, tx pgx.Tx, day time.Time) (string, error) {
	prefix := day.UTC().Format("20060102")
	var seq int64
	err := tx.QueryRow(ctx, `
INSERT INTO invoice_counters (day, last_seq) VALUES ($1, 1)
ON CONFLICT (day) DO UPDATE SET last_seq = invoice_counters.last_seq + 1
RETURNING last_seq
`, prefix).Scan(&seq)
	if err != nil {
		return "", errors.Wrap(err, "bump invoice counter")
	}
	return fmt.Sprintf("INV-%s-%03d", prefix, seq), nil
}

// CreateInvoiceWithItems persists an invoice and its items in one
// transaction. When inv.InvoiceNumber is empty a per-day sequential number is
// allocated. Items are immutable after this call.
func (s *Storage) CreateInvoiceWithItems(ctx context.Context, inv *models.Invoice, items []*models.InvoiceItem) (*models.Invoice, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	number := inv.InvoiceNumber
	if number == "" {
		number, err = nextInvoiceNumber(ctx, tx, inv.IssueDate)
		if err != nil {
			return nil, err
		}
	}

	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO invoices (
  invoice_number, shipping_mark, customer_name, customer_email,
  subtotal, tax_amount, discount_amount, total_amount,
  exchange_rate, total_amount_ghs, status,
  issue_date, due_date, paid_date,
  payment_method, payment_reference, notes,
  container_id, created_by
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
RETURNING id
`, number, inv.ShippingMark, inv.CustomerName, inv.CustomerEmail,
		inv.Subtotal, inv.TaxAmount, inv.DiscountAmount, inv.TotalAmount,
		inv.ExchangeRate, inv.TotalAmountGHS, inv.Status,
		inv.IssueDate, inv.DueDate, inv.PaidDate,
		inv.PaymentMethod, inv.PaymentReference, inv.Notes,
		inv.ContainerID, inv.CreatedBy).Scan(&id)
	if err != nil {
		return nil, errors.Wrap(err, "insert invoice")
	}

	for _, it := range items {
		_, err := tx.Exec(ctx, `
INSERT INTO invoice_items (
  invoice_id, tracking_id, description, tracking_number,
  cbm, rate_per_cbm, goods_type, total_amount
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, id, it.TrackingID, it.Description, it.TrackingNumber,
			it.CBM, it.RatePerCBM, it.GoodsType, it.TotalAmount)
		if err != nil {
			return nil, errors.Wrap(err, "insert invoice item")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return s.GetInvoice(ctx, id)
}

func (s *Storage) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, err := scanInvoice(s.db.QueryRow(ctx, `SELECT `+invoiceColumns+` `+invoiceFrom+` WHERE i.id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
SELECT id, invoice_id, tracking_id, description, tracking_number,
       cbm, rate_per_cbm, goods_type, total_amount, created_at
FROM invoice_items
WHERE invoice_id = $1
ORDER BY id
`, id)
	if err != nil {
		return nil, errors.Wrap(err, "select invoice items")
	}
	defer rows.Close()

	for rows.Next() {
		var it models.InvoiceItem
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.TrackingID, &it.Description, &it.TrackingNumber,
			&it.CBM, &it.RatePerCBM, &it.GoodsType, &it.TotalAmount, &it.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan invoice item")
		}
		inv.Items = append(inv.Items, &it)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return inv, nil
}

// ListInvoices returns all invoices (markFilter nil, admin view) or the ones
// belonging to one shipping mark, newest first. Items are not loaded.
func (s *Storage) ListInvoices(ctx context.Context, markFilter *string) ([]*models.Invoice, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+invoiceColumns+` `+invoiceFrom+`
WHERE $1::text IS NULL OR i.shipping_mark = $1
ORDER BY i.created_at DESC
`, markFilter)
	if err != nil {
		return nil, errors.Wrap(err, "select invoices")
	}
	defer rows.Close()

	out := []*models.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

// UpdateInvoice applies a partial update and reports the status the invoice
// had before, so the caller can detect the pending -> paid transition. The
// row is locked for the duration of the tx.
func (s *Storage) UpdateInvoice(ctx context.Context, id int64, in models.InvoiceUpdateInput) (*models.Invoice, string, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, "", errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var oldStatus string
	err = tx.QueryRow(ctx, `SELECT status FROM invoices WHERE id = $1 FOR UPDATE`, id).Scan(&oldStatus)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", apperr.NotFound("invoice")
		}
		return nil, "", errors.Wrap(err, "lock invoice")
	}

	_, err = tx.Exec(ctx, `
UPDATE invoices SET
  status            = COALESCE($2, status),
  paid_date         = COALESCE($3, paid_date),
  payment_method    = COALESCE($4, payment_method),
  payment_reference = COALESCE($5, payment_reference),
  notes             = COALESCE($6, notes),
  due_date          = COALESCE($7, due_date),
  tax_amount        = COALESCE($8, tax_amount),
  discount_amount   = COALESCE($9, discount_amount),
  updated_at        = now()
WHERE id = $1
`, id, in.Status, in.PaidDate, in.PaymentMethod, in.PaymentReference,
		in.Notes, in.DueDate, in.TaxAmount, in.DiscountAmount)
	if err != nil {
		return nil, "", errors.Wrap(err, "update invoice")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, "", errors.Wrap(err, "commit tx")
	}

	inv, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return inv, oldStatus, nil
}
