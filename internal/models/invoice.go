package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusOverdue   = "overdue"
)

type Invoice struct {
	ID               int64           `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	ShippingMark     string          `json:"shipping_mark"`
	CustomerName     string          `json:"customer_name"`
	CustomerEmail    string          `json:"customer_email"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	TaxAmount        decimal.Decimal `json:"tax_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate"`
	TotalAmountGHS   decimal.Decimal `json:"total_amount_ghs"`
	Status           string          `json:"status"`
	IssueDate        time.Time       `json:"issue_date"`
	DueDate          time.Time       `json:"due_date"`
	PaidDate         *time.Time      `json:"paid_date"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
	Notes            string          `json:"notes"`
	ContainerID      *int64          `json:"container"`
	ContainerNumber  *string         `json:"container_number,omitempty"`
	CreatedBy        *int64          `json:"created_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []*InvoiceItem `json:"items,omitempty"`
}

type InvoiceItem struct {
	ID             int64           `json:"id"`
	InvoiceID      int64           `json:"invoice"`
	TrackingID     *int64          `json:"tracking"`
	Description    string          `json:"description"`
	TrackingNumber string          `json:"tracking_number"`
	CBM            decimal.Decimal `json:"cbm"`
	RatePerCBM     decimal.Decimal `json:"rate_per_cbm"`
	GoodsType      string          `json:"goods_type"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

// InvoiceManualInput is the admin-supplied create path: totals are given, not
// derived from a tracking selection (except subtotal, which is, when the
// mark/container pair is present).
type InvoiceManualInput struct {
	InvoiceNumber    string           `json:"invoice_number"`
	ShippingMark     string           `json:"mark_id"`
	ContainerID      *int64           `json:"container_id"`
	CustomerName     string           `json:"customer_name"`
	CustomerEmail    string           `json:"customer_email"`
	TaxAmount        *decimal.Decimal `json:"tax_amount"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount"`
	Status           string           `json:"status"`
	IssueDate        *time.Time       `json:"issue_date"`
	DueDate          *time.Time       `json:"due_date"`
	PaidDate         *time.Time       `json:"paid_date"`
	PaymentMethod    string           `json:"payment_method"`
	PaymentReference string           `json:"payment_reference"`
	Notes            string           `json:"notes"`
}

// InvoiceUpdateInput is a partial update; nil fields are left unchanged.
type InvoiceUpdateInput struct {
	Status           *string          `json:"status"`
	PaidDate         *time.Time       `json:"paid_date"`
	PaymentMethod    *string          `json:"payment_method"`
	PaymentReference *string          `json:"payment_reference"`
	Notes            *string          `json:"notes"`
	DueDate          *time.Time       `json:"due_date"`
	TaxAmount        *decimal.Decimal `json:"tax_amount"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount"`
}

// InvoiceTotals is the aggregation over a (mark, container) selection.
type InvoiceTotals struct {
	Count    int64           `json:"count"`
	TotalCBM decimal.Decimal `json:"total_cbm"`
	TotalFee decimal.Decimal `json:"total_fee"`
}
