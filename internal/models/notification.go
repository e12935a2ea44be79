package models

import "time"

const (
	NotificationInvoiceReady = "invoice_ready"
	NotificationInvoicePaid  = "invoice_paid"
	NotificationAdminMessage = "admin_message"
)

const (
	NotificationStatusQueued = "queued"
	NotificationStatusSent   = "sent"
	NotificationStatusFailed = "failed"
)

// Notification is the persisted outcome of one dispatch attempt. The API
// creates it as queued; the worker flips it to sent or failed.
type Notification struct {
	ID        string     `json:"id"`
	OwnerID   *int64     `json:"owner"`
	Kind      string     `json:"kind"`
	Email     string     `json:"email"`
	Subject   string     `json:"subject"`
	Status    string     `json:"status"`
	Error     *string    `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at"`
}
