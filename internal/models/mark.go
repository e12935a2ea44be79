package models

import "time"

// ShippingMark is a customer's permanent grouping code ("FIM" + digits).
// One mark per owner; trackings reference it by the free-text
// shipping_mark column, not by FK.
type ShippingMark struct {
	ID        int64     `json:"id"`
	MarkID    string    `json:"mark_id"`
	OwnerID   int64     `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	// Joined owner fields, populated by reads that need the addressee.
	OwnerUsername string `json:"owner_username,omitempty"`
	OwnerFullName string `json:"owner_full_name,omitempty"`
	OwnerEmail    string `json:"owner_email,omitempty"`
}
