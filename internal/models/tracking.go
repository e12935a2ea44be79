package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Normalized tracking statuses (can be extended).
const (
	TrackingStatusPending   = "pending"
	TrackingStatusInTransit = "in_transit"
	TrackingStatusArrived   = "arrived"
	TrackingStatusDelivered = "delivered"
)

type Tracking struct {
	ID             int64            `json:"id"`
	TrackingNumber string           `json:"tracking_number"`
	OwnerID        *int64           `json:"owner"`
	OwnerUsername  *string          `json:"owner_username,omitempty"`
	ContainerID    *int64           `json:"container"`
	ShippingMark   string           `json:"shipping_mark"`
	Status         string           `json:"status"`
	CBM            *decimal.Decimal `json:"cbm"`
	ShippingFee    *decimal.Decimal `json:"shipping_fee"`
	GoodsType      *string          `json:"goods_type"`
	ETA            *time.Time       `json:"eta"`
	DateAdded      time.Time        `json:"date_added"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TrackingSubmitInput carries the fields of one submission. Nil means
// "not present": on an upsert the stored value is preserved.
type TrackingSubmitInput struct {
	TrackingNumber string           `json:"tracking_number"`
	OwnerID        *int64           `json:"owner"`
	ContainerID    *int64           `json:"container"`
	ShippingMark   *string          `json:"shipping_mark"`
	Status         *string          `json:"status"`
	CBM            *decimal.Decimal `json:"cbm"`
	ShippingFee    *decimal.Decimal `json:"shipping_fee"`
	GoodsType      *string          `json:"goods_type"`
	ETA            *time.Time       `json:"eta"`
}
