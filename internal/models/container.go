package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ContainerStatusPreparing   = "preparing"
	ContainerStatusLoading     = "loading"
	ContainerStatusInTransit   = "in_transit"
	ContainerStatusArrivedPort = "arrived_port"
	ContainerStatusClearing    = "clearing"
	ContainerStatusCompleted   = "completed"
)

type Container struct {
	ID              int64      `json:"id"`
	ContainerNumber string     `json:"container_number"`
	PortOfLoading   string     `json:"port_of_loading"`
	PortOfDischarge string     `json:"port_of_discharge"`
	Status          string     `json:"status"`
	DepartureDate   *time.Time `json:"departure_date"`
	ArrivalDate     *time.Time `json:"arrival_date"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type ContainerInput struct {
	ContainerNumber string     `json:"container_number"`
	PortOfLoading   string     `json:"port_of_loading"`
	PortOfDischarge string     `json:"port_of_discharge"`
	Status          string     `json:"status"`
	DepartureDate   *time.Time `json:"departure_date"`
	ArrivalDate     *time.Time `json:"arrival_date"`
	Notes           string     `json:"notes"`
}

// MarkStat is one row of the per-container aggregation: all trackings in the
// container grouped by the denormalized shipping_mark string.
type MarkStat struct {
	ShippingMark     string          `json:"shipping_mark"`
	TrackingCount    int64           `json:"tracking_count"`
	TotalCBM         decimal.Decimal `json:"total_cbm"`
	TotalShippingFee decimal.Decimal `json:"total_shipping_fee"`
}
