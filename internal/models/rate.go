package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateKind selects one of the two ledgers.
type RateKind string

const (
	RateUSDGHS RateKind = "USD_GHS"
	RateGHSCNY RateKind = "GHS_CNY"
)

// ExchangeRate is one append-only ledger entry. For USD_GHS only UsdToGhs is
// set; for GHS_CNY both directions are stored, one derived as the reciprocal.
type ExchangeRate struct {
	ID        int64            `json:"id"`
	Kind      RateKind         `json:"kind"`
	UsdToGhs  *decimal.Decimal `json:"usd_to_ghs,omitempty"`
	GhsToCny  *decimal.Decimal `json:"ghs_to_cny,omitempty"`
	CnyToGhs  *decimal.Decimal `json:"cny_to_ghs,omitempty"`
	UpdatedBy *int64           `json:"updated_by"`
	Notes     string           `json:"notes"`
	CreatedAt time.Time        `json:"created_at"`
}

type RateInput struct {
	UsdToGhs *decimal.Decimal `json:"usd_to_ghs"`
	GhsToCny *decimal.Decimal `json:"ghs_to_cny"`
	CnyToGhs *decimal.Decimal `json:"cny_to_ghs"`
	Notes    string           `json:"notes"`
}
