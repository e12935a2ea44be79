package rates

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

type Repository interface {
	LatestRate(ctx context.Context, kind models.RateKind) (*models.ExchangeRate, error)
	InsertRate(ctx context.Context, r *models.ExchangeRate) (*models.ExchangeRate, error)
	ListRates(ctx context.Context, kind models.RateKind, limit int) ([]*models.ExchangeRate, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Fallbacks used before the first rate is ever recorded. Never persisted.
var (
	defaultUsdToGhs = decimal.RequireFromString("12.0")
	defaultGhsToCny = decimal.RequireFromString("0.560")
	defaultCnyToGhs = decimal.RequireFromString("1.786")
)

const historyLimit = 20

// Current returns the latest ledger entry, or a synthetic default when the
// ledger is still empty.
func (s *Service) Current(ctx context.Context, kind models.RateKind) (*models.ExchangeRate, error) {
	r, err := s.repo.LatestRate(ctx, kind)
	if err == nil {
		return r, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}
	switch kind {
	case models.RateUSDGHS:
		v := defaultUsdToGhs
		return &models.ExchangeRate{Kind: kind, UsdToGhs: &v}, nil
	case models.RateGHSCNY:
		g, c := defaultGhsToCny, defaultCnyToGhs
		return &models.ExchangeRate{Kind: kind, GhsToCny: &g, CnyToGhs: &c}, nil
	}
	return nil, apperr.Validationf("unknown rate kind %q", kind)
}

// Record appends a new ledger entry. For GHS_CNY either direction may be
// supplied; the other one is derived as the reciprocal rounded to 3 dp.
func (s *Service) Record(ctx context.Context, p models.Principal, kind models.RateKind, in models.RateInput) (*models.ExchangeRate, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}

	entry := &models.ExchangeRate{
		Kind:      kind,
		UpdatedBy: &p.OwnerID,
		Notes:     in.Notes,
	}

	switch kind {
	case models.RateUSDGHS:
		if in.UsdToGhs == nil {
			return nil, apperr.Validation("usd_to_ghs is required")
		}
		if !in.UsdToGhs.IsPositive() {
			return nil, apperr.Validation("rate must be greater than zero")
		}
		entry.UsdToGhs = in.UsdToGhs

	case models.RateGHSCNY:
		switch {
		case in.GhsToCny != nil:
			if !in.GhsToCny.IsPositive() {
				return nil, apperr.Validation("rate must be greater than zero")
			}
			derived := reciprocal(*in.GhsToCny)
			entry.GhsToCny = in.GhsToCny
			entry.CnyToGhs = &derived
		case in.CnyToGhs != nil:
			if !in.CnyToGhs.IsPositive() {
				return nil, apperr.Validation("rate must be greater than zero")
			}
			derived := reciprocal(*in.CnyToGhs)
			entry.CnyToGhs = in.CnyToGhs
			entry.GhsToCny = &derived
		default:
			return nil, apperr.Validation("ghs_to_cny or cny_to_ghs is required")
		}

	default:
		return nil, apperr.Validationf("unknown rate kind %q", kind)
	}

	return s.repo.InsertRate(ctx, entry)
}

func (s *Service) History(ctx context.Context, p models.Principal, kind models.RateKind) ([]*models.ExchangeRate, error) {
	if !p.IsAdmin() {
		return nil, apperr.Permission("admin only")
	}
	return s.repo.ListRates(ctx, kind, historyLimit)
}

func reciprocal(v decimal.Decimal) decimal.Decimal {
	return decimal.New(1, 0).DivRound(v, 16).Round(3)
}
