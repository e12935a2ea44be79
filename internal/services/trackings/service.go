package trackings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fofoo/freightdesk/internal/apperr"
	"github.com/fofoo/freightdesk/internal/models"
)

type Repository interface {
	UpsertTracking(ctx context.Context, in models.TrackingSubmitInput) (*models.Tracking, bool, error)
	UpdateTrackingByID(ctx context.Context, id int64, in models.TrackingSubmitInput) (*models.Tracking, error)
	GetTracking(ctx context.Context, id int64) (*models.Tracking, error)
	GetTrackingByNumber(ctx context.Context, number string) (*models.Tracking, error)
	ListTrackings(ctx context.Context, ownerID *int64) ([]*models.Tracking, error)
	OwnerByID(ctx context.Context, id int64) (*models.Owner, error)
}

type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	repo      Repository
	cache     BytesCache
	lookupTTL time.Duration
}

func New(repo Repository, c BytesCache, lookupTTL time.Duration) *Service {
	return &Service{repo: repo, cache: c, lookupTTL: lookupTTL}
}

var validStatuses = map[string]struct{}{
	models.TrackingStatusPending:   {},
	models.TrackingStatusInTransit: {},
	models.TrackingStatusArrived:   {},
	models.TrackingStatusDelivered: {},
}

// Submit is the single write path for trackings: one canonical row per
// tracking number, later submissions merge into it field by field.
func (s *Service) Submit(ctx context.Context, p models.Principal, in models.TrackingSubmitInput) (*models.Tracking, bool, error) {
	if in.TrackingNumber == "" {
		return nil, false, apperr.Validation("tracking_number is required")
	}
	if err := s.applyOwnerRules(ctx, p, &in); err != nil {
		return nil, false, err
	}
	if in.Status != nil {
		if _, ok := validStatuses[*in.Status]; !ok {
			return nil, false, apperr.Validationf("unknown status %q", *in.Status)
		}
	}
	if p.IsAdmin() && in.OwnerID == nil {
		// На создании админ обязан назначить владельца.
		if _, err := s.repo.GetTrackingByNumber(ctx, in.TrackingNumber); err != nil {
			if apperr.IsNotFound(err) {
				return nil, false, apperr.Validation("owner is required")
			}
			return nil, false, err
		}
	}

	t, created, err := s.repo.UpsertTracking(ctx, in)
	if err != nil {
		return nil, false, err
	}
	s.invalidate(ctx, t.TrackingNumber)
	return t, created, nil
}

func (s *Service) UpdateByID(ctx context.Context, p models.Principal, id int64, in models.TrackingSubmitInput) (*models.Tracking, error) {
	if err := s.applyOwnerRules(ctx, p, &in); err != nil {
		return nil, err
	}
	if in.Status != nil {
		if _, ok := validStatuses[*in.Status]; !ok {
			return nil, apperr.Validationf("unknown status %q", *in.Status)
		}
	}
	if !p.IsAdmin() {
		existing, err := s.repo.GetTracking(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing.OwnerID == nil || *existing.OwnerID != p.OwnerID {
			return nil, apperr.Permission("not your tracking")
		}
	}
	t, err := s.repo.UpdateTrackingByID(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, t.TrackingNumber)
	return t, nil
}

func (s *Service) List(ctx context.Context, p models.Principal) ([]*models.Tracking, error) {
	if p.IsAdmin() {
		return s.repo.ListTrackings(ctx, nil)
	}
	owner := p.OwnerID
	return s.repo.ListTrackings(ctx, &owner)
}

func (s *Service) Get(ctx context.Context, p models.Principal, id int64) (*models.Tracking, error) {
	t, err := s.repo.GetTracking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && (t.OwnerID == nil || *t.OwnerID != p.OwnerID) {
		return nil, apperr.Permission("not your tracking")
	}
	return t, nil
}

// GetByNumber serves the unauthenticated lookup. Best-effort redis cache in
// front of the row read; the cache never has to be there.
func (s *Service) GetByNumber(ctx context.Context, number string) (*models.Tracking, error) {
	if number == "" {
		return nil, apperr.Validation("tracking number is required")
	}
	key := lookupKey(number)
	if s.cache != nil && s.lookupTTL > 0 {
		if b, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var t models.Tracking
			if json.Unmarshal(b, &t) == nil {
				return &t, nil
			}
		}
	}
	t, err := s.repo.GetTrackingByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if s.cache != nil && s.lookupTTL > 0 {
		if b, err := json.Marshal(t); err == nil {
			_ = s.cache.Set(ctx, key, b, s.lookupTTL)
		}
	}
	return t, nil
}

// applyOwnerRules enforces ownership on writes: a non-admin always writes to
// their own trackings regardless of what the payload claims; an admin may
// assign any non-admin owner.
func (s *Service) applyOwnerRules(ctx context.Context, p models.Principal, in *models.TrackingSubmitInput) error {
	if !p.IsAdmin() {
		owner := p.OwnerID
		in.OwnerID = &owner
		return nil
	}
	if in.OwnerID == nil {
		return nil
	}
	owner, err := s.repo.OwnerByID(ctx, *in.OwnerID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return apperr.Validation("owner does not exist")
		}
		return err
	}
	if owner.Role == models.RoleAdmin {
		return apperr.Validation("owner cannot be an admin user")
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, number string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, lookupKey(number))
}

func lookupKey(number string) string {
	return "tracking:number:" + number
}
