package service

import (
	"context"
	"errors"
	"time"

	"tutorhub/internal/cache"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"

	"gorm.io/gorm"
)

// AdService provides ad placement business logic. Ad status is derived from
// the clock at read time; only explicit overrides are stored.
type AdService struct {
	adRepo repository.AdRepository

	now func() time.Time
}

// AdInput carries the fields needed to create or update an ad.
type AdInput struct {
	Title     string
	Slot      string
	ImageURL  string
	TargetURL string
	StartsAt  time.Time
	EndsAt    time.Time
}

// AdView is an ad together with its derived status.
type AdView struct {
	models.Ad
	Status models.AdStatus `json:"status"`
}

// NewAdService returns a new AdService.
func NewAdService(adRepo repository.AdRepository) *AdService {
	return &AdService{adRepo: adRepo, now: time.Now}
}

func validateAdInput(in AdInput) error {
	if in.Title == "" {
		return models.NewValidationError("Title is required")
	}
	if in.Slot == "" {
		return models.NewValidationError("Slot is required")
	}
	if !in.EndsAt.After(in.StartsAt) {
		return models.NewValidationError("The display window must end after it starts")
	}
	return nil
}

// CreateAd schedules a new ad placement.
func (s *AdService) CreateAd(ctx context.Context, in AdInput) (*AdView, error) {
	if err := validateAdInput(in); err != nil {
		return nil, err
	}

	ad := &models.Ad{
		Title:     in.Title,
		Slot:      in.Slot,
		ImageURL:  in.ImageURL,
		TargetURL: in.TargetURL,
		StartsAt:  in.StartsAt,
		EndsAt:    in.EndsAt,
	}
	if err := s.adRepo.Create(ctx, ad); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateAdSlot(ctx, ad.Slot)
	return s.view(ad), nil
}

// GetAd returns one ad with its derived status.
func (s *AdService) GetAd(ctx context.Context, id uint) (*AdView, error) {
	ad, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Ad", id)
		}
		return nil, models.NewInternalError(err)
	}
	return s.view(ad), nil
}

// ListAds returns ads, optionally filtered by slot.
func (s *AdService) ListAds(ctx context.Context, slot string, limit, offset int) ([]AdView, error) {
	ads, err := s.adRepo.List(ctx, slot, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return s.views(ads), nil
}

// ActiveAds returns the ads currently displayable in a slot: inside their
// window and not paused.
func (s *AdService) ActiveAds(ctx context.Context, slot string) ([]AdView, error) {
	now := s.now()
	ads, err := s.adRepo.ListScheduledThrough(ctx, slot, now)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	out := make([]AdView, 0, len(ads))
	for i := range ads {
		if ads[i].EffectiveStatus(now) == models.AdStatusActive {
			out = append(out, AdView{Ad: ads[i], Status: models.AdStatusActive})
		}
	}
	return out, nil
}

// UpdateAd edits an ad placement.
func (s *AdService) UpdateAd(ctx context.Context, id uint, in AdInput) (*AdView, error) {
	ad, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Ad", id)
		}
		return nil, models.NewInternalError(err)
	}
	if err := validateAdInput(in); err != nil {
		return nil, err
	}

	ad.Title = in.Title
	ad.Slot = in.Slot
	ad.ImageURL = in.ImageURL
	ad.TargetURL = in.TargetURL
	ad.StartsAt = in.StartsAt
	ad.EndsAt = in.EndsAt
	if err := s.adRepo.Update(ctx, ad); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateAdSlot(ctx, ad.Slot)
	return s.view(ad), nil
}

// SetOverride pauses or unpauses an ad regardless of its window.
func (s *AdService) SetOverride(ctx context.Context, id uint, override models.AdStatus) (*AdView, error) {
	if override != "" && override != models.AdStatusPaused {
		return nil, models.NewValidationError("Only the paused override is supported")
	}

	ad, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Ad", id)
		}
		return nil, models.NewInternalError(err)
	}

	ad.StatusOverride = override
	if err := s.adRepo.Update(ctx, ad); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateAdSlot(ctx, ad.Slot)
	return s.view(ad), nil
}

// DeleteAd removes an ad placement.
func (s *AdService) DeleteAd(ctx context.Context, id uint) error {
	ad, err := s.adRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Ad", id)
		}
		return models.NewInternalError(err)
	}
	if err := s.adRepo.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidateAdSlot(ctx, ad.Slot)
	return nil
}

func (s *AdService) view(ad *models.Ad) *AdView {
	return &AdView{Ad: *ad, Status: ad.EffectiveStatus(s.now())}
}

func (s *AdService) views(ads []models.Ad) []AdView {
	now := s.now()
	out := make([]AdView, 0, len(ads))
	for i := range ads {
		out = append(out, AdView{Ad: ads[i], Status: ads[i].EffectiveStatus(now)})
	}
	return out
}
