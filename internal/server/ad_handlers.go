package server

import (
	"time"

	"tutorhub/internal/models"
	"tutorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type adRequest struct {
	Title     string    `json:"title"`
	Slot      string    `json:"slot"`
	ImageURL  string    `json:"image_url"`
	TargetURL string    `json:"target_url"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

func (r adRequest) toInput() service.AdInput {
	return service.AdInput{
		Title:     r.Title,
		Slot:      r.Slot,
		ImageURL:  r.ImageURL,
		TargetURL: r.TargetURL,
		StartsAt:  r.StartsAt,
		EndsAt:    r.EndsAt,
	}
}

// GetActiveAds handles GET /api/ads/active (public)
func (s *Server) GetActiveAds(c *fiber.Ctx) error {
	slot := c.Query("slot")
	if slot == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("slot query parameter is required"))
	}

	ads, err := s.adService.ActiveAds(c.Context(), slot)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ads": ads})
}

// CreateAd handles POST /api/ads (admin)
func (s *Server) CreateAd(c *fiber.Ctx) error {
	var req adRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ad, err := s.adService.CreateAd(c.Context(), req.toInput())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ad)
}

// GetAds handles GET /api/ads (admin)
func (s *Server) GetAds(c *fiber.Ctx) error {
	p := parsePagination(c, 50)
	ads, err := s.adService.ListAds(c.Context(), c.Query("slot"), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"ads": ads})
}

// GetAd handles GET /api/ads/:id (admin)
func (s *Server) GetAd(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ad, err := s.adService.GetAd(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(ad)
}

// UpdateAd handles PUT /api/ads/:id (admin)
func (s *Server) UpdateAd(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req adRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ad, err := s.adService.UpdateAd(c.Context(), id, req.toInput())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(ad)
}

// SetAdOverride handles POST /api/ads/:id/override (admin)
func (s *Server) SetAdOverride(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Override models.AdStatus `json:"override"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ad, err := s.adService.SetOverride(c.Context(), id, req.Override)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(ad)
}

// DeleteAd handles DELETE /api/ads/:id (admin)
func (s *Server) DeleteAd(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.adService.DeleteAd(c.Context(), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
