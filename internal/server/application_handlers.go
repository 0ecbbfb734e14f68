package server

import (
	"tutorhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ApplyToPost handles POST /api/posts/:id/applications
// @Summary Apply to a post
// @Description Create a pending application for the authenticated candidate
// @Tags applications
// @Produce json
// @Success 201 {object} models.Application
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/applications [post]
func (s *Server) ApplyToPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	candidate := models.CandidateRef{
		CandidateID: currentUserID(c),
		Role:        currentRole(c),
	}
	app, err := s.applicationService.Apply(c.Context(), postID, candidate)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// GetPostApplications handles GET /api/posts/:id/applications.
// Only the post owner or an admin may see a post's applications.
func (s *Server) GetPostApplications(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	if post.OwnerID != currentUserID(c) && !callerIsAdmin(c) {
		return respondServiceError(c,
			models.NewForbiddenError("Only the post owner can list applications"))
	}

	var statuses []models.ApplicationStatus
	if status := c.Query("status"); status != "" {
		statuses = append(statuses, models.ApplicationStatus(status))
	}
	apps, err := s.applicationService.ListByPost(c.Context(), postID, statuses...)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"applications": apps})
}

// GetApplication handles GET /api/applications/:id.
// Visible to the candidate, the post owner, and admins.
func (s *Server) GetApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.applicationService.GetApplication(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	userID := currentUserID(c)
	if app.CandidateID != userID && app.Post.OwnerID != userID && !callerIsAdmin(c) {
		return respondServiceError(c,
			models.NewForbiddenError("You cannot view this application"))
	}
	return c.JSON(app)
}

// GetMyApplications handles GET /api/applications/me
func (s *Server) GetMyApplications(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	apps, err := s.applicationService.ListByCandidate(c.Context(), currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"applications": apps})
}

// ApproveApplication handles POST /api/applications/:id/approve
// @Summary Approve an application
// @Description Approve one application and auto-decline every other pending application for the post
// @Tags applications
// @Produce json
// @Success 200 {object} models.Application
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /applications/{id}/approve [post]
func (s *Server) ApproveApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.applicationService.Approve(c.Context(), id, currentUserID(c), callerIsAdmin(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// DeclineApplication handles POST /api/applications/:id/decline
func (s *Server) DeclineApplication(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.applicationService.Decline(c.Context(), id, currentUserID(c), callerIsAdmin(c), req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// RequestWithdrawal handles POST /api/applications/:id/withdrawal
func (s *Server) RequestWithdrawal(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.applicationService.RequestWithdrawal(c.Context(), id, currentUserID(c), req.Note)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// ApproveWithdrawal handles POST /api/applications/:id/withdrawal/approve
func (s *Server) ApproveWithdrawal(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.applicationService.ApproveWithdrawal(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// DeclineWithdrawal handles POST /api/applications/:id/withdrawal/decline
func (s *Server) DeclineWithdrawal(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	app, err := s.applicationService.DeclineWithdrawal(c.Context(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(app)
}

// GetDeclinedApplications handles GET /api/applications/declined?post_id=
func (s *Server) GetDeclinedApplications(c *fiber.Ctx) error {
	postID := c.QueryInt("post_id")
	if postID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("post_id query parameter is required"))
	}

	rows, err := s.applicationService.ListDeclinedByPost(c.Context(), uint(postID))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"declined_applications": rows})
}
