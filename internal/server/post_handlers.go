package server

import (
	"tutorhub/internal/models"
	"tutorhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary Browse posts
// @Description List posts, optionally filtered by kind and status
// @Tags posts
// @Produce json
// @Param kind query string false "tutoring or freelance"
// @Param status query string false "open, filled or closed"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} object{posts=[]models.Post}
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	kind := models.PostKind(c.Query("kind"))
	status := models.PostStatus(c.Query("status"))

	posts, err := s.postService.ListPosts(c.Context(), kind, status, p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// SearchPosts handles GET /api/posts/search
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	posts, err := s.postService.SearchPosts(c.Context(), c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// GetPostByCode handles GET /api/posts/code/:code
func (s *Server) GetPostByCode(c *fiber.Ctx) error {
	post, err := s.postService.GetPostByCode(c.Context(), c.Params("code"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Create a tutoring requirement or freelance job posting
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{kind=string,title=string,description=string} true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Kind        models.PostKind `json:"kind"`
		Title       string          `json:"title"`
		Description string          `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		OwnerID:     currentUserID(c),
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), id, currentUserID(c), callerIsAdmin(c), req.Title, req.Description)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// ClosePost handles POST /api/posts/:id/close
func (s *Server) ClosePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.ClosePost(c.Context(), id, currentUserID(c), callerIsAdmin(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// GetPostApplicants handles GET /api/posts/:id/applicants
func (s *Server) GetPostApplicants(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	applicants, err := s.postService.ListApplicants(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"applicants": applicants})
}
