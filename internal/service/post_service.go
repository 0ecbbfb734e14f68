package service

import (
	"context"
	"errors"
	"time"

	"tutorhub/internal/cache"
	"tutorhub/internal/models"
	"tutorhub/internal/repository"
	"tutorhub/internal/validation"

	"gorm.io/gorm"
)

// PostService provides post business logic: creation with code generation,
// browsing, and lifecycle (open/filled/closed).
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository

	now func() time.Time
}

// CreatePostInput carries the fields needed to create a post.
type CreatePostInput struct {
	OwnerID     uint
	Kind        models.PostKind
	Title       string
	Description string
}

// NewPostService returns a new PostService.
func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo, now: time.Now}
}

// CreatePost validates the owner and input, assigns the next post code for
// the day, and persists the post as open.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	owner, err := s.userRepo.GetByID(ctx, in.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", in.OwnerID)
		}
		return nil, models.NewInternalError(err)
	}
	if !owner.Role.IsOwner() && !owner.IsAdmin {
		return nil, models.NewForbiddenError("Only guardians and clients can create posts")
	}
	if in.Kind == models.PostKindTutoring && owner.Role == models.RoleClient {
		return nil, models.NewForbiddenError("Clients post freelance jobs, not tutoring requirements")
	}
	if in.Kind == models.PostKindFreelance && owner.Role == models.RoleGuardian {
		return nil, models.NewForbiddenError("Guardians post tutoring requirements, not freelance jobs")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if in.Kind != models.PostKindTutoring && in.Kind != models.PostKindFreelance {
		return nil, models.NewValidationError("Kind must be tutoring or freelance")
	}

	now := s.now()
	seq, err := s.postRepo.CountCreatedOn(ctx, now)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	post := &models.Post{
		Code:        validation.FormatPostCode(now, int(seq)),
		Kind:        in.Kind,
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     in.OwnerID,
		Status:      models.PostStatusOpen,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Two posts created in the same instant raced for the same
			// daily sequence number; take the next one.
			post.Code = validation.FormatPostCode(now, int(seq)+1)
			if err := s.postRepo.Create(ctx, post); err != nil {
				return nil, models.NewInternalError(err)
			}
			return post, nil
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// GetPost returns a post by numeric ID.
func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// GetPostByCode returns a post by its public code.
func (s *PostService) GetPostByCode(ctx context.Context, code string) (*models.Post, error) {
	if err := validation.ValidatePostCode(code); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	post, err := s.postRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", code)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// ListPosts returns posts filtered by kind and status, newest first.
func (s *PostService) ListPosts(ctx context.Context, kind models.PostKind, status models.PostStatus, limit, offset int) ([]models.Post, error) {
	posts, err := s.postRepo.List(ctx, kind, status, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// SearchPosts returns posts matching the query in title, description or code.
func (s *PostService) SearchPosts(ctx context.Context, query string, limit, offset int) ([]models.Post, error) {
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	posts, err := s.postRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// UpdatePost edits a post's title and description. Only the owner or an
// admin may edit, and filled posts are immutable.
func (s *PostService) UpdatePost(ctx context.Context, id, editorID uint, editorIsAdmin bool, title, description string) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != editorID && !editorIsAdmin {
		return nil, models.NewForbiddenError("Only the post owner can edit this post")
	}
	if post.Status == models.PostStatusFilled {
		return nil, models.NewConflictError("A filled post can no longer be edited")
	}

	if title != "" {
		post.Title = title
	}
	if description != "" {
		post.Description = description
	}
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, post.ID)
	return post, nil
}

// ClosePost closes an open post without choosing a winner.
func (s *PostService) ClosePost(ctx context.Context, id, actorID uint, actorIsAdmin bool) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.OwnerID != actorID && !actorIsAdmin {
		return nil, models.NewForbiddenError("Only the post owner can close this post")
	}
	if post.Status != models.PostStatusOpen {
		return nil, models.NewConflictError("Only open posts can be closed")
	}

	if err := s.postRepo.UpdateStatus(ctx, id, models.PostStatusClosed); err != nil {
		return nil, models.NewInternalError(err)
	}
	post.Status = models.PostStatusClosed

	cache.InvalidatePost(ctx, post.ID)
	return post, nil
}

// ListApplicants returns a post's ordered applicants list.
func (s *PostService) ListApplicants(ctx context.Context, postID uint) ([]models.PostApplicant, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	applicants, err := s.postRepo.ListApplicants(ctx, postID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return applicants, nil
}
