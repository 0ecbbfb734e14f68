package service

import (
	"context"
	"testing"
	"time"

	"tutorhub/internal/models"
	"tutorhub/internal/validation"
)

func guardianUser(id uint) *models.User {
	return &models.User{ID: id, Role: models.RoleGuardian, DisplayName: "Pat"}
}

func TestCreatePostGeneratesDailyCode(t *testing.T) {
	posts := noopPostRepo()
	users := noopUserRepo()
	users.getByIDFn = func(context.Context, uint) (*models.User, error) { return guardianUser(1), nil }
	posts.countCreatedOnFn = func(context.Context, time.Time) (int64, error) { return 4, nil }

	var created *models.Post
	posts.createFn = func(_ context.Context, post *models.Post) error {
		created = post
		return nil
	}

	svc := NewPostService(posts, users)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) }

	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		OwnerID: 1,
		Kind:    models.PostKindTutoring,
		Title:   "Algebra tutoring",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || post.Code != "P-010125-04" {
		t.Fatalf("expected code P-010125-04, got %q", post.Code)
	}
	if err := validation.ValidatePostCode(post.Code); err != nil {
		t.Fatalf("generated code must validate: %v", err)
	}
	if post.Status != models.PostStatusOpen {
		t.Fatalf("new posts open, got %s", post.Status)
	}
}

func TestCreatePostKindMustMatchOwnerRole(t *testing.T) {
	posts := noopPostRepo()
	users := noopUserRepo()
	users.getByIDFn = func(context.Context, uint) (*models.User, error) {
		return &models.User{ID: 1, Role: models.RoleClient}, nil
	}

	svc := NewPostService(posts, users)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		OwnerID: 1,
		Kind:    models.PostKindTutoring,
		Title:   "Algebra tutoring",
	})
	assertAppErrCode(t, err, "FORBIDDEN")
}

func TestCreatePostCandidatesCannotPost(t *testing.T) {
	posts := noopPostRepo()
	users := noopUserRepo()
	users.getByIDFn = func(context.Context, uint) (*models.User, error) {
		return &models.User{ID: 1, Role: models.RoleTeacher}, nil
	}

	svc := NewPostService(posts, users)
	_, err := svc.CreatePost(context.Background(), CreatePostInput{
		OwnerID: 1,
		Kind:    models.PostKindTutoring,
		Title:   "Algebra tutoring",
	})
	assertAppErrCode(t, err, "FORBIDDEN")
}

func TestGetPostByCodeRejectsMalformedCode(t *testing.T) {
	svc := NewPostService(noopPostRepo(), noopUserRepo())
	_, err := svc.GetPostByCode(context.Background(), "P-991399-00")
	assertAppErrCode(t, err, "VALIDATION_ERROR")
}

func TestUpdatePostOnlyOwner(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(context.Context, uint) (*models.Post, error) {
		return openTutoringPost(7, 1), nil
	}

	svc := NewPostService(posts, noopUserRepo())
	_, err := svc.UpdatePost(context.Background(), 7, 42, false, "New title", "")
	assertAppErrCode(t, err, "FORBIDDEN")

	if _, err := svc.UpdatePost(context.Background(), 7, 42, true, "New title", ""); err != nil {
		t.Fatalf("admins may edit any post: %v", err)
	}
}

func TestClosePostRequiresOpenStatus(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(context.Context, uint) (*models.Post, error) {
		post := openTutoringPost(7, 1)
		post.Status = models.PostStatusFilled
		return post, nil
	}

	svc := NewPostService(posts, noopUserRepo())
	_, err := svc.ClosePost(context.Background(), 7, 1, false)
	assertAppErrCode(t, err, "CONFLICT")
}
