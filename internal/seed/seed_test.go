package seed

import (
	"testing"

	"tutorhub/internal/database"
	"tutorhub/internal/linkmark"
	"tutorhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestSeedMarketplaceCreatesRolesAndAdmin(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeederWithOptions(db, Options{SkipBcrypt: true, MaxDays: 30})

	owners, candidates, err := s.SeedMarketplace(4, 6)
	require.NoError(t, err)
	assert.Len(t, owners, 4)
	assert.Len(t, candidates, 6)

	var total int64
	require.NoError(t, db.Model(&models.User{}).Count(&total).Error)
	assert.Equal(t, int64(11), total) // owners + candidates + admin

	var admin models.User
	require.NoError(t, db.Where("is_admin = ?", true).First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	for _, o := range owners {
		assert.True(t, o.Role.IsOwner(), "owner %d has role %s", o.ID, o.Role)
	}
	for _, c := range candidates {
		assert.True(t, c.Role.IsCandidate(), "candidate %d has role %s", c.ID, c.Role)
	}
}

func TestSeedPostsMatchesKindToOwnerAndCandidates(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeederWithOptions(db, Options{SkipBcrypt: true, MaxDays: 30})

	owners, candidates, err := s.SeedMarketplace(2, 8)
	require.NoError(t, err)

	posts, err := s.SeedPosts(owners, candidates, 6)
	require.NoError(t, err)
	require.Len(t, posts, 6)

	for _, post := range posts {
		if post.Kind == models.PostKindFreelance {
			assert.NotEqual(t, uint(0), post.OwnerID)
		}
		assert.Equal(t, models.PostStatusOpen, post.Status)
		assert.NotEmpty(t, post.Code)

		var apps []models.Application
		require.NoError(t, db.Where("post_id = ?", post.ID).Find(&apps).Error)
		for _, app := range apps {
			if post.Kind == models.PostKindTutoring {
				assert.Equal(t, models.RoleTeacher, app.CandidateRole)
			} else {
				assert.Equal(t, models.RoleFreelancer, app.CandidateRole)
			}
		}
	}
}

func TestSeedLifecycleFillsPostsAndArchivesLosers(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeederWithOptions(db, Options{SkipBcrypt: true, MaxDays: 30})

	owners, candidates, err := s.SeedMarketplace(3, 12)
	require.NoError(t, err)
	posts, err := s.SeedPosts(owners, candidates, 9)
	require.NoError(t, err)

	require.NoError(t, s.SeedLifecycle(posts))

	var filled []models.Post
	require.NoError(t, db.Where("status = ?", models.PostStatusFilled).Find(&filled).Error)
	for _, post := range filled {
		var pending int64
		require.NoError(t, db.Model(&models.Application{}).
			Where("post_id = ? AND status = ?", post.ID, models.ApplicationStatusPending).
			Count(&pending).Error)
		assert.Zero(t, pending, "filled post %d still has pending applications", post.ID)

		var archived []models.DeclinedApplication
		require.NoError(t, db.Where("post_id = ?", post.ID).Find(&archived).Error)
		for _, d := range archived {
			assert.True(t, d.AutoDeclined)
			assert.True(t, linkmark.ContainsLink(d.DeclineReason, post.ID))
		}
	}

	var requests int64
	require.NoError(t, db.Model(&models.Application{}).
		Where("status = ?", models.ApplicationStatusWithdrawalRequested).
		Count(&requests).Error)
	var notifications int64
	require.NoError(t, db.Model(&models.AdminNotification{}).
		Where("status = ?", models.NotificationStatusPending).
		Count(&notifications).Error)
	assert.Equal(t, requests, notifications, "every withdrawal request should have one pending notification")
}

func TestSeedBillingAndClearAll(t *testing.T) {
	db := setupTestDB(t)
	s := NewSeederWithOptions(db, Options{SkipBcrypt: true})

	owners, _, err := s.SeedMarketplace(3, 2)
	require.NoError(t, err)
	require.NoError(t, s.SeedBilling(owners, 4))

	var invoices, ads int64
	require.NoError(t, db.Model(&models.Invoice{}).Count(&invoices).Error)
	require.NoError(t, db.Model(&models.Ad{}).Count(&ads).Error)
	assert.Equal(t, int64(3), invoices)
	assert.Equal(t, int64(4), ads)

	require.NoError(t, s.ClearAll())
	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users)
}
