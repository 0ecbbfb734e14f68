package seed

import (
	"fmt"
	"log"
	"time"

	"tutorhub/internal/linkmark"
	"tutorhub/internal/models"

	"gorm.io/gorm"
)

// Seeder populates the database with a realistic marketplace: owners with
// open posts, candidates with applications in every lifecycle state, and a
// back-office with pending withdrawal requests.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder with default options.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, Options{})}
}

// NewSeederWithOptions creates a Seeder with explicit factory options.
func NewSeederWithOptions(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll removes all seeded data. Order respects foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	tables := []string{
		"admin_notifications",
		"declined_applications",
		"applications",
		"post_applicants",
		"invoices",
		"ads",
		"posts",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// SeedMarketplace creates numOwners post owners (split between guardians and
// clients), numCandidates candidates (split between teachers and
// freelancers), an admin account, and open posts with pending applications.
// It returns the created users grouped by side.
func (s *Seeder) SeedMarketplace(numOwners, numCandidates int) ([]*models.User, []*models.User, error) {
	log.Printf("Seeding %d owners and %d candidates...", numOwners, numCandidates)

	if _, err := s.factory.CreateUser(models.RoleGuardian, func(u *models.User) {
		u.Email = "admin@tutorhub.dev"
		u.DisplayName = "Platform Admin"
		u.Role = models.RoleAdmin
		u.IsAdmin = true
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to create admin: %w", err)
	}

	owners := make([]*models.User, 0, numOwners)
	for i := 0; i < numOwners; i++ {
		role := models.RoleGuardian
		if i%2 == 1 {
			role = models.RoleClient
		}
		u, err := s.factory.CreateUser(role)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create owner: %w", err)
		}
		owners = append(owners, u)
	}

	candidates := make([]*models.User, 0, numCandidates)
	for i := 0; i < numCandidates; i++ {
		role := models.RoleTeacher
		if i%2 == 1 {
			role = models.RoleFreelancer
		}
		u, err := s.factory.CreateUser(role)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create candidate: %w", err)
		}
		candidates = append(candidates, u)
	}

	log.Printf("Created %d owners, %d candidates", len(owners), len(candidates))
	return owners, candidates, nil
}

// SeedPosts creates numPosts open posts spread across the owners and files
// pending applications from role-compatible candidates.
func (s *Seeder) SeedPosts(owners, candidates []*models.User, numPosts int) ([]*models.Post, error) {
	if len(owners) == 0 {
		return nil, fmt.Errorf("no owners to seed posts for")
	}

	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		owner := owners[i%len(owners)]
		post, err := s.factory.CreatePost(owner)
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)

		for _, candidate := range eligible(candidates, post.Kind) {
			if s.factory.rng.Intn(3) != 0 {
				continue
			}
			if _, err := s.factory.CreateApplication(post, candidate); err != nil {
				return nil, fmt.Errorf("failed to create application: %w", err)
			}
		}
	}

	log.Printf("Created %d posts", len(posts))
	return posts, nil
}

// eligible filters candidates to those whose role matches the post kind.
func eligible(candidates []*models.User, kind models.PostKind) []*models.User {
	want := models.RoleTeacher
	if kind == models.PostKindFreelance {
		want = models.RoleFreelancer
	}
	out := make([]*models.User, 0, len(candidates))
	for _, c := range candidates {
		if c.Role == want {
			out = append(out, c)
		}
	}
	return out
}

// SeedLifecycle walks some posts through the full application lifecycle so
// the seeded database carries filled posts, archived declines, and pending
// withdrawal requests.
func (s *Seeder) SeedLifecycle(posts []*models.Post) error {
	filled, withdrawals := 0, 0
	for i, post := range posts {
		var apps []models.Application
		if err := s.db.Where("post_id = ? AND status = ?", post.ID, models.ApplicationStatusPending).
			Find(&apps).Error; err != nil {
			return err
		}
		if len(apps) == 0 {
			continue
		}

		switch i % 3 {
		case 0:
			if err := s.approveFirst(post, apps); err != nil {
				return err
			}
			filled++
		case 1:
			if err := s.requestWithdrawal(&apps[0]); err != nil {
				return err
			}
			withdrawals++
		}
	}
	log.Printf("Lifecycle pass: %d posts filled, %d withdrawal requests", filled, withdrawals)
	return nil
}

// approveFirst marks the first application approved and archives the rest
// as auto-declined, mirroring what the approve cascade produces.
func (s *Seeder) approveFirst(post *models.Post, apps []models.Application) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		winner := apps[0]
		now := time.Now()
		reason := fmt.Sprintf("The position for %s has been filled by another candidate.",
			linkmark.Format(post.ID, post.Title))

		for _, loser := range apps[1:] {
			archived := models.DeclinedApplication{
				OriginalApplicationID: loser.ID,
				PostID:                loser.PostID,
				CandidateID:           loser.CandidateID,
				CandidateRole:         loser.CandidateRole,
				Status:                models.ApplicationStatusDeclined,
				AppliedAt:             loser.AppliedAt,
				DeclinedAt:            now,
				DeclineReason:         reason,
				AutoDeclined:          true,
			}
			if err := tx.Create(&archived).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Application{}, loser.ID).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Application{}).Where("id = ?", winner.ID).
			Update("status", models.ApplicationStatusApproved).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			Update("status", models.PostStatusFilled).Error
	})
}

// requestWithdrawal puts one application into the withdrawal-requested state
// with a matching pending admin notification.
func (s *Seeder) requestWithdrawal(app *models.Application) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Application{}).Where("id = ?", app.ID).Updates(map[string]interface{}{
			"status":                  models.ApplicationStatusWithdrawalRequested,
			"previous_status":         app.Status,
			"withdrawal_requested_at": now,
			"withdrawal_requested_by": app.CandidateID,
			"withdrawal_note":         "Schedule conflict, sorry.",
		}).Error; err != nil {
			return err
		}

		var candidate models.User
		if err := tx.First(&candidate, app.CandidateID).Error; err != nil {
			return err
		}
		notification := models.AdminNotification{
			Type:          models.NotificationTypeWithdrawalRequest,
			ApplicationID: app.ID,
			CandidateID:   app.CandidateID,
			CandidateName: candidate.DisplayName,
			PostID:        app.PostID,
			Note:          "Schedule conflict, sorry.",
			Status:        models.NotificationStatusPending,
			RequestedAt:   now,
		}
		return tx.Create(&notification).Error
	})
}

// SeedBilling issues a couple of invoices per owner and schedules demo ads.
func (s *Seeder) SeedBilling(owners []*models.User, numAds int) error {
	for _, owner := range owners {
		if _, err := s.factory.CreateInvoice(owner); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}
	}
	for i := 0; i < numAds; i++ {
		if _, err := s.factory.CreateAd(); err != nil {
			return fmt.Errorf("failed to create ad: %w", err)
		}
	}
	log.Printf("Created %d invoices and %d ads", len(owners), numAds)
	return nil
}
