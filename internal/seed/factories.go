// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"tutorhub/internal/models"
	"tutorhub/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options tunes seeding behaviour.
type Options struct {
	// SkipBcrypt stores a plaintext marker instead of a real hash. Dev
	// fast mode only; such accounts cannot log in.
	SkipBcrypt bool
	// MaxDays spreads created_at timestamps over this many days back.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and by integration tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand

	// per-day sequence counters for post codes
	codeSeq map[string]int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:      db,
		opts:    opts,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		codeSeq: make(map[string]int),
	}
}

// pastTime returns a timestamp spread over the configured window.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour -
		time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample user with the given role.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(role models.Role, overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.Name(),
		Role:        role,
	}

	if f.opts.SkipBcrypt {
		user.PasswordHash = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.PasswordHash = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

var tutoringSubjects = []string{
	"Mathematics", "Physics", "Chemistry", "Biology", "English",
	"History", "Geography", "Computer Science", "Economics", "French",
}

var freelanceGigs = []string{
	"Landing page build", "Logo redesign", "API integration",
	"Copywriting for product launch", "Mobile app prototype",
	"Data entry cleanup", "SEO audit", "Newsletter template",
}

// CreatePost constructs and persists an open post owned by the given user.
// The kind follows the owner's role: guardians get tutoring posts, clients
// get freelance posts.
func (f *Factory) CreatePost(owner *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	createdAt := f.pastTime()

	post := &models.Post{
		OwnerID:   owner.ID,
		Status:    models.PostStatusOpen,
		CreatedAt: createdAt,
	}
	if owner.Role == models.RoleClient {
		post.Kind = models.PostKindFreelance
		post.Title = freelanceGigs[f.rng.Intn(len(freelanceGigs))]
	} else {
		post.Kind = models.PostKindTutoring
		subject := tutoringSubjects[f.rng.Intn(len(tutoringSubjects))]
		post.Title = fmt.Sprintf("%s tutor needed, %d sessions/week", subject, 1+f.rng.Intn(3))
	}
	post.Description = gofakeit.Paragraph(1, 3, 8, "\n")

	day := createdAt.Format("020106")
	post.Code = validation.FormatPostCode(createdAt, f.codeSeq[day])
	f.codeSeq[day]++

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateApplication persists a pending application from candidate to post,
// plus the matching applicants-list entry.
func (f *Factory) CreateApplication(post *models.Post, candidate *models.User, overrides ...func(*models.Application)) (*models.Application, error) {
	app := &models.Application{
		PostID:        post.ID,
		CandidateID:   candidate.ID,
		CandidateRole: candidate.Role,
		Status:        models.ApplicationStatusPending,
		AppliedAt:     f.pastTime(),
	}

	for _, override := range overrides {
		override(app)
	}

	if err := f.db.Create(app).Error; err != nil {
		return nil, err
	}

	var position int64
	if err := f.db.Model(&models.PostApplicant{}).Where("post_id = ?", post.ID).Count(&position).Error; err != nil {
		return nil, err
	}
	entry := &models.PostApplicant{
		PostID:        post.ID,
		CandidateID:   candidate.ID,
		CandidateRole: candidate.Role,
		Position:      int(position),
	}
	if err := f.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return app, nil
}

// CreateInvoice persists an issued invoice billed to the given user.
func (f *Factory) CreateInvoice(recipient *models.User, overrides ...func(*models.Invoice)) (*models.Invoice, error) {
	issued := f.pastTime()
	due := issued.AddDate(0, 0, 14)
	invoice := &models.Invoice{
		Number:      fmt.Sprintf("INV-%s-%s", issued.Format("200601"), gofakeit.UUID()[:8]),
		RecipientID: recipient.ID,
		AmountCents: int64(gofakeit.Number(1000, 50000)),
		Currency:    "GBP",
		Status:      models.InvoiceStatusIssued,
		IssuedAt:    &issued,
		DueAt:       &due,
	}

	for _, override := range overrides {
		override(invoice)
	}

	if err := f.db.Create(invoice).Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

var adSlots = []string{"home-banner", "search-sidebar", "post-footer"}

// CreateAd persists an ad placement currently inside its display window.
func (f *Factory) CreateAd(overrides ...func(*models.Ad)) (*models.Ad, error) {
	ad := &models.Ad{
		Title:     gofakeit.Company() + " - " + gofakeit.Slogan(),
		Slot:      adSlots[f.rng.Intn(len(adSlots))],
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/600/200", gofakeit.UUID()),
		TargetURL: gofakeit.URL(),
		StartsAt:  time.Now().Add(-24 * time.Hour),
		EndsAt:    time.Now().Add(14 * 24 * time.Hour),
	}

	for _, override := range overrides {
		override(ad)
	}

	if err := f.db.Create(ad).Error; err != nil {
		return nil, err
	}
	return ad, nil
}
