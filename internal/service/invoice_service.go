package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorhub/internal/models"
	"tutorhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvoiceService provides billing business logic.
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	userRepo    repository.UserRepository

	now func() time.Time
}

// IssueInvoiceInput carries the fields needed to issue an invoice.
type IssueInvoiceInput struct {
	RecipientID uint
	AmountCents int64
	Currency    string
	DueInDays   int
}

// NewInvoiceService returns a new InvoiceService.
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, userRepo repository.UserRepository) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo, userRepo: userRepo, now: time.Now}
}

// invoiceNumber builds a unique human-readable invoice number.
func (s *InvoiceService) invoiceNumber(at time.Time) string {
	return fmt.Sprintf("INV-%s-%s", at.Format("200601"), uuid.New().String()[:8])
}

// IssueInvoice creates and immediately issues an invoice to a recipient.
func (s *InvoiceService) IssueInvoice(ctx context.Context, in IssueInvoiceInput) (*models.Invoice, error) {
	if _, err := s.userRepo.GetByID(ctx, in.RecipientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", in.RecipientID)
		}
		return nil, models.NewInternalError(err)
	}
	if in.AmountCents <= 0 {
		return nil, models.NewValidationError("Amount must be positive")
	}
	if len(in.Currency) != 3 {
		return nil, models.NewValidationError("Currency must be a 3-letter code")
	}
	if in.DueInDays <= 0 {
		in.DueInDays = 14
	}

	now := s.now()
	due := now.AddDate(0, 0, in.DueInDays)
	invoice := &models.Invoice{
		Number:      s.invoiceNumber(now),
		RecipientID: in.RecipientID,
		AmountCents: in.AmountCents,
		Currency:    in.Currency,
		Status:      models.InvoiceStatusIssued,
		IssuedAt:    &now,
		DueAt:       &due,
	}
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, models.NewInternalError(err)
	}
	return invoice, nil
}

// GetInvoice returns one invoice.
func (s *InvoiceService) GetInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Invoice", id)
		}
		return nil, models.NewInternalError(err)
	}
	return invoice, nil
}

// ListInvoices returns invoices, optionally filtered by status.
func (s *InvoiceService) ListInvoices(ctx context.Context, status models.InvoiceStatus, limit, offset int) ([]models.Invoice, error) {
	invoices, err := s.invoiceRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return invoices, nil
}

// ListInvoicesForRecipient returns a user's invoices, newest first.
func (s *InvoiceService) ListInvoicesForRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Invoice, error) {
	invoices, err := s.invoiceRepo.ListByRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return invoices, nil
}

// MarkPaid settles an issued invoice.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != models.InvoiceStatusIssued {
		return nil, models.NewConflictError("Only issued invoices can be paid")
	}

	now := s.now()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, models.NewInternalError(err)
	}
	return invoice, nil
}

// VoidInvoice cancels an invoice that has not been paid.
func (s *InvoiceService) VoidInvoice(ctx context.Context, id uint) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoiceStatusPaid {
		return nil, models.NewConflictError("A paid invoice cannot be voided")
	}
	if invoice.Status == models.InvoiceStatusVoid {
		return nil, models.NewConflictError("This invoice is already void")
	}

	invoice.Status = models.InvoiceStatusVoid
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, models.NewInternalError(err)
	}
	return invoice, nil
}
