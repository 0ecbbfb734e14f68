package models

import (
	"time"
)

// InvoiceStatus represents the billing state of an invoice.
type InvoiceStatus string

const (
	// InvoiceStatusDraft has not been issued yet.
	InvoiceStatusDraft InvoiceStatus = "draft"
	// InvoiceStatusIssued awaits payment.
	InvoiceStatusIssued InvoiceStatus = "issued"
	// InvoiceStatusPaid has been settled.
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusVoid was cancelled and is no longer payable.
	InvoiceStatusVoid InvoiceStatus = "void"
)

// Invoice bills a guardian or client for platform services.
type Invoice struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Number      string        `gorm:"uniqueIndex;not null" json:"number"`
	RecipientID uint          `gorm:"not null;index" json:"recipient_id"`
	Recipient   User          `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	AmountCents int64         `gorm:"not null" json:"amount_cents"`
	Currency    string        `gorm:"type:varchar(3);not null" json:"currency"`
	Status      InvoiceStatus `gorm:"type:varchar(20);default:'draft';index" json:"status"`
	IssuedAt    *time.Time    `json:"issued_at,omitempty"`
	DueAt       *time.Time    `json:"due_at,omitempty"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}
