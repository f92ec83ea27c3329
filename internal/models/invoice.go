package models

import "time"

const (
	InvoiceStatusPaid   = "PAID"
	InvoiceStatusUnpaid = "UNPAID"
	InvoiceStatusDraft  = "DRAFT"
)

// Invoice bills a user's completed shifts for a period. Amounts are in cents.
type Invoice struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	UserID      uint             `gorm:"uniqueIndex:idx_invoice_user_number;index:idx_invoice_user_period;not null" json:"user_id"`
	User        *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Number      int              `gorm:"uniqueIndex:idx_invoice_user_number;not null" json:"number"`
	PeriodFrom  time.Time        `gorm:"index:idx_invoice_user_period;not null" json:"from"`
	PeriodTo    time.Time        `gorm:"index:idx_invoice_user_period;not null" json:"to"`
	AmountCents int64            `gorm:"not null" json:"amount_cents"`
	Status      string           `gorm:"size:20;default:PAID" json:"status"`
	Shifts      []CompletedShift `gorm:"many2many:invoice_shifts;" json:"shifts,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }
