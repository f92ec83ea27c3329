package models

import "time"

type BankAccount struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	BankName      string `gorm:"size:100" json:"bank_name"`
	AccountNumber string `gorm:"size:50" json:"account_number"`
	BSB           string `gorm:"size:20" json:"bsb"`
}

func (BankAccount) TableName() string { return "bank_accounts" }

// Billing holds the payment details an employee is invoiced against.
type Billing struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	UserID        uint         `gorm:"uniqueIndex;not null" json:"user_id"`
	ABN           string       `gorm:"size:20" json:"abn"`
	TFN           string       `gorm:"size:20" json:"tfn"`
	BankAccountID *uint        `json:"bank_account_id,omitempty"`
	BankAccount   *BankAccount `gorm:"foreignKey:BankAccountID" json:"bank_account,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Billing) TableName() string { return "billings" }
