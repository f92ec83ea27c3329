package services

import (
	"context"
	"errors"

	"github.com/huangang/shiftledger/internal/models"
	"gorm.io/gorm"
)

// BillingService manages the payment details employees are invoiced against.
type BillingService struct {
	db *gorm.DB
}

func NewBillingService(db *gorm.DB) *BillingService {
	return &BillingService{db: db}
}

type BillingRequest struct {
	ABN           string `json:"abn" binding:"omitempty,numeric,len=11"`
	TFN           string `json:"tfn" binding:"omitempty,numeric,min=8,max=9"`
	BankName      string `json:"bank_name" binding:"max=100"`
	AccountNumber string `json:"account_number" binding:"omitempty,numeric,max=20"`
	BSB           string `json:"bsb" binding:"omitempty,numeric,len=6"`
}

// Get returns the user's billing details, or nil when none are stored.
func (s *BillingService) Get(ctx context.Context, userID uint) (*models.Billing, error) {
	var billing models.Billing
	err := s.db.WithContext(ctx).Preload("BankAccount").Where("user_id = ?", userID).First(&billing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistence("load billing", err)
	}
	return &billing, nil
}

// Upsert creates or replaces the user's billing details and bank account.
func (s *BillingService) Upsert(ctx context.Context, userID uint, req *BillingRequest) (*models.Billing, error) {
	var billing models.Billing
	err := models.WithTx(ctx, s.db, func(tx *gorm.DB) error {
		err := tx.Preload("BankAccount").Where("user_id = ?", userID).First(&billing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return persistence("load billing", err)
		}

		account := billing.BankAccount
		if account == nil {
			account = &models.BankAccount{}
		}
		account.BankName = req.BankName
		account.AccountNumber = req.AccountNumber
		account.BSB = req.BSB
		if err := tx.Save(account).Error; err != nil {
			return persistence("save bank account", err)
		}

		billing.UserID = userID
		billing.ABN = req.ABN
		billing.TFN = req.TFN
		billing.BankAccountID = &account.ID
		billing.BankAccount = account
		if err := tx.Omit("BankAccount").Save(&billing).Error; err != nil {
			return persistence("save billing", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &billing, nil
}
