package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreditApplication persists the credit request aggregate
type CreditApplication struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;index"`
	ApplicationNumber    string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	Status               string    `gorm:"type:varchar(50);not null;index"`
	Progress             int       `gorm:"default:0"`
	RequestedAmount      string    `gorm:"type:decimal(18,2);not null"`
	Purpose              string    `gorm:"type:varchar(50);not null"`
	BankConnection       string    `gorm:"type:jsonb"`
	FinancialAnalysis    string    `gorm:"type:jsonb"`
	IdentityVerification string    `gorm:"type:jsonb"`
	CreditScoring        string    `gorm:"type:jsonb"`
	Decision             string    `gorm:"type:jsonb"`
	SubmittedAt          *time.Time
	ReviewedAt           *time.Time
	ExpiresAt            time.Time `gorm:"not null;index"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (CreditApplication) TableName() string {
	return "credit_applications"
}
