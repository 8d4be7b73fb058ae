package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// KYCVerification persists the verification aggregate. Sub-records
// are stored as jsonb columns. The phone attempt counter lives in
// its own column so it can be incremented atomically.
type KYCVerification struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;index"`
	Status               string    `gorm:"type:varchar(50);not null;index"`
	CurrentStep          string    `gorm:"type:varchar(50);not null"`
	CompletedSteps       string    `gorm:"type:jsonb"`
	IdentityVerification string    `gorm:"type:jsonb"`
	PhoneVerification    string    `gorm:"type:jsonb"`
	PhoneAttempts        int       `gorm:"default:0"`
	BusinessVerification string    `gorm:"type:jsonb"`
	RiskAssessment       string    `gorm:"type:jsonb"`
	Metadata             string    `gorm:"type:jsonb"`
	RejectionReason      string    `gorm:"type:text"`
	CompletedAt          *time.Time
	ExpiresAt            time.Time `gorm:"not null;index"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (KYCVerification) TableName() string {
	return "kyc_verifications"
}
