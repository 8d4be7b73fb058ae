package entities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompleteStepInput advances the KYC workflow by one step
type CompleteStepInput struct {
	Step KYCStep                `json:"step" binding:"required"`
	Data map[string]interface{} `json:"data"`
}

// VerifyIdentityInput submits identity evidence for verification
type VerifyIdentityInput struct {
	IDDocumentID uuid.UUID `json:"idDocumentId" binding:"required"`
	SelfieID     uuid.UUID `json:"selfieId" binding:"required"`
}

// SendPhoneCodeInput requests an SMS challenge
type SendPhoneCodeInput struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// VerifyPhoneCodeInput answers an SMS challenge
type VerifyPhoneCodeInput struct {
	Code string `json:"code" binding:"required"`
}

// KYCStatusResponse wraps the verification with derived progress
type KYCStatusResponse struct {
	Verification *KYCVerification `json:"verification"`
	Progress     int              `json:"progress"`
}

// CreateApplicationInput opens a new credit application
type CreateApplicationInput struct {
	RequestedAmount decimal.Decimal `json:"requestedAmount" binding:"required"`
	Purpose         LoanPurpose     `json:"purpose" binding:"required"`
}

// UpdateApplicationStepInput advances an application milestone
type UpdateApplicationStepInput struct {
	Step string                 `json:"step" binding:"required"`
	Data map[string]interface{} `json:"data"`
}

// PreliminaryScoreInput carries self-reported data for a
// no-commitment score estimate
type PreliminaryScoreInput struct {
	Business  *BusinessInfo  `json:"business"`
	Financial *FinancialData `json:"financial" binding:"required"`
}
