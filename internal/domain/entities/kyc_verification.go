package entities

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// KYCStatus represents the lifecycle status of a verification
type KYCStatus string

const (
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusInProgress KYCStatus = "in_progress"
	KYCStatusCompleted  KYCStatus = "completed"
	KYCStatusRejected   KYCStatus = "rejected"
)

// KYCStep represents a step of the verification workflow
type KYCStep string

const (
	StepProfileSetup         KYCStep = "profile_setup"
	StepDocumentUpload       KYCStep = "document_upload"
	StepIdentityVerification KYCStep = "identity_verification"
	StepPhoneVerification    KYCStep = "phone_verification"
	StepFinalReview          KYCStep = "final_review"
)

// KYCStepOrder is the fixed completion order of the workflow
var KYCStepOrder = []KYCStep{
	StepProfileSetup,
	StepDocumentUpload,
	StepIdentityVerification,
	StepPhoneVerification,
	StepFinalReview,
}

// TotalKYCSteps is the number of steps a verification consists of
const TotalKYCSteps = 5

// IsValid reports whether s is a known workflow step
func (s KYCStep) IsValid() bool {
	for _, step := range KYCStepOrder {
		if s == step {
			return true
		}
	}
	return false
}

// NextStep returns the step following s in the workflow.
// The last step maps to itself.
func NextStep(s KYCStep) KYCStep {
	for i, step := range KYCStepOrder {
		if s == step && i < len(KYCStepOrder)-1 {
			return KYCStepOrder[i+1]
		}
	}
	return StepFinalReview
}

// CompletedStep records a finished workflow step
type CompletedStep struct {
	Step        KYCStep                `json:"step"`
	CompletedAt time.Time              `json:"completedAt"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Geolocation holds coarse location captured at KYC start
type Geolocation struct {
	Country   string  `json:"country,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// KYCMetadata holds request context captured at KYC start
type KYCMetadata struct {
	IPAddress         string       `json:"ipAddress,omitempty"`
	UserAgent         string       `json:"userAgent,omitempty"`
	Geolocation       *Geolocation `json:"geolocation,omitempty"`
	DeviceFingerprint string       `json:"deviceFingerprint,omitempty"`
}

// VerificationMethod indicates how identity evidence was verified
type VerificationMethod string

const (
	VerificationMethodManual    VerificationMethod = "manual"
	VerificationMethodAutomatic VerificationMethod = "automatic"
	VerificationMethodNFC       VerificationMethod = "nfc"
)

// NFCData holds chip data from a successful NFC read
type NFCData struct {
	DocumentNumber   string `json:"documentNumber"`
	DigitalSignature bool   `json:"digitalSignature"`
	CertificateValid bool   `json:"certificateValid"`
}

// ExtractedInfo holds identity fields extracted from the ID document
type ExtractedInfo struct {
	FullName       string     `json:"fullName,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Nationality    string     `json:"nationality,omitempty"`
	DocumentNumber string     `json:"documentNumber,omitempty"`
	ExpiryDate     *time.Time `json:"expiryDate,omitempty"`
	PlaceOfBirth   string     `json:"placeOfBirth,omitempty"`
}

// IdentityVerification is the identity evidence sub-record
type IdentityVerification struct {
	IDDocumentID       uuid.UUID          `json:"idDocumentId"`
	SelfieID           uuid.UUID          `json:"selfieId"`
	FaceMatchScore     int                `json:"faceMatchScore"`
	FaceMatchSimulated bool               `json:"faceMatchSimulated,omitempty"`
	NFCVerified        bool               `json:"nfcVerified"`
	NFCData            *NFCData           `json:"nfcData,omitempty"`
	ExtractedInfo      ExtractedInfo      `json:"extractedInfo"`
	VerificationMethod VerificationMethod `json:"verificationMethod"`
	VerifiedAt         time.Time          `json:"verifiedAt"`
}

// PhoneVerification is the phone-ownership challenge sub-record.
// The code itself is only ever stored as a hash and never serialized.
type PhoneVerification struct {
	PhoneNumber   string     `json:"phoneNumber"`
	CodeHash      string     `json:"-"`
	CodeExpiresAt *time.Time `json:"codeExpiresAt,omitempty"`
	IsVerified    bool       `json:"isVerified"`
	Attempts      int        `json:"attempts"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
}

// BusinessVerificationStatus for the business sub-record
type BusinessVerificationStatus string

const (
	BusinessVerificationPending  BusinessVerificationStatus = "pending"
	BusinessVerificationVerified BusinessVerificationStatus = "verified"
	BusinessVerificationRejected BusinessVerificationStatus = "rejected"
)

// BusinessVerification is the business evidence sub-record
type BusinessVerification struct {
	RegistrationDocumentID uuid.UUID                  `json:"registrationDocumentId"`
	BankStatementIDs       []uuid.UUID                `json:"bankStatementIds,omitempty"`
	RIB                    null.String                `json:"rib,omitempty"`
	Status                 BusinessVerificationStatus `json:"status"`
	VerifiedAt             *time.Time                 `json:"verifiedAt,omitempty"`
}

// RiskLevel is the categorical banding of a numeric score
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelVeryHigh RiskLevel = "very_high"
)

// Recommendation is the decision-engine output consumed by review
type Recommendation string

const (
	RecommendationApprove            Recommendation = "approve"
	RecommendationReview             Recommendation = "review"
	RecommendationConditionalApprove Recommendation = "conditional_approve"
	RecommendationReject             Recommendation = "reject"
)

// RiskFactor is one weighted component of a risk assessment
type RiskFactor struct {
	Factor      string  `json:"factor"`
	Weight      float64 `json:"weight"`
	Score       float64 `json:"score"`
	Description string  `json:"description,omitempty"`
}

// RiskAssessment is the composite KYC risk result
type RiskAssessment struct {
	Score          int            `json:"score"`
	Level          RiskLevel      `json:"level"`
	Factors        []RiskFactor   `json:"factors"`
	Recommendation Recommendation `json:"recommendation"`
	CalculatedAt   time.Time      `json:"calculatedAt"`
}

// KYCVerification is the per-user verification aggregate
type KYCVerification struct {
	ID                   uuid.UUID             `json:"id"`
	UserID               uuid.UUID             `json:"userId"`
	Status               KYCStatus             `json:"status"`
	CurrentStep          KYCStep               `json:"currentStep"`
	CompletedSteps       []CompletedStep       `json:"completedSteps"`
	IdentityVerification *IdentityVerification `json:"identityVerification,omitempty"`
	PhoneVerification    *PhoneVerification    `json:"phoneVerification,omitempty"`
	BusinessVerification *BusinessVerification `json:"businessVerification,omitempty"`
	RiskAssessment       *RiskAssessment       `json:"riskAssessment,omitempty"`
	Metadata             KYCMetadata           `json:"metadata"`
	RejectionReason      null.String           `json:"rejectionReason,omitempty"`
	CompletedAt          *time.Time            `json:"completedAt,omitempty"`
	ExpiresAt            time.Time             `json:"expiresAt"`
	CreatedAt            time.Time             `json:"createdAt"`
	UpdatedAt            time.Time             `json:"updatedAt"`
}

// IsActive reports whether the verification still accepts mutations
func (k *KYCVerification) IsActive() bool {
	return k.Status == KYCStatusPending || k.Status == KYCStatusInProgress
}

// IsStepCompleted reports whether the given step has been completed
func (k *KYCVerification) IsStepCompleted(step KYCStep) bool {
	for _, s := range k.CompletedSteps {
		if s.Step == step {
			return true
		}
	}
	return false
}

// Progress returns the completion percentage, computed from completed steps
func (k *KYCVerification) Progress() int {
	return int(math.Round(float64(len(k.CompletedSteps)) / TotalKYCSteps * 100))
}
