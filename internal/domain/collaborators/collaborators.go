// Package collaborators defines the external services the KYC and
// credit workflows depend on. Implementations live under
// internal/infrastructure/collaborators.
package collaborators

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ekyc.backend/internal/domain/entities"
)

// Document is the document-service view the workflows need: review
// metadata, the stored image path and the OCR output.
type Document struct {
	ID            uuid.UUID              `json:"id"`
	Type          string                 `json:"type"`
	Status        string                 `json:"status"`
	Path          string                 `json:"path"`
	MimeType      string                 `json:"mimeType,omitempty"`
	ExtractedData *DocumentExtractedData `json:"extractedData,omitempty"`
	UploadedAt    time.Time              `json:"uploadedAt"`
}

// DocumentExtractedData is the OCR pass output stored with an
// identity document. Dates are ISO 8601 day strings.
type DocumentExtractedData struct {
	FullName       string `json:"fullName,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	ExpiryDate     string `json:"expiryDate,omitempty"`
	PlaceOfBirth   string `json:"placeOfBirth,omitempty"`
}

// DocumentStats summarizes a user's uploaded documents
type DocumentStats struct {
	Total         int `json:"total"`
	Verified      int `json:"verified"`
	RequiredTypes int `json:"requiredTypes"`
}

// DocumentService exposes the document microservice
type DocumentService interface {
	GetDocument(ctx context.Context, userID, documentID uuid.UUID) (*Document, error)
	UpdateStatus(ctx context.Context, userID, documentID uuid.UUID, status string) error
	GetStats(ctx context.Context, userID uuid.UUID) (*DocumentStats, error)
}

// UserProfile is the profile-service view of a user
type UserProfile struct {
	UserID      uuid.UUID              `json:"userId"`
	FullName    string                 `json:"fullName"`
	PhoneNumber string                 `json:"phoneNumber,omitempty"`
	Business    *entities.BusinessInfo `json:"business,omitempty"`
}

// UserProfileService exposes the user-profile microservice.
// The update calls are write-backs of workflow outcomes; callers
// treat their failures as non-fatal.
type UserProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	UpdateVerificationStatus(ctx context.Context, userID uuid.UUID, phoneVerified bool) error
	UpdateKYCStatus(ctx context.Context, userID uuid.UUID, status string, score int) error
}

// SMSResult is the provider acknowledgment for a sent message
type SMSResult struct {
	MessageID string `json:"messageId"`
	Simulated bool   `json:"simulated"`
}

// SMSSender delivers verification codes over SMS
type SMSSender interface {
	SendVerificationCode(ctx context.Context, phoneNumber, code string) (*SMSResult, error)
}

// FaceMatchResult is the biometric comparison outcome
type FaceMatchResult struct {
	Score     int  `json:"score"`
	Match     bool `json:"match"`
	Simulated bool `json:"simulated"`
}

// FaceMatcher compares an ID document photo against a selfie, both
// addressed by their stored image paths
type FaceMatcher interface {
	Compare(ctx context.Context, idDocumentPath, selfiePath string) (*FaceMatchResult, error)
}

// NFCResult is the chip read outcome
type NFCResult struct {
	Verified         bool   `json:"verified"`
	DocumentNumber   string `json:"documentNumber,omitempty"`
	DigitalSignature bool   `json:"digitalSignature"`
	CertificateValid bool   `json:"certificateValid"`
}

// NFCVerifier validates an identity document chip
type NFCVerifier interface {
	Verify(ctx context.Context, userID, idDocumentID uuid.UUID) (*NFCResult, error)
}

// BankConnectionResult is the outcome of an open-banking link attempt
type BankConnectionResult struct {
	Connected         bool   `json:"connected"`
	BankName          string `json:"bankName"`
	AccountsConnected int    `json:"accountsConnected"`
	DataQuality       int    `json:"dataQuality"`
	FailureReason     string `json:"failureReason,omitempty"`
}

// BankConnector links a user's bank accounts and fetches their
// financial snapshot once connected
type BankConnector interface {
	Connect(ctx context.Context, userID uuid.UUID, bankName string) (*BankConnectionResult, error)
	FetchFinancialData(ctx context.Context, userID uuid.UUID) (*entities.FinancialData, error)
}
