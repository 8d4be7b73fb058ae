package repositories

import (
	"context"

	"github.com/google/uuid"

	"ekyc.backend/internal/domain/entities"
)

// KYCRepository defines KYC verification data access
type KYCRepository interface {
	Create(ctx context.Context, verification *entities.KYCVerification) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.KYCVerification, error)
	// GetActiveByUserID returns the user's pending or in_progress
	// verification, or ErrNotFound when none exists.
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error)
	// GetLatestByUserID returns the most recently created verification
	// for the user regardless of status.
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error)
	// GetCompletedByUserID returns the user's completed verification,
	// or ErrNotFound when the user never finished KYC.
	GetCompletedByUserID(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error)
	Update(ctx context.Context, verification *entities.KYCVerification) error
	// IncrementPhoneAttempts atomically bumps the phone challenge
	// attempt counter and returns the new value.
	IncrementPhoneAttempts(ctx context.Context, id uuid.UUID) (int, error)
	// ExpireVerifications marks active verifications past their
	// expiry as rejected and returns how many rows changed.
	ExpireVerifications(ctx context.Context) (int64, error)
}
