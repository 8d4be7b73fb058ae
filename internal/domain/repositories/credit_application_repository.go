package repositories

import (
	"context"

	"github.com/google/uuid"

	"ekyc.backend/internal/domain/entities"
	"ekyc.backend/pkg/utils"
)

// CreditApplicationRepository defines credit application data access
type CreditApplicationRepository interface {
	// Create persists a new application and assigns its sequential
	// application number inside the same transaction.
	Create(ctx context.Context, application *entities.CreditApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.CreditApplication, error)
	// GetByIDAndUser scopes the lookup to the owning user
	GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*entities.CreditApplication, error)
	// GetActiveByUserID returns the user's open application
	// (draft, submitted or under_review), or ErrNotFound.
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*entities.CreditApplication, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]*entities.CreditApplication, int64, error)
	Update(ctx context.Context, application *entities.CreditApplication) error
	// ExpireApplications cancels draft applications past their
	// expiry and returns how many rows changed.
	ExpireApplications(ctx context.Context) (int64, error)
}
