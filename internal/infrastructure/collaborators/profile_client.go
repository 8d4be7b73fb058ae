package collaborators

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ekyc.backend/internal/domain/collaborators"
)

// UserProfileClient talks to the user-profile microservice
type UserProfileClient struct {
	httpClient
}

func NewUserProfileClient(baseURL string, timeout time.Duration) *UserProfileClient {
	return &UserProfileClient{httpClient: newHTTPClient(baseURL, "user-service", timeout)}
}

func (c *UserProfileClient) GetProfile(ctx context.Context, userID uuid.UUID) (*collaborators.UserProfile, error) {
	var profile collaborators.UserProfile
	if err := c.getJSON(ctx, "/api/v1/profiles/me", userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateVerificationStatus records phone ownership on the profile
func (c *UserProfileClient) UpdateVerificationStatus(ctx context.Context, userID uuid.UUID, phoneVerified bool) error {
	return c.patchJSON(ctx, "/api/v1/profiles/me/verification", userID, map[string]bool{
		"phoneVerified": phoneVerified,
	})
}

// UpdateKYCStatus pushes the verification outcome and risk score
func (c *UserProfileClient) UpdateKYCStatus(ctx context.Context, userID uuid.UUID, status string, score int) error {
	return c.patchJSON(ctx, "/api/v1/profiles/me/kyc-status", userID, map[string]interface{}{
		"kycStatus": status,
		"kycScore":  score,
	})
}
