package usecases

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/pkg/logger"
)

// ScoringUsecase serves the no-commitment preliminary estimate,
// blending self-reported financials with the business profile.
type ScoringUsecase struct {
	profiles  collaborators.UserProfileService
	financial *FinancialScoringService
	business  *BusinessScoringService
	now       func() time.Time
}

func NewScoringUsecase(
	profiles collaborators.UserProfileService,
	financial *FinancialScoringService,
	business *BusinessScoringService,
) *ScoringUsecase {
	return &ScoringUsecase{
		profiles:  profiles,
		financial: financial,
		business:  business,
		now:       time.Now,
	}
}

// Preliminary estimates creditworthiness from self-reported financial
// data weighted 60% against the business profile weighted 40%. The
// caller may override the stored business profile in the input.
func (u *ScoringUsecase) Preliminary(ctx context.Context, userID uuid.UUID, input *entities.PreliminaryScoreInput) (*entities.PreliminaryScore, error) {
	if input.Financial == nil {
		return nil, apperrors.BadRequest("financial data is required")
	}

	business := input.Business
	if business == nil {
		profile, err := u.profiles.GetProfile(ctx, userID)
		if err != nil {
			logger.Warn(ctx, "profile unavailable for preliminary score", zap.Error(err))
		} else {
			business = profile.Business
		}
	}

	financialScore := u.financial.Score(input.Financial)
	businessScore := u.business.Score(business)

	score := int(math.Round(float64(financialScore.Score)*0.6 + float64(businessScore.Score)*0.4))
	return &entities.PreliminaryScore{
		Score:          score,
		Financial:      financialScore,
		Business:       businessScore,
		RiskLevel:      financialRiskLevel(score),
		Recommendation: creditRecommendation(score),
		CalculatedAt:   u.now(),
	}, nil
}
