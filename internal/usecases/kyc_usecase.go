package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/internal/domain/repositories"
	"ekyc.backend/internal/infrastructure/events"
	"ekyc.backend/pkg/logger"
	"ekyc.backend/pkg/redis"
	"ekyc.backend/pkg/utils"
)

// KYCVerificationTTL is how long a user has to finish the workflow
const KYCVerificationTTL = 7 * 24 * time.Hour

// KYCUsecase drives the verification workflow: one active
// verification per user, five ordered steps, risk scoring on
// final review.
type KYCUsecase struct {
	kycRepo   repositories.KYCRepository
	locker    *redis.Locker
	scorer    *RiskScorer
	profiles  collaborators.UserProfileService
	publisher events.Publisher
	now       func() time.Time
}

func NewKYCUsecase(
	kycRepo repositories.KYCRepository,
	locker *redis.Locker,
	scorer *RiskScorer,
	profiles collaborators.UserProfileService,
	publisher events.Publisher,
) *KYCUsecase {
	return &KYCUsecase{
		kycRepo:   kycRepo,
		locker:    locker,
		scorer:    scorer,
		profiles:  profiles,
		publisher: publisher,
		now:       time.Now,
	}
}

// Start opens a verification for the user, or returns the active one.
// The per-user lock keeps concurrent starts from creating duplicates.
func (u *KYCUsecase) Start(ctx context.Context, userID uuid.UUID, metadata entities.KYCMetadata) (*entities.KYCVerification, error) {
	lockKey := "kyc:user:" + userID.String()
	token, err := u.locker.Acquire(ctx, lockKey)
	if err != nil {
		return nil, apperrors.Conflict("another KYC request is in flight, retry shortly")
	}
	defer u.locker.Release(ctx, lockKey, token)

	existing, err := u.kycRepo.GetActiveByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	v := &entities.KYCVerification{
		ID:          utils.GenerateUUIDv7(),
		UserID:      userID,
		Status:      entities.KYCStatusInProgress,
		CurrentStep: entities.StepProfileSetup,
		Metadata:    metadata,
		ExpiresAt:   u.now().Add(KYCVerificationTTL),
	}
	if err := u.kycRepo.Create(ctx, v); err != nil {
		return nil, err
	}

	logger.Info(ctx, "kyc verification started",
		zap.String("kyc_id", v.ID.String()),
		zap.String("user_id", userID.String()),
	)
	u.publisher.Publish(ctx, events.EventKYCStarted, userID, map[string]string{"kycId": v.ID.String()})
	return v, nil
}

// GetStatus returns the user's most recent verification with progress
func (u *KYCUsecase) GetStatus(ctx context.Context, userID uuid.UUID) (*entities.KYCStatusResponse, error) {
	v, err := u.kycRepo.GetLatestByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("no KYC verification found")
		}
		return nil, err
	}
	return &entities.KYCStatusResponse{Verification: v, Progress: v.Progress()}, nil
}

// CompleteStep records a finished workflow step. Completing a step
// twice adds no duplicate entry, and steps may complete out of the
// declared order: currentStep always advances from the step named,
// not from the current position.
func (u *KYCUsecase) CompleteStep(ctx context.Context, userID uuid.UUID, step entities.KYCStep, data map[string]interface{}) (*entities.KYCVerification, error) {
	if !step.IsValid() {
		return nil, apperrors.BadRequest("unknown KYC step")
	}

	v, err := u.activeVerification(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !v.IsStepCompleted(step) {
		v.CompletedSteps = append(v.CompletedSteps, entities.CompletedStep{
			Step:        step,
			CompletedAt: u.now(),
			Data:        data,
		})
	}
	v.Status = entities.KYCStatusInProgress
	v.CurrentStep = entities.NextStep(step)

	if step == entities.StepFinalReview {
		u.finalize(ctx, v)
	}

	if err := u.kycRepo.Update(ctx, v); err != nil {
		return nil, err
	}

	u.publisher.Publish(ctx, events.EventKYCStepCompleted, userID, map[string]interface{}{
		"kycId":    v.ID.String(),
		"step":     step,
		"progress": v.Progress(),
	})
	if v.Status == entities.KYCStatusCompleted && v.RiskAssessment != nil {
		u.pushScoreToProfile(ctx, v)
		u.publisher.Publish(ctx, events.EventScoreCalculated, userID, v.RiskAssessment)
	}
	return v, nil
}

// CalculateScore returns the risk assessment for the user's completed
// verification, computing and persisting it if the final review did
// not already. Idempotent: a stored assessment is returned as is.
func (u *KYCUsecase) CalculateScore(ctx context.Context, userID uuid.UUID) (*entities.RiskAssessment, error) {
	v, err := u.kycRepo.GetCompletedByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("no completed KYC verification found")
		}
		return nil, err
	}
	if v.RiskAssessment != nil {
		return v.RiskAssessment, nil
	}

	assessment := u.scorer.Calculate(ctx, v)
	v.RiskAssessment = assessment
	if err := u.kycRepo.Update(ctx, v); err != nil {
		return nil, err
	}

	u.pushScoreToProfile(ctx, v)
	u.publisher.Publish(ctx, events.EventScoreCalculated, userID, map[string]interface{}{
		"kycId":          v.ID.String(),
		"score":          assessment.Score,
		"level":          assessment.Level,
		"recommendation": assessment.Recommendation,
	})
	return assessment, nil
}

// finalize runs risk scoring and closes the verification. Called
// when the final review step completes.
func (u *KYCUsecase) finalize(ctx context.Context, v *entities.KYCVerification) {
	now := u.now()
	v.CompletedAt = &now
	v.RiskAssessment = u.scorer.Calculate(ctx, v)
	v.Status = entities.KYCStatusCompleted
}

// pushScoreToProfile writes the verification outcome back to the
// profile service. Best effort: the score also goes out on the bus.
func (u *KYCUsecase) pushScoreToProfile(ctx context.Context, v *entities.KYCVerification) {
	if err := u.profiles.UpdateKYCStatus(ctx, v.UserID, string(v.Status), v.RiskAssessment.Score); err != nil {
		logger.Warn(ctx, "profile kyc status update failed",
			zap.String("kyc_id", v.ID.String()),
			zap.Error(err),
		)
	}
}

func (u *KYCUsecase) activeVerification(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error) {
	v, err := u.kycRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("no active KYC verification")
		}
		return nil, err
	}
	if u.now().After(v.ExpiresAt) {
		return nil, apperrors.PreconditionFailed("KYC verification has expired, start a new one")
	}
	return v, nil
}
