package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// ApplicationTTL is how long a draft application stays open
const ApplicationTTL = 30 * 24 * time.Hour

// Application milestone steps accepted by UpdateStep
const (
	AppStepBankConnection    = "bank_connection"
	AppStepFinancialAnalysis = "financial_analysis"
	AppStepIdentityCheck     = "identity_verification"
	AppStepSubmit            = "submit_application"
)

// ApplicationListResult bundles a page of applications with metadata
type ApplicationListResult struct {
	Applications []*entities.CreditApplication `json:"applications"`
	Pagination   utils.PaginationMeta          `json:"pagination"`
}

// CreditApplicationUsecase orchestrates a credit application through
// bank connection, financial analysis, identity check and submission.
type CreditApplicationUsecase struct {
	appRepo   repositories.CreditApplicationRepository
	kycRepo   repositories.KYCRepository
	profiles  collaborators.UserProfileService
	bank      collaborators.BankConnector
	financial *FinancialScoringService
	business  *BusinessScoringService
	kyc       *KYCUsecase
	locker    *redis.Locker
	publisher events.Publisher
	now       func() time.Time
}

func NewCreditApplicationUsecase(
	appRepo repositories.CreditApplicationRepository,
	kycRepo repositories.KYCRepository,
	profiles collaborators.UserProfileService,
	bank collaborators.BankConnector,
	financial *FinancialScoringService,
	business *BusinessScoringService,
	kyc *KYCUsecase,
	locker *redis.Locker,
	publisher events.Publisher,
) *CreditApplicationUsecase {
	return &CreditApplicationUsecase{
		appRepo:   appRepo,
		kycRepo:   kycRepo,
		profiles:  profiles,
		bank:      bank,
		financial: financial,
		business:  business,
		kyc:       kyc,
		locker:    locker,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create opens a draft application for the user, or returns their
// active one. Requires a completed KYC verification.
func (u *CreditApplicationUsecase) Create(ctx context.Context, userID uuid.UUID, input *entities.CreateApplicationInput) (*entities.CreditApplication, error) {
	if input.RequestedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.BadRequest("requested amount must be positive")
	}
	if !input.Purpose.IsValid() {
		return nil, apperrors.BadRequest("unknown loan purpose")
	}

	if _, err := u.kycRepo.GetCompletedByUserID(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.PreconditionFailed("KYC verification must be completed before applying for credit")
		}
		return nil, err
	}

	lockKey := "application:user:" + userID.String()
	token, err := u.locker.Acquire(ctx, lockKey)
	if err != nil {
		return nil, apperrors.Conflict("another application request is in flight, retry shortly")
	}
	defer u.locker.Release(ctx, lockKey, token)

	existing, err := u.appRepo.GetActiveByUserID(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	app := &entities.CreditApplication{
		ID:              utils.GenerateUUIDv7(),
		UserID:          userID,
		Status:          entities.ApplicationStatusDraft,
		RequestedAmount: input.RequestedAmount,
		Purpose:         input.Purpose,
		ExpiresAt:       u.now().Add(ApplicationTTL),
	}
	app.Progress = app.ComputeProgress()
	if err := u.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	logger.Info(ctx, "credit application created",
		zap.String("application_id", app.ID.String()),
		zap.String("application_number", app.ApplicationNumber),
		zap.String("user_id", userID.String()),
	)
	u.publisher.Publish(ctx, events.EventApplicationCreated, userID, map[string]string{
		"applicationId":     app.ID.String(),
		"applicationNumber": app.ApplicationNumber,
	})
	return app, nil
}

// Get returns the application scoped to its owner
func (u *CreditApplicationUsecase) Get(ctx context.Context, userID, applicationID uuid.UUID) (*entities.CreditApplication, error) {
	app, err := u.appRepo.GetByIDAndUser(ctx, applicationID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("application not found")
		}
		return nil, err
	}
	return app, nil
}

// List returns the user's applications, newest first
func (u *CreditApplicationUsecase) List(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) (*ApplicationListResult, error) {
	apps, total, err := u.appRepo.ListByUserID(ctx, userID, params)
	if err != nil {
		return nil, err
	}
	return &ApplicationListResult{
		Applications: apps,
		Pagination:   utils.CalculateMeta(total, params.Page, params.Limit),
	}, nil
}

// UpdateStep advances one application milestone and recomputes
// progress. The submit_application step routes through Submit so the
// submission guards always apply.
func (u *CreditApplicationUsecase) UpdateStep(ctx context.Context, userID, applicationID uuid.UUID, step string, data map[string]interface{}) (*entities.CreditApplication, error) {
	if step == AppStepSubmit {
		return u.Submit(ctx, userID, applicationID)
	}

	app, err := u.Get(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsActive() {
		return nil, apperrors.PreconditionFailed("application is closed")
	}

	switch step {
	case AppStepBankConnection:
		err = u.handleBankConnection(ctx, app, data)
	case AppStepFinancialAnalysis:
		err = u.handleFinancialAnalysis(ctx, app, data)
	case AppStepIdentityCheck:
		u.handleIdentityCheck(ctx, app)
	default:
		return nil, apperrors.BadRequest("invalid step")
	}
	if err != nil {
		return nil, err
	}

	app.Progress = app.ComputeProgress()
	if err := u.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	u.publisher.Publish(ctx, events.EventProgressUpdated, userID, map[string]interface{}{
		"applicationId": app.ID.String(),
		"step":          step,
		"progress":      app.Progress,
		"status":        app.Status,
	})
	return app, nil
}

// Submit finalizes the application: guards the draft status and 75%
// progress floor, computes the weighted credit score, and marks the
// application submitted.
func (u *CreditApplicationUsecase) Submit(ctx context.Context, userID, applicationID uuid.UUID) (*entities.CreditApplication, error) {
	app, err := u.Get(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != entities.ApplicationStatusDraft {
		return nil, apperrors.PreconditionFailed("application has already been submitted")
	}
	if app.ComputeProgress() < 75 {
		return nil, apperrors.PreconditionFailed("complete all required steps before submission")
	}

	scoring := u.computeFinalScore(ctx, app)
	now := u.now()
	app.CreditScoring = scoring
	app.Status = entities.ApplicationStatusSubmitted
	app.SubmittedAt = &now
	app.Progress = 100

	if err := u.appRepo.Update(ctx, app); err != nil {
		return nil, err
	}

	u.publisher.Publish(ctx, events.EventApplicationSubmitted, userID, map[string]interface{}{
		"applicationId":  app.ID.String(),
		"score":          scoring.FinalScore,
		"recommendation": scoring.Recommendation,
	})
	return app, nil
}

func (u *CreditApplicationUsecase) handleBankConnection(ctx context.Context, app *entities.CreditApplication, data map[string]interface{}) error {
	bankName, _ := data["bankName"].(string)
	if bankName == "" {
		return apperrors.BadRequest("bankName is required for bank connection")
	}

	result, err := u.bank.Connect(ctx, app.UserID, bankName)
	if err != nil {
		return apperrors.Upstream("bank connection service unavailable", err)
	}

	now := u.now()
	status := entities.ConnectionFailed
	if result.Connected {
		status = entities.ConnectionConnected
	}
	app.BankConnection = &entities.BankConnection{
		Status:            status,
		BankName:          bankName,
		ConnectionMethod:  "API",
		AccountsConnected: result.AccountsConnected,
		DataQuality:       result.DataQuality,
		LastSyncAt:        &now,
	}
	return nil
}

// handleFinancialAnalysis scores the provided banking snapshot, or
// pulls one from the connected bank when the caller sends no data.
func (u *CreditApplicationUsecase) handleFinancialAnalysis(ctx context.Context, app *entities.CreditApplication, data map[string]interface{}) error {
	var financialData *entities.FinancialData
	if len(data) > 0 {
		parsed, err := parseFinancialData(data)
		if err != nil {
			return apperrors.BadRequest("malformed financial data")
		}
		financialData = parsed
	} else {
		if app.BankConnection == nil || app.BankConnection.Status != entities.ConnectionConnected {
			return apperrors.PreconditionFailed("connect a bank account before financial analysis")
		}
		fetched, err := u.bank.FetchFinancialData(ctx, app.UserID)
		if err != nil {
			return apperrors.Upstream("financial data unavailable", err)
		}
		financialData = fetched
	}

	result := u.financial.Score(financialData)
	now := u.now()
	app.FinancialAnalysis = &entities.FinancialAnalysis{
		Status:            entities.AnalysisCompleted,
		MonthlyRevenue:    financialData.MonthlyRevenue,
		AverageBalance:    financialData.AverageBalance,
		TransactionVolume: financialData.TransactionVolume,
		CashFlow:          financialData.CashFlow,
		FinancialHealth: &entities.FinancialHealth{
			Score:   result.Score,
			Factors: result.Factors,
		},
		AnalyzedAt: &now,
	}
	return nil
}

// handleIdentityCheck links the application to the user's KYC record.
// A missing or unfinished KYC marks the check failed instead of
// erroring, mirroring how the milestone is retried later.
func (u *CreditApplicationUsecase) handleIdentityCheck(ctx context.Context, app *entities.CreditApplication) {
	check := &entities.IdentityCheck{Status: entities.CheckFailed}

	v, err := u.kycRepo.GetLatestByUserID(ctx, app.UserID)
	if err == nil && v.Status == entities.KYCStatusCompleted {
		check.Status = entities.CheckCompleted
		check.KYCID = v.ID
		if v.RiskAssessment != nil {
			check.KYCScore = v.RiskAssessment.Score
		}
		verifiedAt := u.now()
		if v.CompletedAt != nil {
			verifiedAt = *v.CompletedAt
		}
		check.VerifiedAt = &verifiedAt
	} else if err != nil {
		logger.Warn(ctx, "kyc lookup failed during identity check",
			zap.String("user_id", app.UserID.String()),
			zap.Error(err),
		)
	}
	app.IdentityVerification = check
}

// computeFinalScore weighs financial health 50%, KYC identity 30%
// and business profile 20%. Unavailable components score zero rather
// than blocking submission.
func (u *CreditApplicationUsecase) computeFinalScore(ctx context.Context, app *entities.CreditApplication) *entities.CreditScoring {
	financialScore := 0.0
	if app.FinancialAnalysis != nil && app.FinancialAnalysis.FinancialHealth != nil {
		financialScore = float64(app.FinancialAnalysis.FinancialHealth.Score)
	}

	identityScore := 0.0
	if assessment, err := u.kyc.CalculateScore(ctx, app.UserID); err != nil {
		logger.Warn(ctx, "identity score unavailable for credit scoring", zap.Error(err))
	} else {
		identityScore = float64(assessment.Score)
	}

	businessScore := 0.0
	if profile, err := u.profiles.GetProfile(ctx, app.UserID); err != nil {
		logger.Warn(ctx, "business score unavailable for credit scoring", zap.Error(err))
	} else {
		businessScore = float64(u.business.Score(profile.Business).Score)
	}

	components := entities.CreditScoreComponents{
		Financial: entities.ScoreComponent{Score: financialScore, Weight: 0.5},
		Identity:  entities.ScoreComponent{Score: identityScore, Weight: 0.3},
		Business:  entities.ScoreComponent{Score: businessScore, Weight: 0.2},
	}
	finalScore := int(math.Round(
		components.Financial.Score*components.Financial.Weight +
			components.Identity.Score*components.Identity.Weight +
			components.Business.Score*components.Business.Weight,
	))

	return &entities.CreditScoring{
		FinalScore:     finalScore,
		Components:     components,
		RiskLevel:      financialRiskLevel(finalScore),
		Recommendation: creditRecommendation(finalScore),
		CalculatedAt:   u.now(),
	}
}

// creditRecommendation uses the credit thresholds, which differ from
// the KYC ones on purpose.
func creditRecommendation(score int) entities.Recommendation {
	switch {
	case score >= 75:
		return entities.RecommendationApprove
	case score >= 60:
		return entities.RecommendationConditionalApprove
	}
	return entities.RecommendationReject
}

func parseFinancialData(data map[string]interface{}) (*entities.FinancialData, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var fd entities.FinancialData
	if err := json.Unmarshal(raw, &fd); err != nil {
		return nil, err
	}
	return &fd, nil
}
