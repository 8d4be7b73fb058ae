package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/internal/infrastructure/events"
	"ekyc.backend/pkg/redis"
	"ekyc.backend/pkg/utils"
)

type appFixture struct {
	appRepo   *MockCreditApplicationRepository
	kycRepo   *MockKYCRepository
	profiles  *MockUserProfileService
	bank      *MockBankConnector
	publisher *capturingPublisher
	usecase   *CreditApplicationUsecase
	now       time.Time
}

func newAppFixture(t *testing.T) *appFixture {
	setupTestRedis(t)
	f := &appFixture{
		appRepo:   new(MockCreditApplicationRepository),
		kycRepo:   new(MockKYCRepository),
		profiles:  new(MockUserProfileService),
		bank:      new(MockBankConnector),
		publisher: &capturingPublisher{},
		now:       time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
	kyc := NewKYCUsecase(f.kycRepo, redis.NewLocker(), NewRiskScorer(new(MockDocumentService)), new(MockUserProfileService), &capturingPublisher{})
	f.usecase = NewCreditApplicationUsecase(
		f.appRepo, f.kycRepo, f.profiles, f.bank,
		NewFinancialScoringService(), NewBusinessScoringService(), kyc,
		redis.NewLocker(), f.publisher,
	)
	f.usecase.now = func() time.Time { return f.now }
	return f
}

func completedKYC(userID uuid.UUID, score int) *entities.KYCVerification {
	return &entities.KYCVerification{
		ID:             utils.GenerateUUIDv7(),
		UserID:         userID,
		Status:         entities.KYCStatusCompleted,
		RiskAssessment: &entities.RiskAssessment{Score: score, Level: entities.RiskLevelLow, Recommendation: entities.RecommendationApprove},
	}
}

func draftApplication(userID uuid.UUID, now time.Time) *entities.CreditApplication {
	return &entities.CreditApplication{
		ID:                utils.GenerateUUIDv7(),
		UserID:            userID,
		ApplicationNumber: "CA000042",
		Status:            entities.ApplicationStatusDraft,
		RequestedAmount:   decimal.NewFromInt(150000),
		Purpose:           entities.PurposeWorkingCapital,
		ExpiresAt:         now.Add(ApplicationTTL),
	}
}

func TestCreateApplicationRequiresCompletedKYC(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	f.kycRepo.On("GetCompletedByUserID", mock.Anything, userID).Return(nil, apperrors.ErrNotFound)

	_, err := f.usecase.Create(context.Background(), userID, &entities.CreateApplicationInput{
		RequestedAmount: decimal.NewFromInt(100000),
		Purpose:         entities.PurposeEquipment,
	})

	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
}

func TestCreateApplication(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	f.kycRepo.On("GetCompletedByUserID", mock.Anything, userID).Return(completedKYC(userID, 90), nil)
	f.appRepo.On("GetActiveByUserID", mock.Anything, userID).Return(nil, apperrors.ErrNotFound)
	f.appRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.CreditApplication")).Return(nil)

	app, err := f.usecase.Create(context.Background(), userID, &entities.CreateApplicationInput{
		RequestedAmount: decimal.NewFromInt(150000),
		Purpose:         entities.PurposeWorkingCapital,
	})

	require.NoError(t, err)
	assert.Equal(t, entities.ApplicationStatusDraft, app.Status)
	assert.Equal(t, 0, app.Progress)
	assert.Equal(t, f.now.Add(ApplicationTTL), app.ExpiresAt)
	assert.Equal(t, []string{events.EventApplicationCreated}, f.publisher.names())
}

func TestCreateApplicationIdempotent(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	existing := draftApplication(userID, f.now)
	f.kycRepo.On("GetCompletedByUserID", mock.Anything, userID).Return(completedKYC(userID, 90), nil)
	f.appRepo.On("GetActiveByUserID", mock.Anything, userID).Return(existing, nil)

	app, err := f.usecase.Create(context.Background(), userID, &entities.CreateApplicationInput{
		RequestedAmount: decimal.NewFromInt(150000),
		Purpose:         entities.PurposeWorkingCapital,
	})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, app.ID)
	f.appRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.names())
}

// activeTrackingAppRepo is a stateful stand-in: it records creates
// and serves the stored application back as the active one, so
// find-or-create races surface as duplicate creates.
type activeTrackingAppRepo struct {
	mu      sync.Mutex
	active  *entities.CreditApplication
	creates int
}

func (r *activeTrackingAppRepo) Create(_ context.Context, a *entities.CreditApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.active = a
	return nil
}

func (r *activeTrackingAppRepo) GetActiveByUserID(_ context.Context, _ uuid.UUID) (*entities.CreditApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil, apperrors.ErrNotFound
	}
	return r.active, nil
}

func (r *activeTrackingAppRepo) GetByID(_ context.Context, _ uuid.UUID) (*entities.CreditApplication, error) {
	return nil, apperrors.ErrNotFound
}

func (r *activeTrackingAppRepo) GetByIDAndUser(_ context.Context, _, _ uuid.UUID) (*entities.CreditApplication, error) {
	return nil, apperrors.ErrNotFound
}

func (r *activeTrackingAppRepo) ListByUserID(_ context.Context, _ uuid.UUID, _ utils.PaginationParams) ([]*entities.CreditApplication, int64, error) {
	return nil, 0, nil
}

func (r *activeTrackingAppRepo) Update(_ context.Context, _ *entities.CreditApplication) error {
	return nil
}

func (r *activeTrackingAppRepo) ExpireApplications(_ context.Context) (int64, error) {
	return 0, nil
}

func TestCreateApplicationConcurrentCallsShareOneRecord(t *testing.T) {
	setupTestRedis(t)
	repo := &activeTrackingAppRepo{}
	kycRepo := new(MockKYCRepository)
	userID := utils.GenerateUUIDv7()
	kycRepo.On("GetCompletedByUserID", mock.Anything, userID).Return(completedKYC(userID, 90), nil)

	kyc := NewKYCUsecase(kycRepo, redis.NewLocker(), NewRiskScorer(new(MockDocumentService)), new(MockUserProfileService), &capturingPublisher{})
	usecase := NewCreditApplicationUsecase(
		repo, kycRepo, new(MockUserProfileService), new(MockBankConnector),
		NewFinancialScoringService(), NewBusinessScoringService(), kyc,
		redis.NewLocker(), &capturingPublisher{},
	)

	input := &entities.CreateApplicationInput{
		RequestedAmount: decimal.NewFromInt(150000),
		Purpose:         entities.PurposeWorkingCapital,
	}

	var wg sync.WaitGroup
	results := make([]*entities.CreditApplication, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = usecase.Create(context.Background(), userID, input)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	// The per-user lock serializes the two calls: one creates, the
	// other observes the same active application.
	assert.Equal(t, results[0].ID, results[1].ID)
	assert.Equal(t, 1, repo.creates)
}

func TestCreateApplicationRejectsBadInput(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()

	_, err := f.usecase.Create(context.Background(), userID, &entities.CreateApplicationInput{
		RequestedAmount: decimal.Zero,
		Purpose:         entities.PurposeOther,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.usecase.Create(context.Background(), userID, &entities.CreateApplicationInput{
		RequestedAmount: decimal.NewFromInt(1000),
		Purpose:         "yacht",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateStepBankConnection(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)
	f.bank.On("Connect", mock.Anything, userID, "Attijariwafa Bank").
		Return(&collaborators.BankConnectionResult{Connected: true, BankName: "Attijariwafa Bank", AccountsConnected: 2, DataQuality: 95}, nil)

	updated, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepBankConnection,
		map[string]interface{}{"bankName": "Attijariwafa Bank"})

	require.NoError(t, err)
	require.NotNil(t, updated.BankConnection)
	assert.Equal(t, entities.ConnectionConnected, updated.BankConnection.Status)
	assert.Equal(t, "API", updated.BankConnection.ConnectionMethod)
	assert.Equal(t, 25, updated.Progress)
	assert.Equal(t, []string{events.EventProgressUpdated}, f.publisher.names())
}

func TestUpdateStepBankConnectionFailure(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)
	f.bank.On("Connect", mock.Anything, userID, "Banque Populaire").
		Return(&collaborators.BankConnectionResult{Connected: false, FailureReason: "connection timeout"}, nil)

	updated, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepBankConnection,
		map[string]interface{}{"bankName": "Banque Populaire"})

	require.NoError(t, err)
	assert.Equal(t, entities.ConnectionFailed, updated.BankConnection.Status)
	assert.Equal(t, 0, updated.Progress)
}

func TestUpdateStepBankConnectionMissingBankName(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)

	_, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepBankConnection, nil)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateStepFinancialAnalysisFromPayload(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)

	updated, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepFinancialAnalysis,
		map[string]interface{}{
			"monthlyRevenue":    "600000",
			"averageBalance":    "250000",
			"transactionVolume": 600,
			"cashFlow":          map[string]interface{}{"inflow": "100000", "outflow": "70000", "net": "30000"},
		})

	require.NoError(t, err)
	fa := updated.FinancialAnalysis
	require.NotNil(t, fa)
	assert.Equal(t, entities.AnalysisCompleted, fa.Status)
	require.NotNil(t, fa.FinancialHealth)
	// credit history defaults to neutral 50 at 10% weight
	assert.Equal(t, 95, fa.FinancialHealth.Score)
	assert.Equal(t, 25, updated.Progress)
}

func TestUpdateStepFinancialAnalysisFetchesFromBank(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	app.BankConnection = &entities.BankConnection{Status: entities.ConnectionConnected, BankName: "CIH Bank"}
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)
	f.bank.On("FetchFinancialData", mock.Anything, userID).Return(&entities.FinancialData{
		MonthlyRevenue:    decimal.NewFromInt(120000),
		AverageBalance:    decimal.NewFromInt(60000),
		TransactionVolume: 140,
	}, nil)

	updated, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepFinancialAnalysis, nil)

	require.NoError(t, err)
	assert.Equal(t, entities.AnalysisCompleted, updated.FinancialAnalysis.Status)
	assert.Equal(t, 50, updated.Progress)
	f.bank.AssertExpectations(t)
}

func TestUpdateStepFinancialAnalysisNeedsConnection(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)

	_, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepFinancialAnalysis, nil)

	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
}

func TestUpdateStepIdentityCheck(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	kyc := completedKYC(userID, 88)
	completedAt := f.now.Add(-time.Hour)
	kyc.CompletedAt = &completedAt
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)
	f.kycRepo.On("GetLatestByUserID", mock.Anything, userID).Return(kyc, nil)

	updated, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepIdentityCheck, nil)

	require.NoError(t, err)
	check := updated.IdentityVerification
	require.NotNil(t, check)
	assert.Equal(t, entities.CheckCompleted, check.Status)
	assert.Equal(t, kyc.ID, check.KYCID)
	assert.Equal(t, 88, check.KYCScore)
	assert.Equal(t, completedAt, *check.VerifiedAt)
	assert.Equal(t, 25, updated.Progress)
}

func TestUpdateStepIdentityCheckUnfinishedKYC(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)
	f.kycRepo.On("GetLatestByUserID", mock.Anything, userID).
		Return(&entities.KYCVerification{Status: entities.KYCStatusInProgress}, nil)

	updated, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepIdentityCheck, nil)

	require.NoError(t, err)
	assert.Equal(t, entities.CheckFailed, updated.IdentityVerification.Status)
	assert.Equal(t, 0, updated.Progress)
}

func TestUpdateStepUnknownStep(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)

	_, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, "interpretive_dance", nil)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdateStepClosedApplication(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	app.Status = entities.ApplicationStatusCancelled
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)

	_, err := f.usecase.UpdateStep(context.Background(), userID, app.ID, AppStepBankConnection,
		map[string]interface{}{"bankName": "CIH Bank"})

	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
}

func readyApplication(userID uuid.UUID, now time.Time, kycID uuid.UUID) *entities.CreditApplication {
	syncedAt := now.Add(-time.Hour)
	app := draftApplication(userID, now)
	app.BankConnection = &entities.BankConnection{Status: entities.ConnectionConnected, BankName: "Attijariwafa Bank", LastSyncAt: &syncedAt}
	app.FinancialAnalysis = &entities.FinancialAnalysis{
		Status:          entities.AnalysisCompleted,
		FinancialHealth: &entities.FinancialHealth{Score: 80},
	}
	app.IdentityVerification = &entities.IdentityCheck{Status: entities.CheckCompleted, KYCID: kycID}
	return app
}

func TestSubmitApplication(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	kyc := completedKYC(userID, 90)
	app := readyApplication(userID, f.now, kyc.ID)

	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)
	f.kycRepo.On("GetCompletedByUserID", mock.Anything, userID).Return(kyc, nil)
	f.profiles.On("GetProfile", mock.Anything, userID).Return(&collaborators.UserProfile{
		UserID:   userID,
		FullName: "Yasmine El Amrani",
		Business: &entities.BusinessInfo{
			Sector:             "Technology",
			YearEstablished:    2014,
			NumberOfEmployees:  60,
			AnnualRevenue:      decimal.NewFromInt(12000000),
			RegistrationNumber: "RC123456",
		},
	}, nil)

	submitted, err := f.usecase.Submit(context.Background(), userID, app.ID)

	require.NoError(t, err)
	assert.Equal(t, entities.ApplicationStatusSubmitted, submitted.Status)
	assert.Equal(t, 100, submitted.Progress)
	require.NotNil(t, submitted.SubmittedAt)

	scoring := submitted.CreditScoring
	require.NotNil(t, scoring)
	// financial 80*.5 + identity 90*.3 + business 99*.2
	assert.Equal(t, 87, scoring.FinalScore)
	assert.Equal(t, entities.RiskLevelLow, scoring.RiskLevel)
	assert.Equal(t, entities.RecommendationApprove, scoring.Recommendation)
	assert.Equal(t, []string{events.EventApplicationSubmitted}, f.publisher.names())
}

func TestSubmitDegradedComponentsScoreZero(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := readyApplication(userID, f.now, utils.GenerateUUIDv7())

	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)
	f.appRepo.On("Update", mock.Anything, app).Return(nil)
	f.kycRepo.On("GetCompletedByUserID", mock.Anything, userID).Return(nil, apperrors.ErrNotFound)
	f.profiles.On("GetProfile", mock.Anything, userID).Return(nil, assert.AnError)

	submitted, err := f.usecase.Submit(context.Background(), userID, app.ID)

	require.NoError(t, err)
	// Only the financial component contributes
	assert.Equal(t, 40, submitted.CreditScoring.FinalScore)
	assert.Equal(t, entities.RiskLevelHigh, submitted.CreditScoring.RiskLevel)
	assert.Equal(t, entities.RecommendationReject, submitted.CreditScoring.Recommendation)
}

func TestSubmitAlreadySubmitted(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	app.Status = entities.ApplicationStatusSubmitted
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)

	_, err := f.usecase.Submit(context.Background(), userID, app.ID)

	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
}

func TestSubmitInsufficientProgress(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	app := draftApplication(userID, f.now)
	app.BankConnection = &entities.BankConnection{Status: entities.ConnectionConnected}
	f.appRepo.On("GetByIDAndUser", mock.Anything, app.ID, userID).Return(app, nil)

	_, err := f.usecase.Submit(context.Background(), userID, app.ID)

	assert.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
}

func TestListApplications(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	params := utils.GetPaginationParams(1, 10)
	apps := []*entities.CreditApplication{draftApplication(userID, f.now)}
	f.appRepo.On("ListByUserID", mock.Anything, userID, params).Return(apps, int64(1), nil)

	result, err := f.usecase.List(context.Background(), userID, params)

	require.NoError(t, err)
	assert.Len(t, result.Applications, 1)
	assert.Equal(t, int64(1), result.Pagination.TotalCount)
}

func TestGetApplicationNotFound(t *testing.T) {
	f := newAppFixture(t)
	userID := utils.GenerateUUIDv7()
	appID := utils.GenerateUUIDv7()
	f.appRepo.On("GetByIDAndUser", mock.Anything, appID, userID).Return(nil, apperrors.ErrNotFound)

	_, err := f.usecase.Get(context.Background(), userID, appID)

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
