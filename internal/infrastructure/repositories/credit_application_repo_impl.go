package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ekyc.backend/internal/domain/entities"
	"ekyc.backend/internal/infrastructure/models"
	"ekyc.backend/pkg/utils"
)

// CreditApplicationRepositoryImpl implements CreditApplicationRepository
type CreditApplicationRepositoryImpl struct {
	db *gorm.DB
}

func NewCreditApplicationRepository(db *gorm.DB) *CreditApplicationRepositoryImpl {
	return &CreditApplicationRepositoryImpl{db: db}
}

// Create assigns the next sequential application number and inserts
// the row in one transaction so concurrent creates cannot collide.
func (r *CreditApplicationRepositoryImpl) Create(ctx context.Context, a *entities.CreditApplication) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Unscoped().Model(&models.CreditApplication{}).Count(&count).Error; err != nil {
			return err
		}
		a.ApplicationNumber = fmt.Sprintf("CA%06d", count+1)

		m, err := r.toModel(a)
		if err != nil {
			return err
		}
		m.CreatedAt = time.Now()
		m.UpdatedAt = time.Now()
		return tx.Create(m).Error
	})
}

func (r *CreditApplicationRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.CreditApplication, error) {
	var m models.CreditApplication
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return r.toEntity(&m)
}

func (r *CreditApplicationRepositoryImpl) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*entities.CreditApplication, error) {
	var m models.CreditApplication
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return r.toEntity(&m)
}

func (r *CreditApplicationRepositoryImpl) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*entities.CreditApplication, error) {
	var m models.CreditApplication
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []string{
			string(entities.ApplicationStatusDraft),
			string(entities.ApplicationStatusSubmitted),
			string(entities.ApplicationStatusUnderReview),
		}).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return r.toEntity(&m)
}

func (r *CreditApplicationRepositoryImpl) ListByUserID(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) ([]*entities.CreditApplication, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.CreditApplication{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.CreditApplication
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(params.Limit).Offset(params.CalculateOffset()).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	var apps []*entities.CreditApplication
	for i := range ms {
		a, err := r.toEntity(&ms[i])
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, a)
	}
	return apps, total, nil
}

func (r *CreditApplicationRepositoryImpl) Update(ctx context.Context, a *entities.CreditApplication) error {
	m, err := r.toModel(a)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *CreditApplicationRepositoryImpl) ExpireApplications(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.CreditApplication{}).
		Where("status = ? AND expires_at < ?", string(entities.ApplicationStatusDraft), time.Now()).
		Updates(map[string]interface{}{
			"status":     string(entities.ApplicationStatusCancelled),
			"updated_at": time.Now(),
		})
	return tx.RowsAffected, tx.Error
}

func (r *CreditApplicationRepositoryImpl) toModel(a *entities.CreditApplication) (*models.CreditApplication, error) {
	m := &models.CreditApplication{
		ID:                a.ID,
		UserID:            a.UserID,
		ApplicationNumber: a.ApplicationNumber,
		Status:            string(a.Status),
		Progress:          a.Progress,
		RequestedAmount:   a.RequestedAmount.String(),
		Purpose:           string(a.Purpose),
		SubmittedAt:       a.SubmittedAt,
		ReviewedAt:        a.ReviewedAt,
		ExpiresAt:         a.ExpiresAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}

	subRecords := []struct {
		value  interface{}
		target *string
	}{
		{a.BankConnection, &m.BankConnection},
		{a.FinancialAnalysis, &m.FinancialAnalysis},
		{a.IdentityVerification, &m.IdentityVerification},
		{a.CreditScoring, &m.CreditScoring},
		{a.Decision, &m.Decision},
	}
	for _, sr := range subRecords {
		if isNilPointer(sr.value) {
			continue
		}
		b, err := json.Marshal(sr.value)
		if err != nil {
			return nil, err
		}
		*sr.target = string(b)
	}
	return m, nil
}

func (r *CreditApplicationRepositoryImpl) toEntity(m *models.CreditApplication) (*entities.CreditApplication, error) {
	amount, err := decimal.NewFromString(m.RequestedAmount)
	if err != nil {
		return nil, fmt.Errorf("parse requested amount: %w", err)
	}

	a := &entities.CreditApplication{
		ID:                m.ID,
		UserID:            m.UserID,
		ApplicationNumber: m.ApplicationNumber,
		Status:            entities.ApplicationStatus(m.Status),
		Progress:          m.Progress,
		RequestedAmount:   amount,
		Purpose:           entities.LoanPurpose(m.Purpose),
		SubmittedAt:       m.SubmittedAt,
		ReviewedAt:        m.ReviewedAt,
		ExpiresAt:         m.ExpiresAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}

	if m.BankConnection != "" {
		a.BankConnection = &entities.BankConnection{}
		if err := json.Unmarshal([]byte(m.BankConnection), a.BankConnection); err != nil {
			return nil, err
		}
	}
	if m.FinancialAnalysis != "" {
		a.FinancialAnalysis = &entities.FinancialAnalysis{}
		if err := json.Unmarshal([]byte(m.FinancialAnalysis), a.FinancialAnalysis); err != nil {
			return nil, err
		}
	}
	if m.IdentityVerification != "" {
		a.IdentityVerification = &entities.IdentityCheck{}
		if err := json.Unmarshal([]byte(m.IdentityVerification), a.IdentityVerification); err != nil {
			return nil, err
		}
	}
	if m.CreditScoring != "" {
		a.CreditScoring = &entities.CreditScoring{}
		if err := json.Unmarshal([]byte(m.CreditScoring), a.CreditScoring); err != nil {
			return nil, err
		}
	}
	if m.Decision != "" {
		a.Decision = &entities.Decision{}
		if err := json.Unmarshal([]byte(m.Decision), a.Decision); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func isNilPointer(v interface{}) bool {
	switch p := v.(type) {
	case *entities.BankConnection:
		return p == nil
	case *entities.FinancialAnalysis:
		return p == nil
	case *entities.IdentityCheck:
		return p == nil
	case *entities.CreditScoring:
		return p == nil
	case *entities.Decision:
		return p == nil
	}
	return v == nil
}
