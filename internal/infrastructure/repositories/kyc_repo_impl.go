package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/internal/infrastructure/models"
)

// KYCRepositoryImpl implements KYCRepository
type KYCRepositoryImpl struct {
	db *gorm.DB
}

func NewKYCRepository(db *gorm.DB) *KYCRepositoryImpl {
	return &KYCRepositoryImpl{db: db}
}

func (r *KYCRepositoryImpl) Create(ctx context.Context, v *entities.KYCVerification) error {
	m, err := r.toModel(v)
	if err != nil {
		return err
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *KYCRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.KYCVerification, error) {
	var m models.KYCVerification
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return r.toEntity(&m)
}

func (r *KYCRepositoryImpl) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error) {
	var m models.KYCVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []string{
			string(entities.KYCStatusPending),
			string(entities.KYCStatusInProgress),
		}).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return r.toEntity(&m)
}

func (r *KYCRepositoryImpl) GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error) {
	var m models.KYCVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return r.toEntity(&m)
}

func (r *KYCRepositoryImpl) GetCompletedByUserID(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error) {
	var m models.KYCVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(entities.KYCStatusCompleted)).
		Order("completed_at DESC").
		First(&m).Error
	if err != nil {
		return nil, translateNotFound(err)
	}
	return r.toEntity(&m)
}

func (r *KYCRepositoryImpl) Update(ctx context.Context, v *entities.KYCVerification) error {
	m, err := r.toModel(v)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *KYCRepositoryImpl) IncrementPhoneAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	tx := r.db.WithContext(ctx).Model(&models.KYCVerification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"phone_attempts": gorm.Expr("phone_attempts + ?", 1),
			"updated_at":     time.Now(),
		})
	if tx.Error != nil {
		return 0, tx.Error
	}
	if tx.RowsAffected == 0 {
		return 0, apperrors.ErrNotFound
	}

	var m models.KYCVerification
	if err := r.db.WithContext(ctx).Select("phone_attempts").Where("id = ?", id).First(&m).Error; err != nil {
		return 0, translateNotFound(err)
	}
	return m.PhoneAttempts, nil
}

func (r *KYCRepositoryImpl) ExpireVerifications(ctx context.Context) (int64, error) {
	tx := r.db.WithContext(ctx).Model(&models.KYCVerification{}).
		Where("status IN ? AND expires_at < ?", []string{
			string(entities.KYCStatusPending),
			string(entities.KYCStatusInProgress),
		}, time.Now()).
		Updates(map[string]interface{}{
			"status":           string(entities.KYCStatusRejected),
			"rejection_reason": "verification expired",
			"updated_at":       time.Now(),
		})
	return tx.RowsAffected, tx.Error
}

func (r *KYCRepositoryImpl) toModel(v *entities.KYCVerification) (*models.KYCVerification, error) {
	steps, err := json.Marshal(v.CompletedSteps)
	if err != nil {
		return nil, err
	}
	metadata, err := json.Marshal(v.Metadata)
	if err != nil {
		return nil, err
	}

	m := &models.KYCVerification{
		ID:              v.ID,
		UserID:          v.UserID,
		Status:          string(v.Status),
		CurrentStep:     string(v.CurrentStep),
		CompletedSteps:  string(steps),
		Metadata:        string(metadata),
		RejectionReason: v.RejectionReason.String,
		CompletedAt:     v.CompletedAt,
		ExpiresAt:       v.ExpiresAt,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}

	if v.IdentityVerification != nil {
		b, err := json.Marshal(v.IdentityVerification)
		if err != nil {
			return nil, err
		}
		m.IdentityVerification = string(b)
	}
	if v.PhoneVerification != nil {
		b, err := json.Marshal(phoneVerificationJSON{
			PhoneNumber:   v.PhoneVerification.PhoneNumber,
			CodeHash:      v.PhoneVerification.CodeHash,
			CodeExpiresAt: v.PhoneVerification.CodeExpiresAt,
			IsVerified:    v.PhoneVerification.IsVerified,
			VerifiedAt:    v.PhoneVerification.VerifiedAt,
		})
		if err != nil {
			return nil, err
		}
		m.PhoneVerification = string(b)
		m.PhoneAttempts = v.PhoneVerification.Attempts
	}
	if v.BusinessVerification != nil {
		b, err := json.Marshal(v.BusinessVerification)
		if err != nil {
			return nil, err
		}
		m.BusinessVerification = string(b)
	}
	if v.RiskAssessment != nil {
		b, err := json.Marshal(v.RiskAssessment)
		if err != nil {
			return nil, err
		}
		m.RiskAssessment = string(b)
	}
	return m, nil
}

func (r *KYCRepositoryImpl) toEntity(m *models.KYCVerification) (*entities.KYCVerification, error) {
	v := &entities.KYCVerification{
		ID:              m.ID,
		UserID:          m.UserID,
		Status:          entities.KYCStatus(m.Status),
		CurrentStep:     entities.KYCStep(m.CurrentStep),
		RejectionReason: null.NewString(m.RejectionReason, m.RejectionReason != ""),
		CompletedAt:     m.CompletedAt,
		ExpiresAt:       m.ExpiresAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}

	if m.CompletedSteps != "" {
		if err := json.Unmarshal([]byte(m.CompletedSteps), &v.CompletedSteps); err != nil {
			return nil, err
		}
	}
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &v.Metadata); err != nil {
			return nil, err
		}
	}
	if m.IdentityVerification != "" {
		v.IdentityVerification = &entities.IdentityVerification{}
		if err := json.Unmarshal([]byte(m.IdentityVerification), v.IdentityVerification); err != nil {
			return nil, err
		}
	}
	if m.PhoneVerification != "" {
		var pv phoneVerificationJSON
		if err := json.Unmarshal([]byte(m.PhoneVerification), &pv); err != nil {
			return nil, err
		}
		v.PhoneVerification = &entities.PhoneVerification{
			PhoneNumber:   pv.PhoneNumber,
			CodeHash:      pv.CodeHash,
			CodeExpiresAt: pv.CodeExpiresAt,
			IsVerified:    pv.IsVerified,
			Attempts:      m.PhoneAttempts,
			VerifiedAt:    pv.VerifiedAt,
		}
	}
	if m.BusinessVerification != "" {
		v.BusinessVerification = &entities.BusinessVerification{}
		if err := json.Unmarshal([]byte(m.BusinessVerification), v.BusinessVerification); err != nil {
			return nil, err
		}
	}
	if m.RiskAssessment != "" {
		v.RiskAssessment = &entities.RiskAssessment{}
		if err := json.Unmarshal([]byte(m.RiskAssessment), v.RiskAssessment); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// phoneVerificationJSON is the storage shape of the phone sub-record.
// The entity hides the code hash from API serialization, so the column
// needs its own marshalling type to keep the hash at rest.
type phoneVerificationJSON struct {
	PhoneNumber   string     `json:"phoneNumber"`
	CodeHash      string     `json:"codeHash,omitempty"`
	CodeExpiresAt *time.Time `json:"codeExpiresAt,omitempty"`
	IsVerified    bool       `json:"isVerified"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}
