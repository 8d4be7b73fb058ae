package usecases

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/internal/domain/repositories"
	"ekyc.backend/internal/infrastructure/events"
	"ekyc.backend/pkg/logger"
)

const (
	// PhoneCodeTTL is how long a challenge code stays valid
	PhoneCodeTTL = 10 * time.Minute
	// MaxPhoneAttempts before the user must request a new code
	MaxPhoneAttempts = 3
)

// PhoneUsecase manages the SMS ownership challenge. Codes are stored
// only as bcrypt hashes; requesting a new code resets the attempt
// budget.
type PhoneUsecase struct {
	kycRepo   repositories.KYCRepository
	sms       collaborators.SMSSender
	profiles  collaborators.UserProfileService
	publisher events.Publisher
	now       func() time.Time
	// generateCode is swappable in tests
	generateCode func() (string, error)
}

func NewPhoneUsecase(
	kycRepo repositories.KYCRepository,
	sms collaborators.SMSSender,
	profiles collaborators.UserProfileService,
	publisher events.Publisher,
) *PhoneUsecase {
	return &PhoneUsecase{
		kycRepo:      kycRepo,
		sms:          sms,
		profiles:     profiles,
		publisher:    publisher,
		now:          time.Now,
		generateCode: generateVerificationCode,
	}
}

// SendCode issues a fresh six digit challenge to the given number.
// The code hash is persisted only after the SMS provider accepts the
// message, so a delivery failure leaves no orphaned code behind.
func (u *PhoneUsecase) SendCode(ctx context.Context, userID uuid.UUID, phoneNumber string) error {
	v, err := u.activeVerification(ctx, userID)
	if err != nil {
		return err
	}

	code, err := u.generateCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if _, err := u.sms.SendVerificationCode(ctx, phoneNumber, code); err != nil {
		return apperrors.Upstream("failed to send verification code", err)
	}

	expiresAt := u.now().Add(PhoneCodeTTL)
	v.PhoneVerification = &entities.PhoneVerification{
		PhoneNumber:   phoneNumber,
		CodeHash:      string(hash),
		CodeExpiresAt: &expiresAt,
		IsVerified:    false,
		Attempts:      0,
	}
	if err := u.kycRepo.Update(ctx, v); err != nil {
		return err
	}

	u.publisher.Publish(ctx, events.EventPhoneCodeSent, userID, map[string]string{
		"kycId":       v.ID.String(),
		"phoneNumber": phoneNumber,
	})
	return nil
}

// VerifyCode answers the challenge. Wrong answers consume one of
// three attempts; the counter increment is atomic so concurrent
// guesses cannot bypass the cap.
func (u *PhoneUsecase) VerifyCode(ctx context.Context, userID uuid.UUID, code string) error {
	v, err := u.activeVerification(ctx, userID)
	if err != nil {
		return err
	}

	pv := v.PhoneVerification
	if pv == nil || pv.CodeHash == "" || pv.CodeExpiresAt == nil || u.now().After(*pv.CodeExpiresAt) {
		return apperrors.CodeExpired("verification code expired or not found")
	}
	if pv.Attempts >= MaxPhoneAttempts {
		return apperrors.TooManyAttempts("too many verification attempts, request a new code")
	}

	if bcrypt.CompareHashAndPassword([]byte(pv.CodeHash), []byte(code)) != nil {
		attempts, incErr := u.kycRepo.IncrementPhoneAttempts(ctx, v.ID)
		if incErr != nil {
			logger.Error(ctx, "failed to record phone attempt", zap.Error(incErr))
			attempts = pv.Attempts + 1
		}
		remaining := MaxPhoneAttempts - attempts
		if remaining <= 0 {
			return apperrors.TooManyAttempts("too many verification attempts, request a new code")
		}
		return apperrors.InvalidCode(remaining)
	}

	now := u.now()
	pv.IsVerified = true
	pv.VerifiedAt = &now
	pv.CodeHash = ""
	pv.CodeExpiresAt = nil
	if err := u.kycRepo.Update(ctx, v); err != nil {
		return err
	}

	// Best effort write-back; the profile service also consumes the event
	if err := u.profiles.UpdateVerificationStatus(ctx, userID, true); err != nil {
		logger.Warn(ctx, "profile phone status update failed", zap.Error(err))
	}

	u.publisher.Publish(ctx, events.EventPhoneVerified, userID, map[string]string{
		"kycId":       v.ID.String(),
		"phoneNumber": pv.PhoneNumber,
	})
	return nil
}

func (u *PhoneUsecase) activeVerification(ctx context.Context, userID uuid.UUID) (*entities.KYCVerification, error) {
	v, err := u.kycRepo.GetActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("no active KYC verification")
		}
		return nil, err
	}
	return v, nil
}

// generateVerificationCode draws six digits from crypto/rand
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
