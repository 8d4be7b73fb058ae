package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/internal/interfaces/http/middleware"
	"ekyc.backend/internal/interfaces/http/response"
	"ekyc.backend/internal/usecases"
)

type KYCService interface {
	Start(ctx context.Context, userID uuid.UUID, metadata entities.KYCMetadata) (*entities.KYCVerification, error)
	GetStatus(ctx context.Context, userID uuid.UUID) (*entities.KYCStatusResponse, error)
	CompleteStep(ctx context.Context, userID uuid.UUID, step entities.KYCStep, data map[string]interface{}) (*entities.KYCVerification, error)
	CalculateScore(ctx context.Context, userID uuid.UUID) (*entities.RiskAssessment, error)
}

type IdentityService interface {
	Verify(ctx context.Context, userID uuid.UUID, input *entities.VerifyIdentityInput) (*usecases.IdentityVerificationResult, error)
}

type PhoneService interface {
	SendCode(ctx context.Context, userID uuid.UUID, phoneNumber string) error
	VerifyCode(ctx context.Context, userID uuid.UUID, code string) error
}

// KYCHandler handles the verification workflow endpoints
type KYCHandler struct {
	kyc      KYCService
	identity IdentityService
	phone    PhoneService
}

// NewKYCHandler creates a new KYC handler
func NewKYCHandler(kyc KYCService, identity IdentityService, phone PhoneService) *KYCHandler {
	return &KYCHandler{kyc: kyc, identity: identity, phone: phone}
}

// Start opens a KYC verification for the current user
// POST /api/v1/kyc/start
func (h *KYCHandler) Start(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	metadata := entities.KYCMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}

	verification, err := h.kyc.Start(c.Request.Context(), userID, metadata)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "KYC verification started", gin.H{"verification": verification})
}

// GetStatus returns the current verification with progress
// GET /api/v1/kyc/status
func (h *KYCHandler) GetStatus(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	status, err := h.kyc.GetStatus(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "KYC status retrieved", status)
}

// CompleteStep records a finished workflow step
// POST /api/v1/kyc/complete-step
func (h *KYCHandler) CompleteStep(c *gin.Context) {
	var input entities.CompleteStepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	verification, err := h.kyc.CompleteStep(c.Request.Context(), userID, input.Step, input.Data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "step completed", gin.H{
		"verification": verification,
		"progress":     verification.Progress(),
	})
}

// VerifyIdentity submits identity evidence
// POST /api/v1/kyc/verify-identity
func (h *KYCHandler) VerifyIdentity(c *gin.Context) {
	var input entities.VerifyIdentityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	result, err := h.identity.Verify(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "identity verification completed", result)
}

// SendPhoneCode issues an SMS challenge
// POST /api/v1/kyc/send-phone-code
func (h *KYCHandler) SendPhoneCode(c *gin.Context) {
	var input entities.SendPhoneCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	if err := h.phone.SendCode(c.Request.Context(), userID, input.PhoneNumber); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "verification code sent", nil)
}

// VerifyPhone answers an SMS challenge
// POST /api/v1/kyc/verify-phone
func (h *KYCHandler) VerifyPhone(c *gin.Context) {
	var input entities.VerifyPhoneCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	if err := h.phone.VerifyCode(c.Request.Context(), userID, input.Code); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "phone number verified", nil)
}

// CalculateScore returns the risk assessment for a completed verification
// GET /api/v1/kyc/calculate-score
func (h *KYCHandler) CalculateScore(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	assessment, err := h.kyc.CalculateScore(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "risk score calculated", gin.H{"riskAssessment": assessment})
}
