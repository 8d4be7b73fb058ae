package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ekyc.backend/internal/domain/entities"
	apperrors "ekyc.backend/internal/domain/errors"
	"ekyc.backend/internal/interfaces/http/middleware"
	"ekyc.backend/internal/interfaces/http/response"
	"ekyc.backend/internal/usecases"
	"ekyc.backend/pkg/utils"
)

type ApplicationService interface {
	Create(ctx context.Context, userID uuid.UUID, input *entities.CreateApplicationInput) (*entities.CreditApplication, error)
	Get(ctx context.Context, userID, applicationID uuid.UUID) (*entities.CreditApplication, error)
	List(ctx context.Context, userID uuid.UUID, params utils.PaginationParams) (*usecases.ApplicationListResult, error)
	UpdateStep(ctx context.Context, userID, applicationID uuid.UUID, step string, data map[string]interface{}) (*entities.CreditApplication, error)
	Submit(ctx context.Context, userID, applicationID uuid.UUID) (*entities.CreditApplication, error)
}

// ApplicationHandler handles credit application endpoints
type ApplicationHandler struct {
	applications ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(applications ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// Create opens a credit application for the current user
// POST /api/v1/scoring/applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	var input entities.CreateApplicationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	app, err := h.applications.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "credit application created", gin.H{"application": app})
}

// Get returns one application owned by the current user
// GET /api/v1/scoring/applications/:applicationId
func (h *ApplicationHandler) Get(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		response.Error(c, apperrors.BadRequest("invalid application ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	app, err := h.applications.Get(c.Request.Context(), userID, applicationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "application retrieved", gin.H{"application": app})
}

// List returns the current user's applications, newest first
// GET /api/v1/scoring/applications
func (h *ApplicationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	params := utils.GetPaginationParams(page, limit)

	result, err := h.applications.List(c.Request.Context(), userID, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "applications retrieved", result)
}

// UpdateStep advances one application milestone
// PUT /api/v1/scoring/applications/:applicationId/progress
func (h *ApplicationHandler) UpdateStep(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		response.Error(c, apperrors.BadRequest("invalid application ID"))
		return
	}

	var input entities.UpdateApplicationStepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	app, err := h.applications.UpdateStep(c.Request.Context(), userID, applicationID, input.Step, input.Data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "application progress updated", gin.H{
		"application": app,
		"progress":    app.Progress,
	})
}

// Submit finalizes the application and computes the credit score
// POST /api/v1/scoring/applications/:applicationId/submit
func (h *ApplicationHandler) Submit(c *gin.Context) {
	applicationID, err := uuid.Parse(c.Param("applicationId"))
	if err != nil {
		response.Error(c, apperrors.BadRequest("invalid application ID"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	app, err := h.applications.Submit(c.Request.Context(), userID, applicationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "application submitted", gin.H{
		"application":   app,
		"creditScoring": app.CreditScoring,
	})
}
