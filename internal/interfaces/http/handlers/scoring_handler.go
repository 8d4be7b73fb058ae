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
)

type PreliminaryScoringService interface {
	Preliminary(ctx context.Context, userID uuid.UUID, input *entities.PreliminaryScoreInput) (*entities.PreliminaryScore, error)
}

// ScoringHandler handles the no-commitment score estimate endpoint
type ScoringHandler struct {
	scoring PreliminaryScoringService
}

// NewScoringHandler creates a new scoring handler
func NewScoringHandler(scoring PreliminaryScoringService) *ScoringHandler {
	return &ScoringHandler{scoring: scoring}
}

// Preliminary estimates creditworthiness from self-reported data
// POST /api/v1/scoring/calculate-preliminary
func (h *ScoringHandler) Preliminary(c *gin.Context) {
	var input entities.PreliminaryScoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperrors.BadRequest(err.Error()))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, apperrors.Unauthorized("user not authenticated"))
		return
	}

	score, err := h.scoring.Preliminary(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, "preliminary score calculated", gin.H{"preliminaryScore": score})
}
