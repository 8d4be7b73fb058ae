package usecases

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/domain/entities"
	"ekyc.backend/pkg/logger"
)

// requiredDocumentTypes is how many document types a complete KYC
// file must carry (national id, selfie, business registration).
const requiredDocumentTypes = 3

// RiskScorer computes the composite KYC risk assessment from the
// verification record and the user's document statistics.
type RiskScorer struct {
	documents collaborators.DocumentService
	now       func() time.Time
}

func NewRiskScorer(documents collaborators.DocumentService) *RiskScorer {
	return &RiskScorer{documents: documents, now: time.Now}
}

// Calculate weighs identity evidence (40%), phone verification (20%),
// document quality (25%) and behavioral signals (15%).
func (s *RiskScorer) Calculate(ctx context.Context, v *entities.KYCVerification) *entities.RiskAssessment {
	identityScore := s.identityScore(v.IdentityVerification)
	phoneScore := s.phoneScore(v.PhoneVerification)
	documentScore := s.documentScore(ctx, v)
	behavioralScore := s.behavioralScore(v)

	factors := []entities.RiskFactor{
		{Factor: "Identity Verification", Weight: 0.4, Score: identityScore, Description: "Face matching, document authenticity, and NFC verification"},
		{Factor: "Phone Verification", Weight: 0.2, Score: phoneScore, Description: "SMS verification completion"},
		{Factor: "Document Quality", Weight: 0.25, Score: documentScore, Description: "Document authenticity and OCR confidence"},
		{Factor: "Behavioral Analysis", Weight: 0.15, Score: behavioralScore, Description: "User behavior during KYC process"},
	}

	total := 0.0
	for _, f := range factors {
		total += f.Score * f.Weight
	}
	score := int(math.Round(total))

	return &entities.RiskAssessment{
		Score:          score,
		Level:          kycRiskLevel(score),
		Factors:        factors,
		Recommendation: kycRecommendation(score),
		CalculatedAt:   s.now(),
	}
}

func (s *RiskScorer) identityScore(iv *entities.IdentityVerification) float64 {
	if iv == nil {
		return 0
	}

	score := 0.0
	if iv.FaceMatchScore > 0 {
		score += float64(iv.FaceMatchScore) * 0.5
	}
	if iv.NFCVerified {
		score += 30
	}
	if iv.ExtractedInfo.FullName != "" {
		score += 20
	}
	return math.Min(score, 100)
}

func (s *RiskScorer) phoneScore(pv *entities.PhoneVerification) float64 {
	if pv != nil && pv.IsVerified {
		return 100
	}
	return 0
}

// documentScore falls back to a neutral 50 when the document service
// cannot be reached, so one flaky collaborator never blocks scoring.
func (s *RiskScorer) documentScore(ctx context.Context, v *entities.KYCVerification) float64 {
	stats, err := s.documents.GetStats(ctx, v.UserID)
	if err != nil {
		logger.WithContext(ctx).Warn("document stats unavailable, using neutral score",
			zap.String("user_id", v.UserID.String()),
			zap.Error(err),
		)
		return 50
	}
	if stats.Total == 0 {
		return 0
	}

	score := float64(stats.Verified) / float64(stats.Total) * 70
	score += float64(stats.RequiredTypes) / requiredDocumentTypes * 30
	return math.Min(score, 100)
}

func (s *RiskScorer) behavioralScore(v *entities.KYCVerification) float64 {
	score := 100.0

	if v.PhoneVerification != nil && v.PhoneVerification.Attempts > 2 {
		score -= 20
	}

	end := s.now()
	if v.CompletedAt != nil {
		end = *v.CompletedAt
	}
	completionMinutes := end.Sub(v.CreatedAt).Minutes()
	if completionMinutes < 5 {
		score -= 30
	} else if completionMinutes > 60*24 {
		score -= 10
	}

	allSteps := true
	for _, step := range []entities.KYCStep{
		entities.StepProfileSetup,
		entities.StepDocumentUpload,
		entities.StepIdentityVerification,
		entities.StepPhoneVerification,
	} {
		if !v.IsStepCompleted(step) {
			allSteps = false
			break
		}
	}
	if allSteps {
		score += 10
	}

	return math.Max(0, math.Min(score, 100))
}

func kycRiskLevel(score int) entities.RiskLevel {
	switch {
	case score >= 85:
		return entities.RiskLevelLow
	case score >= 70:
		return entities.RiskLevelMedium
	case score >= 50:
		return entities.RiskLevelHigh
	}
	return entities.RiskLevelVeryHigh
}

func kycRecommendation(score int) entities.Recommendation {
	switch {
	case score >= 80:
		return entities.RecommendationApprove
	case score >= 60:
		return entities.RecommendationReview
	}
	return entities.RecommendationReject
}
