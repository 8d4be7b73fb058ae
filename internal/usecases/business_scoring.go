package usecases

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"ekyc.backend/internal/domain/entities"
)

// sectorScores ranks business sectors by credit risk
var sectorScores = map[string]float64{
	"Technology":    95,
	"Healthcare":    90,
	"Education":     85,
	"Finance":       80,
	"Manufacturing": 75,
	"Commerce":      70,
	"Services":      70,
	"Real Estate":   65,
	"Agriculture":   60,
	"Tourism":       55,
	"Construction":  50,
	"Transport":     50,
	"Other":         45,
}

const unknownSectorScore = 45

// BusinessScoringService scores a company profile on sector, age,
// size, revenue and legal compliance.
type BusinessScoringService struct {
	now func() time.Time
}

func NewBusinessScoringService() *BusinessScoringService {
	return &BusinessScoringService{now: time.Now}
}

// Score computes the weighted business score. A nil profile scores
// zero at very_high risk.
func (s *BusinessScoringService) Score(info *entities.BusinessInfo) *entities.BusinessScore {
	if info == nil {
		return &entities.BusinessScore{
			Score:     0,
			Factors:   []entities.ScoreFactor{},
			RiskLevel: entities.RiskLevelVeryHigh,
		}
	}

	currentYear := s.now().Year()
	businessAge := 0
	if info.YearEstablished > 0 {
		businessAge = currentYear - info.YearEstablished
	}

	factors := []entities.ScoreFactor{
		{Factor: "Business Sector", Value: info.Sector, Weight: 0.25, Score: s.sectorScore(info.Sector)},
		{Factor: "Business Age", Value: fmt.Sprintf("%d", businessAge), Weight: 0.25, Score: s.ageScore(info.YearEstablished, currentYear)},
		{Factor: "Company Size", Value: fmt.Sprintf("%d", info.NumberOfEmployees), Weight: 0.2, Score: s.sizeScore(info.NumberOfEmployees)},
		{Factor: "Annual Revenue", Value: info.AnnualRevenue.String(), Weight: 0.2, Score: s.revenueScore(info.AnnualRevenue)},
		{Factor: "Legal Compliance", Value: complianceLabel(info.RegistrationNumber), Weight: 0.1, Score: s.complianceScore(info.RegistrationNumber)},
	}

	total := 0.0
	for _, f := range factors {
		total += f.Score * f.Weight
	}
	finalScore := int(math.Round(total))

	return &entities.BusinessScore{
		Score:           finalScore,
		Factors:         factors,
		RiskLevel:       businessRiskLevel(finalScore),
		Recommendations: businessRecommendations(factors, finalScore),
	}
}

func (s *BusinessScoringService) sectorScore(sector string) float64 {
	if score, ok := sectorScores[sector]; ok {
		return score
	}
	return unknownSectorScore
}

func (s *BusinessScoringService) ageScore(yearEstablished, currentYear int) float64 {
	if yearEstablished <= 0 {
		return 30
	}
	age := currentYear - yearEstablished
	switch {
	case age >= 10:
		return 100
	case age >= 5:
		return 85
	case age >= 3:
		return 70
	case age >= 2:
		return 60
	case age >= 1:
		return 50
	}
	return 40
}

func (s *BusinessScoringService) sizeScore(employees int) float64 {
	if employees <= 0 {
		return 40
	}
	switch {
	case employees >= 50:
		return 100
	case employees >= 20:
		return 90
	case employees >= 10:
		return 80
	case employees >= 5:
		return 70
	case employees >= 2:
		return 60
	}
	return 50
}

func (s *BusinessScoringService) revenueScore(revenue decimal.Decimal) float64 {
	if revenue.LessThanOrEqual(decimal.Zero) {
		return 30
	}
	switch {
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(10000000)):
		return 100
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(5000000)):
		return 90
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(2000000)):
		return 80
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(1000000)):
		return 70
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(500000)):
		return 60
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(200000)):
		return 50
	}
	return 40
}

func (s *BusinessScoringService) complianceScore(registrationNumber string) float64 {
	if registrationNumber != "" {
		return 100
	}
	return 30
}

func complianceLabel(registrationNumber string) string {
	if registrationNumber != "" {
		return "Registered"
	}
	return "Not Registered"
}

func businessRiskLevel(score int) entities.RiskLevel {
	switch {
	case score >= 80:
		return entities.RiskLevelLow
	case score >= 65:
		return entities.RiskLevelMedium
	case score >= 45:
		return entities.RiskLevelHigh
	}
	return entities.RiskLevelVeryHigh
}

func businessRecommendations(factors []entities.ScoreFactor, finalScore int) []string {
	var recs []string
	for _, f := range factors {
		if f.Score >= 60 {
			continue
		}
		switch f.Factor {
		case "Business Sector":
			recs = append(recs, "Consider diversifying into higher-growth sectors or adding value-added services")
		case "Business Age":
			recs = append(recs, "Focus on building business stability and track record over time")
		case "Company Size":
			recs = append(recs, "Consider strategic hiring to grow the business and increase operational capacity")
		case "Annual Revenue":
			recs = append(recs, "Develop strategies to increase annual revenue through market expansion or new products")
		case "Legal Compliance":
			recs = append(recs, "Ensure proper business registration and maintain compliance with regulations")
		}
	}
	if finalScore < 65 {
		recs = append(recs,
			"Focus on business fundamentals: registration, steady revenue, and operational efficiency",
			"Consider business mentoring or consulting to improve overall business performance",
		)
	}
	return recs
}
