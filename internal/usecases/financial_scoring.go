package usecases

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"ekyc.backend/internal/domain/entities"
)

// FinancialScoringService scores a banking snapshot on revenue,
// balance, activity, cash flow stability and credit history.
type FinancialScoringService struct{}

func NewFinancialScoringService() *FinancialScoringService {
	return &FinancialScoringService{}
}

func (s *FinancialScoringService) Score(data *entities.FinancialData) *entities.FinancialScore {
	net := decimal.Zero
	if data.CashFlow != nil {
		net = data.CashFlow.Net
	}
	bureauScore := 0
	if data.CreditHistory != nil {
		bureauScore = data.CreditHistory.Score
	}

	factors := []entities.ScoreFactor{
		{Factor: "Monthly Revenue", Value: data.MonthlyRevenue.String(), Weight: 0.3, Score: s.revenueScore(data.MonthlyRevenue)},
		{Factor: "Average Balance", Value: data.AverageBalance.String(), Weight: 0.25, Score: s.balanceScore(data.AverageBalance)},
		{Factor: "Transaction Volume", Value: fmt.Sprintf("%d", data.TransactionVolume), Weight: 0.2, Score: s.volumeScore(data.TransactionVolume)},
		{Factor: "Cash Flow Stability", Value: net.String(), Weight: 0.15, Score: s.cashFlowScore(data.CashFlow)},
		{Factor: "Credit History", Value: fmt.Sprintf("%d", bureauScore), Weight: 0.1, Score: s.creditHistoryScore(data.CreditHistory)},
	}

	total := 0.0
	for _, f := range factors {
		total += f.Score * f.Weight
	}
	finalScore := int(math.Round(total))

	return &entities.FinancialScore{
		Score:           finalScore,
		Factors:         factors,
		RiskLevel:       financialRiskLevel(finalScore),
		Stability:       stabilityRating(finalScore),
		Recommendations: financialRecommendations(factors, finalScore),
	}
}

func (s *FinancialScoringService) revenueScore(revenue decimal.Decimal) float64 {
	if revenue.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	switch {
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(500000)):
		return 100
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(200000)):
		return 90
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(100000)):
		return 80
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(50000)):
		return 70
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(25000)):
		return 60
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(10000)):
		return 50
	case revenue.GreaterThanOrEqual(decimal.NewFromInt(5000)):
		return 40
	}
	return 30
}

func (s *FinancialScoringService) balanceScore(balance decimal.Decimal) float64 {
	if balance.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	switch {
	case balance.GreaterThanOrEqual(decimal.NewFromInt(200000)):
		return 100
	case balance.GreaterThanOrEqual(decimal.NewFromInt(100000)):
		return 90
	case balance.GreaterThanOrEqual(decimal.NewFromInt(50000)):
		return 80
	case balance.GreaterThanOrEqual(decimal.NewFromInt(25000)):
		return 70
	case balance.GreaterThanOrEqual(decimal.NewFromInt(10000)):
		return 60
	case balance.GreaterThanOrEqual(decimal.NewFromInt(5000)):
		return 50
	case balance.GreaterThanOrEqual(decimal.NewFromInt(2000)):
		return 40
	}
	return 30
}

func (s *FinancialScoringService) volumeScore(volume int) float64 {
	if volume <= 0 {
		return 0
	}
	switch {
	case volume >= 500:
		return 100
	case volume >= 250:
		return 90
	case volume >= 100:
		return 80
	case volume >= 50:
		return 70
	case volume >= 25:
		return 60
	case volume >= 10:
		return 50
	}
	return 40
}

// cashFlowScore is neutral without data, punitive on negative net,
// and otherwise graded on the net-to-inflow ratio.
func (s *FinancialScoringService) cashFlowScore(cf *entities.CashFlow) float64 {
	if cf == nil || cf.Net.IsZero() {
		return 50
	}
	if cf.Net.LessThanOrEqual(decimal.Zero) {
		return 20
	}
	if cf.Inflow.LessThanOrEqual(decimal.Zero) {
		return 40
	}

	ratio, _ := cf.Net.Div(cf.Inflow).Float64()
	switch {
	case ratio >= 0.3:
		return 100
	case ratio >= 0.2:
		return 85
	case ratio >= 0.15:
		return 75
	case ratio >= 0.1:
		return 65
	case ratio >= 0.05:
		return 55
	}
	return 40
}

func (s *FinancialScoringService) creditHistoryScore(h *entities.CreditHistory) float64 {
	if h == nil {
		return 50
	}

	score := 0.0
	switch {
	case h.Score >= 750:
		score += 40
	case h.Score >= 700:
		score += 35
	case h.Score >= 650:
		score += 30
	case h.Score >= 600:
		score += 25
	default:
		score += 20
	}

	switch {
	case h.PaymentHistory >= 95:
		score += 30
	case h.PaymentHistory >= 90:
		score += 25
	case h.PaymentHistory >= 85:
		score += 20
	default:
		score += 15
	}

	switch {
	case h.CreditUtilization <= 10:
		score += 20
	case h.CreditUtilization <= 30:
		score += 15
	case h.CreditUtilization <= 50:
		score += 10
	default:
		score += 5
	}

	switch {
	case h.CreditAgeYears >= 5:
		score += 10
	case h.CreditAgeYears >= 2:
		score += 7
	default:
		score += 5
	}
	return score
}

func financialRiskLevel(score int) entities.RiskLevel {
	switch {
	case score >= 80:
		return entities.RiskLevelLow
	case score >= 60:
		return entities.RiskLevelMedium
	case score >= 40:
		return entities.RiskLevelHigh
	}
	return entities.RiskLevelVeryHigh
}

func stabilityRating(score int) string {
	switch {
	case score >= 85:
		return "excellent"
	case score >= 70:
		return "good"
	case score >= 55:
		return "fair"
	case score >= 40:
		return "poor"
	}
	return "very_poor"
}

func financialRecommendations(factors []entities.ScoreFactor, finalScore int) []string {
	var recs []string
	for _, f := range factors {
		if f.Score >= 50 {
			continue
		}
		switch f.Factor {
		case "Monthly Revenue":
			recs = append(recs, "Consider strategies to increase monthly revenue through business expansion or new revenue streams")
		case "Average Balance":
			recs = append(recs, "Maintain higher cash reserves to improve financial stability")
		case "Transaction Volume":
			recs = append(recs, "Increase business activity and transaction frequency")
		case "Cash Flow Stability":
			recs = append(recs, "Improve cash flow management and reduce unnecessary expenses")
		case "Credit History":
			recs = append(recs, "Build credit history through timely payments and responsible credit usage")
		}
	}
	switch {
	case finalScore < 60:
		recs = append(recs,
			"Consider working with a financial advisor to improve overall financial health",
			"Focus on building business revenue and maintaining consistent cash flow",
		)
	case finalScore < 80:
		recs = append(recs, "Continue current financial practices while looking for improvement opportunities")
	}
	return recs
}
