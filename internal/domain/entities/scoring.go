package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// BusinessInfo is the company profile used by business scoring.
// It comes from the user-profile service, not from this store.
type BusinessInfo struct {
	CompanyName        string          `json:"companyName,omitempty"`
	Sector             string          `json:"sector,omitempty"`
	YearEstablished    int             `json:"yearEstablished,omitempty"`
	NumberOfEmployees  int             `json:"numberOfEmployees,omitempty"`
	AnnualRevenue      decimal.Decimal `json:"annualRevenue"`
	RegistrationNumber string          `json:"registrationNumber,omitempty"`
}

// BusinessScore is the result of scoring a company profile
type BusinessScore struct {
	Score           int           `json:"score"`
	Factors         []ScoreFactor `json:"factors"`
	RiskLevel       RiskLevel     `json:"riskLevel"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// CreditHistory is prior-credit data used by financial scoring
type CreditHistory struct {
	Score             int     `json:"score"`
	PaymentHistory    float64 `json:"paymentHistory"`
	CreditUtilization float64 `json:"creditUtilization"`
	CreditAgeYears    int     `json:"creditAgeYears"`
}

// FinancialData is the banking snapshot used by financial scoring
type FinancialData struct {
	MonthlyRevenue    decimal.Decimal `json:"monthlyRevenue"`
	AverageBalance    decimal.Decimal `json:"averageBalance"`
	TransactionVolume int             `json:"transactionVolume"`
	CashFlow          *CashFlow       `json:"cashFlow,omitempty"`
	CreditHistory     *CreditHistory  `json:"creditHistory,omitempty"`
}

// FinancialScore is the result of scoring a banking snapshot
type FinancialScore struct {
	Score           int           `json:"score"`
	Factors         []ScoreFactor `json:"factors"`
	RiskLevel       RiskLevel     `json:"riskLevel"`
	Stability       string        `json:"stability"`
	Recommendations []string      `json:"recommendations,omitempty"`
}

// PreliminaryScore combines business and financial scores before
// a full application exists
type PreliminaryScore struct {
	Score          int             `json:"score"`
	Business       *BusinessScore  `json:"business"`
	Financial      *FinancialScore `json:"financial"`
	RiskLevel      RiskLevel       `json:"riskLevel"`
	Recommendation Recommendation  `json:"recommendation"`
	CalculatedAt   time.Time       `json:"calculatedAt"`
}
