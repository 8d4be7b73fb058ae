package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationStatus represents the lifecycle status of a credit application
type ApplicationStatus string

const (
	ApplicationStatusDraft       ApplicationStatus = "draft"
	ApplicationStatusSubmitted   ApplicationStatus = "submitted"
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	ApplicationStatusApproved    ApplicationStatus = "approved"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusCancelled   ApplicationStatus = "cancelled"
)

// LoanPurpose is the declared use of the requested funds
type LoanPurpose string

const (
	PurposeWorkingCapital LoanPurpose = "working_capital"
	PurposeEquipment      LoanPurpose = "equipment"
	PurposeExpansion      LoanPurpose = "expansion"
	PurposeRefinancing    LoanPurpose = "refinancing"
	PurposeOther          LoanPurpose = "other"
)

// IsValid reports whether p is a known loan purpose
func (p LoanPurpose) IsValid() bool {
	switch p {
	case PurposeWorkingCapital, PurposeEquipment, PurposeExpansion, PurposeRefinancing, PurposeOther:
		return true
	}
	return false
}

// ConnectionStatus for the bank connection sub-record
type ConnectionStatus string

const (
	ConnectionPending   ConnectionStatus = "pending"
	ConnectionConnected ConnectionStatus = "connected"
	ConnectionFailed    ConnectionStatus = "failed"
)

// BankConnection is the open-banking link sub-record
type BankConnection struct {
	Status            ConnectionStatus `json:"status"`
	BankName          string           `json:"bankName,omitempty"`
	ConnectionMethod  string           `json:"connectionMethod,omitempty"`
	AccountsConnected int              `json:"accountsConnected"`
	DataQuality       int              `json:"dataQuality"`
	LastSyncAt        *time.Time       `json:"lastSyncAt,omitempty"`
}

// AnalysisStatus for the financial analysis sub-record
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisAnalyzing AnalysisStatus = "analyzing"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// CashFlow summarizes monthly money movement on connected accounts
type CashFlow struct {
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// ScoreFactor is one weighted component of a computed score
type ScoreFactor struct {
	Factor string  `json:"factor"`
	Value  string  `json:"value,omitempty"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// FinancialHealth is the summary score attached to a completed analysis
type FinancialHealth struct {
	Score   int           `json:"score"`
	Factors []ScoreFactor `json:"factors,omitempty"`
}

// FinancialAnalysis is the banking-data analysis sub-record
type FinancialAnalysis struct {
	Status            AnalysisStatus   `json:"status"`
	MonthlyRevenue    decimal.Decimal  `json:"monthlyRevenue"`
	AverageBalance    decimal.Decimal  `json:"averageBalance"`
	TransactionVolume int              `json:"transactionVolume"`
	CashFlow          *CashFlow        `json:"cashFlow,omitempty"`
	FinancialHealth   *FinancialHealth `json:"financialHealth,omitempty"`
	AnalyzedAt        *time.Time       `json:"analyzedAt,omitempty"`
}

// CheckStatus for the identity check sub-record
type CheckStatus string

const (
	CheckPending   CheckStatus = "pending"
	CheckCompleted CheckStatus = "completed"
	CheckFailed    CheckStatus = "failed"
)

// IdentityCheck links the application to a completed KYC verification
type IdentityCheck struct {
	Status     CheckStatus `json:"status"`
	KYCID      uuid.UUID   `json:"kycId,omitempty"`
	KYCScore   int         `json:"kycScore,omitempty"`
	VerifiedAt *time.Time  `json:"verifiedAt,omitempty"`
}

// ScoreComponent is one weighted input of the final credit score
type ScoreComponent struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// CreditScoreComponents breaks the final score down by dimension
type CreditScoreComponents struct {
	Financial ScoreComponent `json:"financial"`
	Identity  ScoreComponent `json:"identity"`
	Business  ScoreComponent `json:"business"`
}

// CreditScoring is the composite credit score sub-record
type CreditScoring struct {
	FinalScore     int                   `json:"finalScore"`
	Components     CreditScoreComponents `json:"components"`
	RiskLevel      RiskLevel             `json:"riskLevel"`
	Recommendation Recommendation        `json:"recommendation"`
	CalculatedAt   time.Time             `json:"calculatedAt"`
}

// DecisionOutcome of a reviewed application
type DecisionOutcome string

const (
	DecisionApproved DecisionOutcome = "approved"
	DecisionRejected DecisionOutcome = "rejected"
	DecisionPending  DecisionOutcome = "pending"
)

// LoanTerms describe the offered facility on approval
type LoanTerms struct {
	DurationMonths     int    `json:"durationMonths"`
	PaymentSchedule    string `json:"paymentSchedule,omitempty"`
	CollateralRequired bool   `json:"collateralRequired"`
}

// Decision is the review outcome sub-record
type Decision struct {
	Outcome        DecisionOutcome `json:"outcome"`
	ApprovedAmount decimal.Decimal `json:"approvedAmount"`
	InterestRate   float64         `json:"interestRate,omitempty"`
	Terms          *LoanTerms      `json:"terms,omitempty"`
	Conditions     []string        `json:"conditions,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	DecidedBy      string          `json:"decidedBy,omitempty"`
	DecidedAt      *time.Time      `json:"decidedAt,omitempty"`
}

// CreditApplication is the per-user credit request aggregate
type CreditApplication struct {
	ID                   uuid.UUID          `json:"id"`
	UserID               uuid.UUID          `json:"userId"`
	ApplicationNumber    string             `json:"applicationNumber"`
	Status               ApplicationStatus  `json:"status"`
	Progress             int                `json:"progress"`
	RequestedAmount      decimal.Decimal    `json:"requestedAmount"`
	Purpose              LoanPurpose        `json:"purpose"`
	BankConnection       *BankConnection    `json:"bankConnection,omitempty"`
	FinancialAnalysis    *FinancialAnalysis `json:"financialAnalysis,omitempty"`
	IdentityVerification *IdentityCheck     `json:"identityVerification,omitempty"`
	CreditScoring        *CreditScoring     `json:"creditScoring,omitempty"`
	Decision             *Decision          `json:"decision,omitempty"`
	SubmittedAt          *time.Time         `json:"submittedAt,omitempty"`
	ReviewedAt           *time.Time         `json:"reviewedAt,omitempty"`
	ExpiresAt            time.Time          `json:"expiresAt"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// IsActive reports whether the application is still open
func (a *CreditApplication) IsActive() bool {
	switch a.Status {
	case ApplicationStatusDraft, ApplicationStatusSubmitted, ApplicationStatusUnderReview:
		return true
	}
	return false
}

// ComputeProgress derives the completion percentage from the
// state of the application's sub-records. Each of the four
// preparation milestones contributes a quarter.
func (a *CreditApplication) ComputeProgress() int {
	progress := 0
	if a.BankConnection != nil && a.BankConnection.Status == ConnectionConnected {
		progress += 25
	}
	if a.FinancialAnalysis != nil && a.FinancialAnalysis.Status == AnalysisCompleted {
		progress += 25
	}
	if a.IdentityVerification != nil && a.IdentityVerification.Status == CheckCompleted {
		progress += 25
	}
	if a.Status != ApplicationStatusDraft {
		progress += 25
	}
	return progress
}

// CanSubmit reports whether the application satisfies the submission guard
func (a *CreditApplication) CanSubmit() bool {
	return a.Status == ApplicationStatusDraft && a.ComputeProgress() >= 75
}
