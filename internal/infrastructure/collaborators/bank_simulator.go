package collaborators

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/internal/domain/entities"
)

// bankSuccessRates models how reliably each supported bank's API
// accepts a connection. Unknown banks fall back to 0.60.
var bankSuccessRates = map[string]float64{
	"Attijariwafa Bank":        0.95,
	"Banque Populaire":         0.90,
	"BMCE Bank":                0.88,
	"BMCI":                     0.85,
	"CIH Bank":                 0.82,
	"Crédit Agricole du Maroc": 0.80,
	"Société Générale Maroc":   0.78,
	"Bank of Africa":           0.75,
	"Crédit du Maroc":          0.72,
	"CFG Bank":                 0.70,
	"Al Barid Bank":            0.65,
}

const defaultBankSuccessRate = 0.60

// SimulatedBankConnector stands in for an open-banking aggregator.
// Connection outcomes and the financial snapshot are generated from
// an injectable random source.
type SimulatedBankConnector struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSimulatedBankConnector(r *rand.Rand) *SimulatedBankConnector {
	return &SimulatedBankConnector{r: newRand(r)}
}

func (c *SimulatedBankConnector) Connect(ctx context.Context, userID uuid.UUID, bankName string) (*collaborators.BankConnectionResult, error) {
	rate, known := bankSuccessRates[bankName]
	if !known {
		rate = defaultBankSuccessRate
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.r.Float64() >= rate {
		return &collaborators.BankConnectionResult{
			Connected:     false,
			BankName:      bankName,
			FailureReason: "bank connection failed",
		}, nil
	}
	return &collaborators.BankConnectionResult{
		Connected:         true,
		BankName:          bankName,
		AccountsConnected: c.r.Intn(3) + 1,
		DataQuality:       c.r.Intn(20) + 80,
	}, nil
}

// FetchFinancialData builds a twelve-month snapshot around a random
// base revenue, mirroring what an aggregator would report.
func (c *SimulatedBankConnector) FetchFinancialData(ctx context.Context, userID uuid.UUID) (*entities.FinancialData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	baseRevenue := float64(c.r.Intn(200000) + 50000)

	var totalRevenue, totalExpenses float64
	var totalTransactions int
	for i := 0; i < 12; i++ {
		revenue := baseRevenue * (1 + (c.r.Float64()-0.5)*0.2)
		expenses := revenue * (0.6 + c.r.Float64()*0.3)
		totalRevenue += revenue
		totalExpenses += expenses
		totalTransactions += c.r.Intn(100) + 50
	}

	inflow := decimal.NewFromFloat(totalRevenue).Round(0)
	outflow := decimal.NewFromFloat(totalExpenses).Round(0)
	data := &entities.FinancialData{
		MonthlyRevenue:    decimal.NewFromFloat(totalRevenue / 12).Round(0),
		AverageBalance:    decimal.NewFromFloat(baseRevenue * 0.3).Round(0),
		TransactionVolume: totalTransactions / 12,
		CashFlow: &entities.CashFlow{
			Inflow:  inflow,
			Outflow: outflow,
			Net:     inflow.Sub(outflow),
		},
	}

	// 70% of connections surface bureau data as well
	if c.r.Float64() < 0.7 {
		data.CreditHistory = &entities.CreditHistory{
			Score:             c.r.Intn(200) + 600,
			PaymentHistory:    float64(c.r.Intn(15) + 85),
			CreditUtilization: float64(c.r.Intn(40) + 10),
			CreditAgeYears:    c.r.Intn(8) + 1,
		}
	}
	return data, nil
}
