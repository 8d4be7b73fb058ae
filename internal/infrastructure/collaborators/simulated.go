package collaborators

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ekyc.backend/internal/domain/collaborators"
	"ekyc.backend/pkg/logger"
)

// newRand returns r, or a time-seeded source when r is nil.
// Tests inject a fixed seed to make outcomes deterministic.
func newRand(r *rand.Rand) *rand.Rand {
	if r != nil {
		return r
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// SimulatedSMSSender logs the message instead of delivering it.
// Used in development and whenever no SMS provider is configured.
type SimulatedSMSSender struct{}

func NewSimulatedSMSSender() *SimulatedSMSSender {
	return &SimulatedSMSSender{}
}

func (s *SimulatedSMSSender) SendVerificationCode(ctx context.Context, phoneNumber, code string) (*collaborators.SMSResult, error) {
	logger.WithContext(ctx).Info("sms simulation",
		zap.String("phone", maskPhone(phoneNumber)),
		zap.String("code", code),
	)
	return &collaborators.SMSResult{
		MessageID: fmt.Sprintf("sim_%d", time.Now().UnixMilli()),
		Simulated: true,
	}, nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return "****" + phone[len(phone)-4:]
}

// SimulatedFaceMatcher produces a confidence score in the 80-99 range
type SimulatedFaceMatcher struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSimulatedFaceMatcher(r *rand.Rand) *SimulatedFaceMatcher {
	return &SimulatedFaceMatcher{r: newRand(r)}
}

func (m *SimulatedFaceMatcher) Compare(ctx context.Context, idDocumentPath, selfiePath string) (*collaborators.FaceMatchResult, error) {
	m.mu.Lock()
	score := m.r.Intn(20) + 80
	m.mu.Unlock()

	return &collaborators.FaceMatchResult{
		Score:     score,
		Match:     score >= 80,
		Simulated: true,
	}, nil
}

// SimulatedNFCVerifier approves most chip reads and echoes a
// plausible chip payload back
type SimulatedNFCVerifier struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSimulatedNFCVerifier(r *rand.Rand) *SimulatedNFCVerifier {
	return &SimulatedNFCVerifier{r: newRand(r)}
}

func (v *SimulatedNFCVerifier) Verify(ctx context.Context, userID, idDocumentID uuid.UUID) (*collaborators.NFCResult, error) {
	v.mu.Lock()
	ok := v.r.Float64() < 0.9
	v.mu.Unlock()

	if !ok {
		return &collaborators.NFCResult{Verified: false}, nil
	}
	return &collaborators.NFCResult{
		Verified:         true,
		DocumentNumber:   fmt.Sprintf("ID%08d", idDocumentID.ID()),
		DigitalSignature: true,
		CertificateValid: true,
	}, nil
}
