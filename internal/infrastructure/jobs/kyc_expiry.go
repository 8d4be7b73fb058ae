package jobs

import (
	"context"
	"log"
	"time"

	"ekyc.backend/internal/domain/repositories"
)

// KYCExpiryJob rejects verifications that outlived their window
type KYCExpiryJob struct {
	repo     repositories.KYCRepository
	interval time.Duration
	stop     chan struct{}
}

func NewKYCExpiryJob(repo repositories.KYCRepository, interval time.Duration) *KYCExpiryJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &KYCExpiryJob{
		repo:     repo,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *KYCExpiryJob) Start(ctx context.Context) {
	log.Println("🕐 Starting KYC expiry job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ KYC expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ KYC expiry job stopped")
			return
		case <-ticker.C:
			j.processExpired(ctx)
		}
	}
}

func (j *KYCExpiryJob) Stop() {
	close(j.stop)
}

func (j *KYCExpiryJob) processExpired(ctx context.Context) {
	n, err := j.repo.ExpireVerifications(ctx)
	if err != nil {
		log.Printf("❌ Error expiring KYC verifications: %v", err)
		return
	}
	if n > 0 {
		log.Printf("✅ Expired %d KYC verifications", n)
	}
}
