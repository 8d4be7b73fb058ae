package jobs

import (
	"context"
	"log"
	"time"

	"ekyc.backend/internal/domain/repositories"
)

// ApplicationExpiryJob cancels draft applications past their window
type ApplicationExpiryJob struct {
	repo     repositories.CreditApplicationRepository
	interval time.Duration
	stop     chan struct{}
}

func NewApplicationExpiryJob(repo repositories.CreditApplicationRepository, interval time.Duration) *ApplicationExpiryJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ApplicationExpiryJob{
		repo:     repo,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (j *ApplicationExpiryJob) Start(ctx context.Context) {
	log.Println("🕐 Starting credit application expiry job...")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("⏹️ Credit application expiry job stopped (context cancelled)")
			return
		case <-j.stop:
			log.Println("⏹️ Credit application expiry job stopped")
			return
		case <-ticker.C:
			j.processExpired(ctx)
		}
	}
}

func (j *ApplicationExpiryJob) Stop() {
	close(j.stop)
}

func (j *ApplicationExpiryJob) processExpired(ctx context.Context) {
	n, err := j.repo.ExpireApplications(ctx)
	if err != nil {
		log.Printf("❌ Error expiring credit applications: %v", err)
		return
	}
	if n > 0 {
		log.Printf("✅ Expired %d credit applications", n)
	}
}
