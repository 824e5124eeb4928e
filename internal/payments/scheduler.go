package payments

import (
	"context"
	"log"
	"time"
)

// Scheduler drives the two periodic reconciliation tasks: the confirmation
// sweep against the ledger and the expiry sweep. The two run independently so
// a slow ledger poll never delays expirations.
type Scheduler struct {
	svc             *Service
	confirmInterval time.Duration
	expiryInterval  time.Duration
}

func NewScheduler(svc *Service, confirmInterval, expiryInterval time.Duration) *Scheduler {
	return &Scheduler{
		svc:             svc,
		confirmInterval: confirmInterval,
		expiryInterval:  expiryInterval,
	}
}

// Start launches both sweep loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx, "confirmation sweep", s.confirmInterval, func(ctx context.Context) {
		s.svc.ConfirmSweep(ctx)
	})
	go s.run(ctx, "expiry sweep", s.expiryInterval, func(ctx context.Context) {
		s.svc.ExpirySweep(ctx)
	})
}

func (s *Scheduler) run(ctx context.Context, name string, interval time.Duration, task func(context.Context)) {
	log.Printf("[SCHEDULER] [INFO] %s every %s", name, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[SCHEDULER] [INFO] %s stopped", name)
			return
		case <-ticker.C:
			task(ctx)
		}
	}
}
