package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/wishlist-backend/internal/app/repository"
	"github.com/ikkim/wishlist-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Auditor re-checks the ledger invariant over committed data.
type Auditor interface {
	Audit(ctx context.Context) ([]repository.LedgerViolation, error)
}

// LedgerAuditScheduler runs the ledger audit on a cron schedule and reports
// every violation it finds.
type LedgerAuditScheduler struct {
	cron     *cron.Cron
	auditor  Auditor
	schedule string
	timeout  time.Duration
}

func NewLedgerAuditScheduler(auditor Auditor, schedule string) *LedgerAuditScheduler {
	return &LedgerAuditScheduler{
		cron:     cron.New(),
		auditor:  auditor,
		schedule: schedule,
		timeout:  5 * time.Minute,
	}
}

func (s *LedgerAuditScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for ledger audit", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Ledger audit scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce audits the ledger now. It returns the number of violations found,
// or -1 when the audit itself failed.
func (s *LedgerAuditScheduler) RunOnce(ctx context.Context) int {
	logger.Debug("Starting ledger audit")

	violations, err := s.auditor.Audit(ctx)
	if err != nil {
		logger.Error("Ledger audit failed", err)
		return -1
	}

	for _, v := range violations {
		logger.Error("Ledger invariant violated", nil, map[string]interface{}{
			"item_id": v.ItemID,
			"kind":    v.Kind,
			"detail":  v.Detail,
		})
	}
	if len(violations) == 0 {
		logger.Info("Ledger audit passed")
	}
	return len(violations)
}

// Stop waits for a running audit to finish.
func (s *LedgerAuditScheduler) Stop() {
	logger.Info("Stopping ledger audit scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Ledger audit scheduler stopped")
}
