package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/shiftledger/internal/config"
	"github.com/huangang/shiftledger/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	invoiceBatchLock    = "invoice_batch"
	invoiceBatchLockTTL = 6 * time.Hour
)

// InvoiceScheduler enqueues the periodic invoice batch for the window that
// just closed. Instances coordinate through SchedulerLockService so each
// window is enqueued once.
type InvoiceScheduler struct {
	cfg     *config.InvoiceConfig
	queue   TaskQueue
	locks   *SchedulerLockService
	owner   string
	now     func() time.Time
	cron    *cron.Cron
	entryID cron.EntryID
}

func NewInvoiceScheduler(cfg *config.InvoiceConfig, queue TaskQueue, locks *SchedulerLockService) *InvoiceScheduler {
	return &InvoiceScheduler{
		cfg:   cfg,
		queue: queue,
		locks: locks,
		owner: uuid.NewString(),
		now:   time.Now,
	}
}

// SetClock replaces the time source.
func (s *InvoiceScheduler) SetClock(now func() time.Time) {
	s.now = now
}

func (s *InvoiceScheduler) Start() error {
	s.cron = cron.New(cron.WithLocation(s.cfg.Location()))

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			logger.Errorf("[InvoiceScheduler] Run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid invoice schedule %q: %w", s.cfg.Schedule, err)
	}
	s.entryID = entryID

	s.cron.Start()
	logger.Infof("[InvoiceScheduler] Scheduler started (cron: %s, tz: %s)", s.cfg.Schedule, s.cfg.Location())
	return nil
}

// Stop waits for a running job to finish.
func (s *InvoiceScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// RunOnce enqueues the batch for the default window ending yesterday.
// It reports false when another instance already claimed the window.
func (s *InvoiceScheduler) RunOnce(ctx context.Context) (bool, error) {
	loc := s.cfg.Location()
	from, to := DefaultWindow(s.now(), s.cfg.WindowDays, loc)
	key := from.In(loc).Format(dateLayout) + ".." + to.In(loc).Format(dateLayout)

	acquired, err := s.locks.TryAcquire(ctx, invoiceBatchLock, key, s.owner, invoiceBatchLockTTL)
	if err != nil {
		return false, err
	}
	if !acquired {
		logger.Infof("[InvoiceScheduler] Window %s already claimed, skipping", key)
		return false, nil
	}

	if err := s.queue.Enqueue(ctx, &InvoiceBatchTask{From: from, To: to}); err != nil {
		if relErr := s.locks.Release(ctx, invoiceBatchLock, key, s.owner); relErr != nil {
			logger.Warnf("[InvoiceScheduler] Release lock %s: %v", key, relErr)
		}
		return false, fmt.Errorf("enqueue invoice batch: %w", err)
	}

	logger.Infof("[InvoiceScheduler] Enqueued invoice batch for %s", key)
	return true, nil
}
