// Package lifecycle enforces wallet expiry with per-wallet timers and a periodic sweep.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/metrics"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/sirupsen/logrus"
)

const DefaultSweepInterval = 60 * time.Second

// WalletStore is the part of the vault the scheduler needs.
type WalletStore interface {
	List() ([]model.PrivacyWallet, error)
	Delete(id string) (bool, error)
}

// RecoveryCreator creates recovery records for wallets close to expiry.
type RecoveryCreator interface {
	Pending(now time.Time) ([]model.PrivacyWallet, error)
	List(walletID string) ([]model.FundRecoveryRecord, error)
	CreateRecovery(walletID, recoveryAddress string, reason model.RecoveryReason) (*model.FundRecoveryRecord, error)
}

// Options configures a Scheduler. Zero values fall back to defaults.
type Options struct {
	Interval time.Duration
	Now      func() time.Time
	// Recovery runs on every sweep when RecoveryAddress is set. Each wallet gets at most
	// one expiring record from the scheduler.
	Recovery        RecoveryCreator
	RecoveryAddress string
}

type armedTimer struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler deletes expired wallets. A timer armed per wallet fires at its expiry and a
// periodic sweep catches every wallet whose timer was lost, e.g. across a restart.
// Both paths go through the idempotent vault Delete.
type Scheduler struct {
	vault    WalletStore
	logger   *logrus.Logger
	interval time.Duration
	now      func() time.Time

	recovery        RecoveryCreator
	recoveryAddress string

	mu       sync.Mutex
	timers   map[string]armedTimer
	nextGen  uint64
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewScheduler(vault WalletStore, logger *logrus.Logger, opts Options) *Scheduler {
	s := &Scheduler{
		vault:           vault,
		logger:          logger,
		interval:        opts.Interval,
		now:             opts.Now,
		recovery:        opts.Recovery,
		recoveryAddress: opts.RecoveryAddress,
		timers:          make(map[string]armedTimer),
	}
	if s.interval <= 0 {
		s.interval = DefaultSweepInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start runs an initial sweep, re-arms timers of the stored wallets and starts the sweep loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.logger.WithField("interval", s.interval.String()).Info("Lifecycle scheduler starting")

	if _, err := s.Sweep(ctx, s.now()); err != nil {
		s.logger.WithError(err).Error("Initial sweep failed")
	}
	wallets, err := s.vault.List()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list wallets for re-arming")
	} else {
		for i := range wallets {
			s.Arm(&wallets[i])
		}
	}

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop halts the sweep loop and cancels every armed timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	for id, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, id)
	}
	metrics.ArmedTimers.Set(0)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Lifecycle scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx, s.now()); err != nil {
				s.logger.WithError(err).Error("Scheduled sweep failed")
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Arm schedules deletion of w at its expiry. Wallets without auto cleanup are left to the sweep.
// Re-arming a wallet replaces its previous timer.
func (s *Scheduler) Arm(w *model.PrivacyWallet) {
	if !w.AutoCleanup {
		return
	}
	id := w.ID
	delay := w.ExpiresAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[id]; ok {
		old.timer.Stop()
	}
	s.nextGen++
	gen := s.nextGen
	s.timers[id] = armedTimer{timer: time.AfterFunc(delay, func() { s.fire(id, gen) }), gen: gen}
	metrics.ArmedTimers.Set(float64(len(s.timers)))
}

// Disarm cancels the timer of a wallet deleted through another path.
func (s *Scheduler) Disarm(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.timers[id]; ok {
		a.timer.Stop()
		delete(s.timers, id)
		metrics.ArmedTimers.Set(float64(len(s.timers)))
	}
}

func (s *Scheduler) fire(id string, gen uint64) {
	s.mu.Lock()
	if a, ok := s.timers[id]; ok && a.gen == gen {
		delete(s.timers, id)
		metrics.ArmedTimers.Set(float64(len(s.timers)))
	}
	s.mu.Unlock()

	deleted, err := s.vault.Delete(id)
	if err != nil {
		// the sweep retries
		s.logger.WithError(err).WithField("wallet_id", id).Error("Expiry timer failed to delete wallet")
		return
	}
	if deleted {
		metrics.WalletsDeleted.WithLabelValues("timer").Inc()
		s.logger.WithField("wallet_id", id).Info("Wallet expired")
	}
}

// Sweep deletes every wallet with expiresAt <= now and returns how many were removed.
// A failed delete is logged and the sweep continues; the first such error is returned.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	wallets, err := s.vault.List()
	if err != nil {
		return 0, err
	}

	var firstErr error
	removed := 0
	for i := range wallets {
		w := &wallets[i]
		if !w.ExpiredAt(now) {
			continue
		}
		deleted, err := s.vault.Delete(w.ID)
		if err != nil {
			s.logger.WithError(err).WithField("wallet_id", w.ID).Error("Sweep failed to delete wallet")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.Disarm(w.ID)
		if deleted {
			removed++
			metrics.WalletsDeleted.WithLabelValues("sweep").Inc()
		}
	}
	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"removed": removed,
			"at":      now.UTC().Format(time.RFC3339),
		}).Info("Sweep removed expired wallets")
	}

	if s.recovery != nil && s.recoveryAddress != "" {
		created, err := s.sweepRecoveries(ctx, now)
		if err != nil {
			s.logger.WithError(err).Error("Recovery sweep failed")
		} else if created > 0 {
			s.logger.WithField("recoveries", created).Info("Recovery sweep created records")
		}
	}
	return removed, firstErr
}

// sweepRecoveries creates an expiring record for each pending wallet that has none yet.
// A wallet whose records cannot be read or written counts as a recovery failure.
func (s *Scheduler) sweepRecoveries(ctx context.Context, now time.Time) (int, error) {
	wallets, err := s.recovery.Pending(now)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, w := range wallets {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		recs, err := s.recovery.List(w.ID)
		if err != nil {
			metrics.RecoveryFailures.Inc()
			s.logger.WithError(err).WithField("wallet_id", w.ID).Error("Failed to read recovery records")
			continue
		}
		if hasReason(recs, model.RecoveryExpiring) {
			continue
		}
		if _, err := s.recovery.CreateRecovery(w.ID, s.recoveryAddress, model.RecoveryExpiring); err != nil {
			metrics.RecoveryFailures.Inc()
			s.logger.WithError(err).WithField("wallet_id", w.ID).Error("Failed to create recovery record")
			continue
		}
		created++
	}
	return created, nil
}

func hasReason(recs []model.FundRecoveryRecord, reason model.RecoveryReason) bool {
	for _, r := range recs {
		if r.Reason == reason {
			return true
		}
	}
	return false
}
