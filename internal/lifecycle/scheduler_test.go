package lifecycle

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/metrics"
	"github.com/AlexZinkM/privacy-wallet/internal/model"
	"github.com/AlexZinkM/privacy-wallet/internal/recovery"
	"github.com/AlexZinkM/privacy-wallet/internal/vault"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New(vault.NewMemoryStore(), quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return v
}

func createWallet(t *testing.T, v *vault.Vault, id string, createdAt time.Time, level model.PrivacyLevel) *model.PrivacyWallet {
	t.Helper()
	w := &model.PrivacyWallet{
		ID:               id,
		Name:             "Privacy Wallet - " + id,
		Addresses:        []model.AddressRecord{{ChainID: "near", Address: id + ".near"}},
		CreatedAt:        createdAt,
		ExpiresAt:        createdAt.Add(level.TTL()),
		PrivacyLevel:     level,
		DestinationChain: "near",
		SourceAmount:     decimal.NewFromInt(1),
		AutoCleanup:      true,
	}
	if err := v.Create(w); err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
	return w
}

func TestSweepRemovesExpiredWalletAndTransactions(t *testing.T) {
	v := newVault(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w := createWallet(t, v, "w-high", t0, model.PrivacyLevelHigh)
	if !w.ExpiresAt.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("expiresAt = %s", w.ExpiresAt)
	}
	tx := &model.PrivacyTransaction{
		ID:               "tx-1",
		WalletID:         w.ID,
		SourceAmount:     decimal.NewFromInt(100),
		DestinationChain: "solana",
		Status:           model.TransactionInitiated,
		Steps:            model.NewSteps("solana", t0),
		CreatedAt:        t0,
	}
	if err := v.CreateTransaction(tx); err != nil {
		t.Fatalf("create tx: %v", err)
	}

	s := NewScheduler(v, quietLogger(), Options{})

	removed, err := s.Sweep(context.Background(), t0.Add(5*time.Minute-time.Second))
	if err != nil || removed != 0 {
		t.Fatalf("early sweep removed=%d err=%v", removed, err)
	}

	at := t0.Add(5*time.Minute + time.Second)
	removed, err = s.Sweep(context.Background(), at)
	if err != nil || removed != 1 {
		t.Fatalf("sweep removed=%d err=%v", removed, err)
	}
	active, _ := v.ListActive(at)
	if len(active) != 0 {
		t.Fatalf("wallet still active: %+v", active)
	}
	if _, err := v.GetTransaction("tx-1"); !model.IsNotFoundError(err) {
		t.Fatalf("transaction survived the sweep: %v", err)
	}
}

func TestSweepLeavesExactlyActiveWallets(t *testing.T) {
	v := newVault(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	createWallet(t, v, "high", t0, model.PrivacyLevelHigh)     // expires T0+5m
	createWallet(t, v, "medium", t0, model.PrivacyLevelMedium) // expires T0+15m
	createWallet(t, v, "low", t0, model.PrivacyLevelLow)       // expires T0+60m

	s := NewScheduler(v, quietLogger(), Options{})
	at := t0.Add(15 * time.Minute)
	removed, err := s.Sweep(context.Background(), at)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected high and medium removed, got %d", removed)
	}
	all, _ := v.List()
	if len(all) != 1 || all[0].ID != "low" {
		t.Fatalf("unexpected survivors %+v", all)
	}

	// second sweep over the same state is a no-op
	if removed, _ := s.Sweep(context.Background(), at); removed != 0 {
		t.Fatalf("repeated sweep removed %d", removed)
	}
}

func TestArmedTimerDeletesWallet(t *testing.T) {
	v := newVault(t)
	created := time.Now()
	w := createWallet(t, v, "timed", created, model.PrivacyLevelHigh)

	// pretend we are 20ms before expiry
	now := func() time.Time { return w.ExpiresAt.Add(-20 * time.Millisecond) }
	s := NewScheduler(v, quietLogger(), Options{Now: now})
	s.Arm(w)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := v.Get("timed"); model.IsNotFoundError(err) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("armed timer did not delete the wallet")
}

func TestDisarmKeepsWallet(t *testing.T) {
	v := newVault(t)
	w := createWallet(t, v, "kept", time.Now(), model.PrivacyLevelHigh)

	now := func() time.Time { return w.ExpiresAt.Add(-20 * time.Millisecond) }
	s := NewScheduler(v, quietLogger(), Options{Now: now})
	s.Arm(w)
	s.Disarm(w.ID)

	time.Sleep(60 * time.Millisecond)
	if _, err := v.Get("kept"); err != nil {
		t.Fatalf("disarmed wallet was deleted: %v", err)
	}
}

// recordingRecovery counts recovery passes and can fail record reads.
type recordingRecovery struct {
	*recovery.Manager
	mu      sync.Mutex
	passes  int
	listErr error
}

func newRecordingRecovery(v *vault.Vault) *recordingRecovery {
	return &recordingRecovery{Manager: recovery.NewManager(v, quietLogger(), time.Hour)}
}

func (r *recordingRecovery) Pending(now time.Time) ([]model.PrivacyWallet, error) {
	r.mu.Lock()
	r.passes++
	r.mu.Unlock()
	return r.Manager.Pending(now)
}

func (r *recordingRecovery) List(walletID string) ([]model.FundRecoveryRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.Manager.List(walletID)
}

func (r *recordingRecovery) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passes
}

func TestStartRunsInitialSweepAndRecovery(t *testing.T) {
	v := newVault(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	createWallet(t, v, "stale", t0, model.PrivacyLevelHigh)
	createWallet(t, v, "fresh", t0, model.PrivacyLevelLow)

	sweeper := newRecordingRecovery(v)
	now := func() time.Time { return t0.Add(10 * time.Minute) }
	s := NewScheduler(v, quietLogger(), Options{
		Interval:        time.Hour,
		Now:             now,
		Recovery:        sweeper,
		RecoveryAddress: "safe.near",
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("second Start must fail")
	}
	if _, err := v.Get("stale"); !model.IsNotFoundError(err) {
		t.Fatalf("initial sweep kept expired wallet: %v", err)
	}
	if _, err := v.Get("fresh"); err != nil {
		t.Fatalf("initial sweep removed live wallet: %v", err)
	}
	if sweeper.count() != 1 {
		t.Fatalf("recovery passes = %d", sweeper.count())
	}
	recs, err := v.ListRecoveries("fresh")
	if err != nil || len(recs) != 1 || recs[0].RecoveryAddress != "safe.near" || recs[0].Reason != model.RecoveryExpiring {
		t.Fatalf("recoveries = %+v, %v", recs, err)
	}
}

func TestSweepLoopRuns(t *testing.T) {
	v := newVault(t)
	sweeper := newRecordingRecovery(v)
	s := NewScheduler(v, quietLogger(), Options{
		Interval:        10 * time.Millisecond,
		Recovery:        sweeper,
		RecoveryAddress: "safe.near",
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for sweeper.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	if sweeper.count() < 3 {
		t.Fatalf("sweep loop ran %d times", sweeper.count())
	}
	s.Stop() // idempotent
}

func TestRecoverySweepCreatesOneExpiringRecordPerWallet(t *testing.T) {
	v := newVault(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	createWallet(t, v, "w1", t0, model.PrivacyLevelLow)

	s := NewScheduler(v, quietLogger(), Options{
		Recovery:        newRecordingRecovery(v),
		RecoveryAddress: "safe.near",
	})
	now := t0.Add(30 * time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := s.Sweep(context.Background(), now); err != nil {
			t.Fatalf("sweep %d: %v", i, err)
		}
	}
	recs, err := v.ListRecoveries("w1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("recoveries = %+v, %v", recs, err)
	}
}

func TestRecoverySweepCountsReadFailures(t *testing.T) {
	v := newVault(t)
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	createWallet(t, v, "w1", t0, model.PrivacyLevelLow)

	rec := newRecordingRecovery(v)
	rec.listErr = errors.New("read failed")
	s := NewScheduler(v, quietLogger(), Options{Recovery: rec, RecoveryAddress: "safe.near"})

	before := testutil.ToFloat64(metrics.RecoveryFailures)
	created, err := s.sweepRecoveries(context.Background(), t0.Add(30*time.Minute))
	if err != nil || created != 0 {
		t.Fatalf("sweepRecoveries = %d, %v", created, err)
	}
	if got := testutil.ToFloat64(metrics.RecoveryFailures) - before; got != 1 {
		t.Fatalf("recovery failures += %v, want 1", got)
	}
	if recs, _ := v.ListRecoveries("w1"); len(recs) != 0 {
		t.Fatalf("record created despite read failure: %+v", recs)
	}
}
