package vault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/crypto"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var testKDF = crypto.KDFParams{N: 1 << 10, R: 8, P: 1}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(NewMemoryStore(), quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	return v
}

func testWallet(id string, createdAt time.Time, level model.PrivacyLevel) *model.PrivacyWallet {
	return &model.PrivacyWallet{
		ID:   id,
		Name: "Privacy Wallet - test",
		Addresses: []model.AddressRecord{
			{ChainID: "near", Address: id + ".near", PrivateKey: "secret-" + id},
			{ChainID: "solana", Address: id + "-sol", PrivateKey: "secret-sol-" + id},
		},
		CreatedAt:        createdAt,
		ExpiresAt:        createdAt.Add(level.TTL()),
		PrivacyLevel:     level,
		DestinationChain: "solana",
		SourceAmount:     decimal.NewFromInt(1),
		AutoCleanup:      true,
	}
}

func testTransaction(id, walletID string, now time.Time) *model.PrivacyTransaction {
	return &model.PrivacyTransaction{
		ID:               id,
		WalletID:         walletID,
		SourceAmount:     decimal.NewFromInt(100),
		DestinationChain: "solana",
		Status:           model.TransactionInitiated,
		Steps:            model.NewSteps("solana", now),
		CreatedAt:        now,
	}
}

func testRecovery(id, walletID string, now time.Time) *model.FundRecoveryRecord {
	return &model.FundRecoveryRecord{
		ID:              id,
		WalletID:        walletID,
		RecoveryAddress: "recovery.near",
		Reason:          model.RecoveryManual,
		Instructions:    []string{"move funds"},
		CreatedAt:       now,
		Status:          model.RecoveryPending,
	}
}

func TestCreateGetAndListActive(t *testing.T) {
	v := newTestVault(t)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	high := testWallet("w-high", t0, model.PrivacyLevelHigh)
	low := testWallet("w-low", t0, model.PrivacyLevelLow)
	for _, w := range []*model.PrivacyWallet{high, low} {
		if err := v.Create(w); err != nil {
			t.Fatalf("create %s: %v", w.ID, err)
		}
	}

	got, err := v.Get("w-high")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.ExpiresAt.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("unexpected expiry %s", got.ExpiresAt)
	}

	active, err := v.ListActive(t0.Add(10 * time.Minute))
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "w-low" {
		t.Fatalf("expected only w-low active, got %+v", active)
	}

	// expiresAt == now is not active
	active, err = v.ListActive(t0.Add(5 * time.Minute))
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("wallet expiring exactly now must not be active, got %d", len(active))
	}

	if _, err := v.Get("missing"); !model.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := v.Create(high); !model.IsValidationError(err) {
		t.Fatalf("expected duplicate id to be rejected, got %v", err)
	}
}

func TestCreateRejectsBrokenExpiry(t *testing.T) {
	v := newTestVault(t)
	w := testWallet("w1", time.Now(), model.PrivacyLevelHigh)
	w.ExpiresAt = w.CreatedAt.Add(time.Hour)
	if err := v.Create(w); !model.IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeleteCascadesOnlyOwnRecords(t *testing.T) {
	v := newTestVault(t)
	now := time.Now().UTC()

	for _, id := range []string{"W", "V"} {
		if err := v.Create(testWallet(id, now, model.PrivacyLevelMedium)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		if err := v.CreateTransaction(testTransaction("tx-"+id, id, now)); err != nil {
			t.Fatalf("create tx %s: %v", id, err)
		}
		if err := v.CreateRecovery(testRecovery("rec-"+id, id, now)); err != nil {
			t.Fatalf("create recovery %s: %v", id, err)
		}
	}

	deleted, err := v.Delete("W")
	if err != nil || !deleted {
		t.Fatalf("delete W: deleted=%v err=%v", deleted, err)
	}

	if _, err := v.Get("W"); !model.IsNotFoundError(err) {
		t.Fatalf("W still present: %v", err)
	}
	if _, err := v.GetTransaction("tx-W"); !model.IsNotFoundError(err) {
		t.Fatalf("tx-W still present: %v", err)
	}
	if _, err := v.GetRecovery("rec-W"); !model.IsNotFoundError(err) {
		t.Fatalf("rec-W still present: %v", err)
	}

	if _, err := v.Get("V"); err != nil {
		t.Fatalf("V must survive: %v", err)
	}
	if txs, _ := v.ListTransactions("V"); len(txs) != 1 {
		t.Fatalf("V transactions touched: %+v", txs)
	}
	if recs, _ := v.ListRecoveries("V"); len(recs) != 1 {
		t.Fatalf("V recoveries touched: %+v", recs)
	}

	deleted, err = v.Delete("W")
	if err != nil || deleted {
		t.Fatalf("second delete must be a no-op: deleted=%v err=%v", deleted, err)
	}
}

func TestChildRecordsRequireWallet(t *testing.T) {
	v := newTestVault(t)
	now := time.Now()
	if err := v.CreateTransaction(testTransaction("tx", "ghost", now)); !model.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError for transaction, got %v", err)
	}
	if err := v.CreateRecovery(testRecovery("rec", "ghost", now)); !model.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError for recovery, got %v", err)
	}
}

func TestUpdateStep(t *testing.T) {
	v := newTestVault(t)
	now := time.Now()
	if err := v.Create(testWallet("w", now, model.PrivacyLevelLow)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := v.CreateTransaction(testTransaction("tx", "w", now)); err != nil {
		t.Fatalf("create tx: %v", err)
	}

	tx, err := v.UpdateStep("tx", model.StepBridgeToTransit, model.StepInProgress, map[string]string{"depositAddress": "abc"})
	if err != nil {
		t.Fatalf("update step: %v", err)
	}
	step := tx.Step(model.StepBridgeToTransit)
	if step.Status != model.StepInProgress || string(step.Detail) != `{"depositAddress":"abc"}` {
		t.Fatalf("unexpected step %+v", step)
	}

	if _, err := v.UpdateStep("tx", "step_9", model.StepCompleted, nil); !model.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError for unknown step, got %v", err)
	}
	if _, err := v.UpdateStep("nope", model.StepReady, model.StepCompleted, nil); !model.IsNotFoundError(err) {
		t.Fatalf("expected NotFoundError for unknown tx, got %v", err)
	}
}

func TestUpdateTransactionErrorWritesNothing(t *testing.T) {
	v := newTestVault(t)
	now := time.Now()
	if err := v.Create(testWallet("w", now, model.PrivacyLevelLow)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := v.CreateTransaction(testTransaction("tx", "w", now)); err != nil {
		t.Fatalf("create tx: %v", err)
	}

	boom := errors.New("boom")
	_, err := v.UpdateTransaction("tx", func(tx *model.PrivacyTransaction) error {
		tx.Steps[0].Status = model.StepFailed
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	tx, _ := v.GetTransaction("tx")
	if tx.Steps[0].Status != model.StepPending {
		t.Fatalf("aborted update leaked: %+v", tx.Steps[0])
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	v := newTestVault(t)
	now := time.Now()
	const wallets = 4
	const perWallet = 10

	for i := 0; i < wallets; i++ {
		if err := v.Create(testWallet(fmt.Sprintf("w%d", i), now, model.PrivacyLevelLow)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, wallets*perWallet)
	for i := 0; i < wallets; i++ {
		for j := 0; j < perWallet; j++ {
			wg.Add(1)
			go func(i, j int) {
				defer wg.Done()
				tx := testTransaction(fmt.Sprintf("tx-%d-%d", i, j), fmt.Sprintf("w%d", i), now)
				if err := v.CreateTransaction(tx); err != nil {
					errs <- err
				}
			}(i, j)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create failed: %v", err)
	}

	all, err := v.ListTransactions("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != wallets*perWallet {
		t.Fatalf("lost updates: have %d transactions, want %d", len(all), wallets*perWallet)
	}
}

func TestAcknowledgeRecovery(t *testing.T) {
	v := newTestVault(t)
	now := time.Now()
	if err := v.Create(testWallet("w", now, model.PrivacyLevelLow)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := v.CreateRecovery(testRecovery("rec", "w", now)); err != nil {
		t.Fatalf("create recovery: %v", err)
	}
	rec, err := v.AcknowledgeRecovery("rec")
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if rec.Status != model.RecoveryAcknowledged {
		t.Fatalf("unexpected status %s", rec.Status)
	}
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	password := []byte("vault password")

	store, err := OpenFileStore(dir, password, testKDF)
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	v, err := New(store, quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	now := time.Now().UTC()
	if err := v.Create(testWallet("w", now, model.PrivacyLevelMedium)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := v.CreateTransaction(testTransaction("tx", "w", now)); err != nil {
		t.Fatalf("create tx: %v", err)
	}

	reopened, err := OpenFileStore(dir, password, testKDF)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v2, err := New(reopened, quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	w, err := v2.Get("w")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if addr, _ := w.Address("near"); addr.PrivateKey != "secret-w" {
		t.Fatalf("key material not persisted: %+v", addr)
	}
	if recs, err := v2.ListRecoveries(""); err != nil || len(recs) != 0 {
		t.Fatalf("absent collection must read as empty: %v %v", recs, err)
	}

	if _, err := OpenFileStore(dir, []byte("wrong"), testKDF); !errors.Is(err, crypto.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestRekey(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenFileStore(dir, []byte("old"), testKDF)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v, err := New(store, quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	if err := v.Create(testWallet("w", time.Now(), model.PrivacyLevelLow)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := Rekey(dir, []byte("old"), []byte("new"), testKDF); err != nil {
		t.Fatalf("rekey: %v", err)
	}
	if _, err := OpenFileStore(dir, []byte("old"), testKDF); !errors.Is(err, crypto.ErrInvalidPassword) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	store, err = OpenFileStore(dir, []byte("new"), testKDF)
	if err != nil {
		t.Fatalf("open with new password: %v", err)
	}
	v, err = New(store, quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	if _, err := v.Get("w"); err != nil {
		t.Fatalf("wallet lost during rekey: %v", err)
	}
}

func newFileVaultWithWallet(t *testing.T, dir string, password []byte) {
	t.Helper()
	store, err := OpenFileStore(dir, password, testKDF)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	v, err := New(store, quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	if err := v.Create(testWallet("w", time.Now(), model.PrivacyLevelLow)); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func requireWallet(t *testing.T, dir string, password []byte) {
	t.Helper()
	store, err := OpenFileStore(dir, password, testKDF)
	if err != nil {
		t.Fatalf("open with %q: %v", password, err)
	}
	v, err := New(store, quietLogger())
	if err != nil {
		t.Fatalf("new vault with %q: %v", password, err)
	}
	if _, err := v.Get("w"); err != nil {
		t.Fatalf("wallet lost: %v", err)
	}
}

func TestRekeyFailureKeepsOldPassword(t *testing.T) {
	dir := t.TempDir()
	newFileVaultWithWallet(t, dir, []byte("old"))

	if err := Rekey(dir, []byte("old"), []byte{}, testKDF); err == nil {
		t.Fatal("expected error for empty new password")
	}
	if _, err := os.Stat(filepath.Join(dir, MetaFile)); err != nil {
		t.Fatalf("header gone after failed rekey: %v", err)
	}
	requireWallet(t, dir, []byte("old"))
}

func TestRekeyStagingFailureKeepsOldPassword(t *testing.T) {
	dir := t.TempDir()
	newFileVaultWithWallet(t, dir, []byte("old"))

	// a non-empty directory in the staging slot makes the staged write fail
	blocker := filepath.Join(dir, CollectionWallets+fileExt+stagedExt)
	if err := os.MkdirAll(filepath.Join(blocker, "x"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := Rekey(dir, []byte("old"), []byte("new"), testKDF); err == nil {
		t.Fatal("expected staging error")
	}
	if err := os.RemoveAll(blocker); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireWallet(t, dir, []byte("old"))
	if _, err := OpenFileStore(dir, []byte("new"), testKDF); !errors.Is(err, crypto.ErrInvalidPassword) {
		t.Fatalf("new password must not work after failed rekey, got %v", err)
	}
}

func TestOpenRollsBackInterruptedRekey(t *testing.T) {
	tests := []struct {
		name  string
		crash func(t *testing.T, dir string)
	}{
		{
			// header moved aside, new header not yet in place
			name: "header swap",
			crash: func(t *testing.T, dir string) {
				meta := filepath.Join(dir, MetaFile)
				if err := os.Rename(meta, meta+backupExt); err != nil {
					t.Fatalf("rename: %v", err)
				}
			},
		},
		{
			// collection already replaced, header still old
			name: "collection swap",
			crash: func(t *testing.T, dir string) {
				wallets := filepath.Join(dir, CollectionWallets+fileExt)
				if err := os.Rename(wallets, wallets+backupExt); err != nil {
					t.Fatalf("rename: %v", err)
				}
				if err := os.WriteFile(wallets, []byte(`{"collection":"wallets","nonce":"AA==","cipherText":"AA=="}`), 0o600); err != nil {
					t.Fatalf("write: %v", err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			newFileVaultWithWallet(t, dir, []byte("old"))
			tt.crash(t, dir)
			requireWallet(t, dir, []byte("old"))
		})
	}
}

func TestOpenRefusesMissingHeader(t *testing.T) {
	dir := t.TempDir()
	newFileVaultWithWallet(t, dir, []byte("old"))
	if err := os.Remove(filepath.Join(dir, MetaFile)); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := OpenFileStore(dir, []byte("old"), testKDF); err == nil {
		t.Fatal("expected error when collections exist without a header")
	}
}

func TestNewPrunesOrphans(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	if err := saveRecords(store, CollectionTransactions, []model.PrivacyTransaction{*testTransaction("tx", "gone", now)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	v, err := New(store, quietLogger())
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	if txs, _ := v.ListTransactions(""); len(txs) != 0 {
		t.Fatalf("orphan survived: %+v", txs)
	}
}

func TestLoadRejectsUnknownSchemaVersion(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Save(CollectionWallets, []byte(`{"version":2,"records":[]}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := New(store, quietLogger()); err == nil {
		t.Fatal("expected error for unknown schema version")
	}
}

func TestLoadRejectsUnknownStatus(t *testing.T) {
	store := NewMemoryStore()
	if err := saveRecords(store, CollectionWallets, []model.PrivacyWallet{*testWallet("w", time.Now(), model.PrivacyLevelLow)}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	doc := `{"version":1,"records":[{"id":"tx","walletId":"w","status":"teleporting","steps":[]}]}`
	if err := store.Save(CollectionTransactions, []byte(doc)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := New(store, quietLogger()); err == nil {
		t.Fatal("expected error for unknown transaction status")
	}
}
