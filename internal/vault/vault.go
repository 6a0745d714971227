package vault

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/sirupsen/logrus"
)

// Vault is the single source of truth for wallets, transactions and recovery records.
//
// Every mutation takes the wallet's lock first and then the collection lock, and
// rewrites the full collection. Lock order is always wallet, then collection.
type Vault struct {
	store  Store
	logger *logrus.Logger

	mu    sync.Mutex // guards read-modify-write of the collections
	locks *keyedLocks
}

// New opens a vault over store and removes child records whose wallet is gone.
func New(store Store, logger *logrus.Logger) (*Vault, error) {
	v := &Vault{
		store:  store,
		logger: logger,
		locks:  newKeyedLocks(),
	}
	if err := v.pruneOrphans(); err != nil {
		return nil, err
	}
	return v, nil
}

// pruneOrphans drops transactions and recoveries left behind by an interrupted delete.
func (v *Vault) pruneOrphans() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	wallets, err := v.wallets()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		known[w.ID] = true
	}

	txs, err := v.transactions()
	if err != nil {
		return err
	}
	keptTxs := filter(txs, func(tx model.PrivacyTransaction) bool { return known[tx.WalletID] })
	if len(keptTxs) != len(txs) {
		v.logger.WithField("count", len(txs)-len(keptTxs)).Warn("Pruning orphaned transactions")
		if err := saveRecords(v.store, CollectionTransactions, keptTxs); err != nil {
			return err
		}
	}

	recs, err := v.recoveries()
	if err != nil {
		return err
	}
	keptRecs := filter(recs, func(r model.FundRecoveryRecord) bool { return known[r.WalletID] })
	if len(keptRecs) != len(recs) {
		v.logger.WithField("count", len(recs)-len(keptRecs)).Warn("Pruning orphaned recovery records")
		if err := saveRecords(v.store, CollectionRecoveries, keptRecs); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vault) wallets() ([]model.PrivacyWallet, error) {
	return loadRecords[model.PrivacyWallet](v.store, CollectionWallets)
}

func (v *Vault) transactions() ([]model.PrivacyTransaction, error) {
	return loadRecords[model.PrivacyTransaction](v.store, CollectionTransactions)
}

func (v *Vault) recoveries() ([]model.FundRecoveryRecord, error) {
	return loadRecords[model.FundRecoveryRecord](v.store, CollectionRecoveries)
}

// Create stores a new wallet.
func (v *Vault) Create(w *model.PrivacyWallet) error {
	if err := w.Validate(); err != nil {
		return &model.ValidationError{Message: err.Error()}
	}
	unlock := v.locks.Lock(w.ID)
	defer unlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	wallets, err := v.wallets()
	if err != nil {
		return err
	}
	for _, existing := range wallets {
		if existing.ID == w.ID {
			return &model.ValidationError{Message: fmt.Sprintf("wallet %s already exists", w.ID)}
		}
	}
	return saveRecords(v.store, CollectionWallets, append(wallets, *w))
}

// Get returns the wallet with id.
func (v *Vault) Get(id string) (*model.PrivacyWallet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	wallets, err := v.wallets()
	if err != nil {
		return nil, err
	}
	for i := range wallets {
		if wallets[i].ID == id {
			return &wallets[i], nil
		}
	}
	return nil, &model.NotFoundError{Kind: "wallet", ID: id}
}

// List returns every stored wallet, expired or not.
func (v *Vault) List() ([]model.PrivacyWallet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wallets()
}

// ListActive returns the wallets with expiresAt after now.
func (v *Vault) ListActive(now time.Time) ([]model.PrivacyWallet, error) {
	wallets, err := v.List()
	if err != nil {
		return nil, err
	}
	return filter(wallets, func(w model.PrivacyWallet) bool { return !w.ExpiredAt(now) }), nil
}

// Delete removes the wallet together with its transactions and recovery records.
// Deleting an unknown id is a no-op and reports false.
func (v *Vault) Delete(id string) (bool, error) {
	unlock := v.locks.Lock(id)
	defer unlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	wallets, err := v.wallets()
	if err != nil {
		return false, err
	}
	keptWallets := filter(wallets, func(w model.PrivacyWallet) bool { return w.ID != id })
	if len(keptWallets) == len(wallets) {
		return false, nil
	}

	// Children go first so an interrupted delete never leaves orphans behind.
	txs, err := v.transactions()
	if err != nil {
		return false, err
	}
	keptTxs := filter(txs, func(tx model.PrivacyTransaction) bool { return tx.WalletID != id })
	if len(keptTxs) != len(txs) {
		if err := saveRecords(v.store, CollectionTransactions, keptTxs); err != nil {
			return false, err
		}
	}

	recs, err := v.recoveries()
	if err != nil {
		return false, err
	}
	keptRecs := filter(recs, func(r model.FundRecoveryRecord) bool { return r.WalletID != id })
	if len(keptRecs) != len(recs) {
		if err := saveRecords(v.store, CollectionRecoveries, keptRecs); err != nil {
			return false, err
		}
	}

	if err := saveRecords(v.store, CollectionWallets, keptWallets); err != nil {
		return false, err
	}
	v.logger.WithFields(logrus.Fields{
		"wallet_id":    id,
		"transactions": len(txs) - len(keptTxs),
		"recoveries":   len(recs) - len(keptRecs),
	}).Info("Wallet deleted")
	return true, nil
}

// CreateTransaction stores a new transaction for an existing wallet.
func (v *Vault) CreateTransaction(tx *model.PrivacyTransaction) error {
	if err := tx.Validate(); err != nil {
		return &model.ValidationError{Message: err.Error()}
	}
	unlock := v.locks.Lock(tx.WalletID)
	defer unlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWallet(tx.WalletID); err != nil {
		return err
	}
	txs, err := v.transactions()
	if err != nil {
		return err
	}
	for _, existing := range txs {
		if existing.ID == tx.ID {
			return &model.ValidationError{Message: fmt.Sprintf("transaction %s already exists", tx.ID)}
		}
	}
	return saveRecords(v.store, CollectionTransactions, append(txs, *tx))
}

// GetTransaction returns the transaction with id.
func (v *Vault) GetTransaction(id string) (*model.PrivacyTransaction, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.findTransaction(id)
}

func (v *Vault) findTransaction(id string) (*model.PrivacyTransaction, error) {
	txs, err := v.transactions()
	if err != nil {
		return nil, err
	}
	for i := range txs {
		if txs[i].ID == id {
			return &txs[i], nil
		}
	}
	return nil, &model.NotFoundError{Kind: "transaction", ID: id}
}

// ListTransactions returns the transactions of walletID, or all of them when walletID is empty.
func (v *Vault) ListTransactions(walletID string) ([]model.PrivacyTransaction, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	txs, err := v.transactions()
	if err != nil {
		return nil, err
	}
	if walletID == "" {
		return txs, nil
	}
	return filter(txs, func(tx model.PrivacyTransaction) bool { return tx.WalletID == walletID }), nil
}

// UpdateTransaction applies fn to the stored transaction under its wallet's lock and
// persists the result. If fn returns an error nothing is written.
func (v *Vault) UpdateTransaction(id string, fn func(tx *model.PrivacyTransaction) error) (*model.PrivacyTransaction, error) {
	peek, err := v.GetTransaction(id)
	if err != nil {
		return nil, err
	}
	unlock := v.locks.Lock(peek.WalletID)
	defer unlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	// Reload: the wallet may have been deleted while we waited for its lock.
	txs, err := v.transactions()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range txs {
		if txs[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &model.NotFoundError{Kind: "transaction", ID: id}
	}

	updated := txs[idx]
	updated.Steps = append([]model.Step(nil), txs[idx].Steps...)
	if err := fn(&updated); err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("update produced invalid transaction: %w", err)
	}
	txs[idx] = updated
	if err := saveRecords(v.store, CollectionTransactions, txs); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateStep sets the status of one step and optionally attaches detail.
func (v *Vault) UpdateStep(txID, stepID string, status model.StepStatus, detail any) (*model.PrivacyTransaction, error) {
	var raw json.RawMessage
	if detail != nil {
		data, err := json.Marshal(detail)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal step detail: %w", err)
		}
		raw = data
	}
	return v.UpdateTransaction(txID, func(tx *model.PrivacyTransaction) error {
		step := tx.Step(stepID)
		if step == nil {
			return &model.NotFoundError{Kind: "step", ID: stepID}
		}
		step.Status = status
		step.Timestamp = time.Now().UTC()
		if raw != nil {
			step.Detail = raw
		}
		return nil
	})
}

// CreateRecovery stores a recovery record for an existing wallet.
func (v *Vault) CreateRecovery(rec *model.FundRecoveryRecord) error {
	if err := rec.Validate(); err != nil {
		return &model.ValidationError{Message: err.Error()}
	}
	unlock := v.locks.Lock(rec.WalletID)
	defer unlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.requireWallet(rec.WalletID); err != nil {
		return err
	}
	recs, err := v.recoveries()
	if err != nil {
		return err
	}
	return saveRecords(v.store, CollectionRecoveries, append(recs, *rec))
}

// GetRecovery returns the recovery record with id.
func (v *Vault) GetRecovery(id string) (*model.FundRecoveryRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	recs, err := v.recoveries()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].ID == id {
			return &recs[i], nil
		}
	}
	return nil, &model.NotFoundError{Kind: "recovery", ID: id}
}

// ListRecoveries returns the recovery records of walletID, or all of them when walletID is empty.
func (v *Vault) ListRecoveries(walletID string) ([]model.FundRecoveryRecord, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	recs, err := v.recoveries()
	if err != nil {
		return nil, err
	}
	if walletID == "" {
		return recs, nil
	}
	return filter(recs, func(r model.FundRecoveryRecord) bool { return r.WalletID == walletID }), nil
}

// AcknowledgeRecovery marks a recovery record as handled by the user.
func (v *Vault) AcknowledgeRecovery(id string) (*model.FundRecoveryRecord, error) {
	peek, err := v.GetRecovery(id)
	if err != nil {
		return nil, err
	}
	unlock := v.locks.Lock(peek.WalletID)
	defer unlock()
	v.mu.Lock()
	defer v.mu.Unlock()

	recs, err := v.recoveries()
	if err != nil {
		return nil, err
	}
	for i := range recs {
		if recs[i].ID == id {
			recs[i].Status = model.RecoveryAcknowledged
			if err := saveRecords(v.store, CollectionRecoveries, recs); err != nil {
				return nil, err
			}
			return &recs[i], nil
		}
	}
	return nil, &model.NotFoundError{Kind: "recovery", ID: id}
}

// requireWallet must be called with v.mu held.
func (v *Vault) requireWallet(id string) error {
	wallets, err := v.wallets()
	if err != nil {
		return err
	}
	for _, w := range wallets {
		if w.ID == id {
			return nil
		}
	}
	return &model.NotFoundError{Kind: "wallet", ID: id}
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
