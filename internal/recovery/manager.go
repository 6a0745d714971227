// Package recovery produces advisory fund-recovery instructions for wallets close to expiry.
package recovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/metrics"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultThreshold is the remaining lifetime below which a wallet needs recovery.
const DefaultThreshold = 10 * time.Minute

// Vault is the part of the wallet vault used for recovery.
type Vault interface {
	Get(id string) (*model.PrivacyWallet, error)
	List() ([]model.PrivacyWallet, error)
	CreateRecovery(rec *model.FundRecoveryRecord) error
	ListRecoveries(walletID string) ([]model.FundRecoveryRecord, error)
	AcknowledgeRecovery(id string) (*model.FundRecoveryRecord, error)
}

type Manager struct {
	vault     Vault
	logger    *logrus.Logger
	threshold time.Duration
	now       func() time.Time
}

func NewManager(vault Vault, logger *logrus.Logger, threshold time.Duration) *Manager {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Manager{
		vault:     vault,
		logger:    logger,
		threshold: threshold,
		now:       time.Now,
	}
}

// NeedsRecovery returns the wallets with 0 < expiresAt-now < threshold.
func NeedsRecovery(wallets []model.PrivacyWallet, now time.Time, threshold time.Duration) []model.PrivacyWallet {
	out := make([]model.PrivacyWallet, 0)
	for _, w := range wallets {
		left := w.ExpiresAt.Sub(now)
		if left > 0 && left < threshold {
			out = append(out, w)
		}
	}
	return out
}

// Pending returns the stored wallets that need recovery at now.
func (m *Manager) Pending(now time.Time) ([]model.PrivacyWallet, error) {
	wallets, err := m.vault.List()
	if err != nil {
		return nil, err
	}
	return NeedsRecovery(wallets, now, m.threshold), nil
}

// CreateRecovery stores a recovery record with transfer instructions for every address
// of the wallet. It moves no funds.
func (m *Manager) CreateRecovery(walletID, recoveryAddress string, reason model.RecoveryReason) (*model.FundRecoveryRecord, error) {
	recoveryAddress = strings.TrimSpace(recoveryAddress)
	if recoveryAddress == "" {
		return nil, &model.ValidationError{Message: "recovery address is required"}
	}
	if !reason.Valid() {
		return nil, &model.ValidationError{Message: fmt.Sprintf("unknown recovery reason %q", reason)}
	}

	w, err := m.vault.Get(walletID)
	if err != nil {
		return nil, err
	}

	rec := &model.FundRecoveryRecord{
		ID:              uuid.NewString(),
		WalletID:        w.ID,
		RecoveryAddress: recoveryAddress,
		Reason:          reason,
		Instructions:    Instructions(w, recoveryAddress, reason),
		CreatedAt:       m.now().UTC(),
		Status:          model.RecoveryPending,
	}
	if err := m.vault.CreateRecovery(rec); err != nil {
		return nil, err
	}

	metrics.RecoveriesCreated.WithLabelValues(string(reason)).Inc()
	m.logger.WithFields(logrus.Fields{
		"wallet_id":   w.ID,
		"recovery_id": rec.ID,
		"reason":      reason,
	}).Info("Recovery record created")
	return rec, nil
}

// Sweep creates an expiring recovery record for every wallet returned by Pending.
// A failure on one wallet is logged and skipped; the ids of the created records are returned.
func (m *Manager) Sweep(ctx context.Context, recoveryAddress string, now time.Time) ([]string, error) {
	wallets, err := m.Pending(now)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(wallets))
	for _, w := range wallets {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		rec, err := m.CreateRecovery(w.ID, recoveryAddress, model.RecoveryExpiring)
		if err != nil {
			metrics.RecoveryFailures.Inc()
			m.logger.WithError(err).WithField("wallet_id", w.ID).Error("Failed to create recovery record")
			continue
		}
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// List returns the recovery records of walletID, or all of them when walletID is empty.
func (m *Manager) List(walletID string) ([]model.FundRecoveryRecord, error) {
	return m.vault.ListRecoveries(walletID)
}

// Acknowledge marks a record as handled.
func (m *Manager) Acknowledge(id string) (*model.FundRecoveryRecord, error) {
	return m.vault.AcknowledgeRecovery(id)
}

// Instructions renders the human readable recovery steps for w.
func Instructions(w *model.PrivacyWallet, recoveryAddress string, reason model.RecoveryReason) []string {
	lines := []string{
		"Fund Recovery for Wallet: " + w.Name,
		"Reason: " + string(reason),
		"Recovery Address: " + recoveryAddress,
		"",
		"Steps to recover funds:",
	}
	for i, a := range w.Addresses {
		lines = append(lines, fmt.Sprintf("%d. %s: Transfer from %s to %s", i+1, strings.ToUpper(a.ChainID), a.Address, recoveryAddress))
	}
	lines = append(lines, "", "⚠️ IMPORTANT: Save your private keys before cleanup!")
	for _, a := range w.Addresses {
		key := a.PrivateKey
		if key == "" {
			key = "N/A"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", a.ChainID, key))
	}
	return lines
}
