// Package privacy ties wallet generation, storage, expiry and balances together.
package privacy

import (
	"context"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/client"
	"github.com/AlexZinkM/privacy-wallet/internal/keygen"
	"github.com/AlexZinkM/privacy-wallet/internal/lifecycle"
	"github.com/AlexZinkM/privacy-wallet/internal/metrics"
	"github.com/AlexZinkM/privacy-wallet/internal/model"
	"github.com/AlexZinkM/privacy-wallet/internal/vault"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// BalanceReader returns the USDC (micro) and SOL (lamports) balance of one address.
type BalanceReader interface {
	GetBalance(ctx context.Context) (usdcMicro uint64, solLamports uint64, err error)
}

// PriceSource returns the USD price of a coin.
type PriceSource interface {
	GetUSDPrice(ctx context.Context, coinID string) (decimal.Decimal, error)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	SolanaRPCURL string
	// NewBalanceReader opens a balance reader for a solana address.
	NewBalanceReader func(address string) (BalanceReader, error)
	Prices           PriceSource
	Now              func() time.Time
}

type Service struct {
	vault     *vault.Vault
	generator *keygen.Generator
	scheduler *lifecycle.Scheduler
	catalog   *chain.Catalog
	logger    *logrus.Logger

	newBalanceReader func(address string) (BalanceReader, error)
	prices           PriceSource
	now              func() time.Time
}

func NewService(v *vault.Vault, generator *keygen.Generator, scheduler *lifecycle.Scheduler, catalog *chain.Catalog, logger *logrus.Logger, opts Options) *Service {
	s := &Service{
		vault:            v,
		generator:        generator,
		scheduler:        scheduler,
		catalog:          catalog,
		logger:           logger,
		newBalanceReader: opts.NewBalanceReader,
		prices:           opts.Prices,
		now:              opts.Now,
	}
	if s.newBalanceReader == nil {
		rpcURL := opts.SolanaRPCURL
		s.newBalanceReader = func(address string) (BalanceReader, error) {
			c, err := client.NewSolanaClient(rpcURL, address)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Get returns a stored wallet.
func (s *Service) Get(id string) (*model.PrivacyWallet, error) {
	return s.vault.Get(id)
}

// ListWallets returns the wallets that are still active at the current time with their
// remaining lifetime.
func (s *Service) ListWallets() ([]model.WalletView, error) {
	now := s.now()
	wallets, err := s.vault.ListActive(now)
	if err != nil {
		return nil, err
	}
	views := make([]model.WalletView, 0, len(wallets))
	for _, w := range wallets {
		views = append(views, model.NewWalletView(w, now))
	}
	return views, nil
}

// Delete removes a wallet with its transactions and recovery records ahead of its expiry.
// Deleting an unknown wallet is a no-op.
func (s *Service) Delete(id string) (bool, error) {
	deleted, err := s.vault.Delete(id)
	if err != nil {
		return false, err
	}
	s.scheduler.Disarm(id)
	if deleted {
		metrics.WalletsDeleted.WithLabelValues("manual").Inc()
		s.logger.WithField("wallet_id", id).Info("Wallet deleted")
	}
	return deleted, nil
}

// Export returns the backup document of a wallet including its key material.
func (s *Service) Export(id string) (*model.WalletExport, error) {
	w, err := s.vault.Get(id)
	if err != nil {
		return nil, err
	}
	s.logger.WithField("wallet_id", id).Warn("Wallet exported with key material")
	return &model.WalletExport{
		Wallet:     *w,
		ExportedAt: s.now().UTC(),
		Warning:    model.ExportWarning,
	}, nil
}

// Transaction returns a stored bridge transaction.
func (s *Service) Transaction(id string) (*model.PrivacyTransaction, error) {
	return s.vault.GetTransaction(id)
}

// Transactions returns the bridge transactions of walletID, or all of them when it is empty.
func (s *Service) Transactions(walletID string) ([]model.PrivacyTransaction, error) {
	return s.vault.ListTransactions(walletID)
}
