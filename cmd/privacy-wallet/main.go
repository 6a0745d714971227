// Privacy wallet API server.
// Usage: go run ./cmd/privacy-wallet
//
// @title        Privacy Wallet API
// @version      1.0
// @description  Ephemeral multi-chain wallets bridged through NEAR intents.
// @host         localhost:8080
// @BasePath     /
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/api"
	"github.com/AlexZinkM/privacy-wallet/internal/bridge"
	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/client"
	"github.com/AlexZinkM/privacy-wallet/internal/config"
	"github.com/AlexZinkM/privacy-wallet/internal/crypto"
	"github.com/AlexZinkM/privacy-wallet/internal/handler"
	"github.com/AlexZinkM/privacy-wallet/internal/keygen"
	"github.com/AlexZinkM/privacy-wallet/internal/lifecycle"
	"github.com/AlexZinkM/privacy-wallet/internal/recovery"
	"github.com/AlexZinkM/privacy-wallet/internal/vault"
	"github.com/AlexZinkM/privacy-wallet/privacy"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := config.Init(); err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	cfg := config.Get()
	logger.SetLevel(config.GetLogLevel())

	if err := config.PromptForPassword(); err != nil {
		logger.WithError(err).Fatal("Failed to read vault password")
	}
	v, err := openVault(config.GetDataDir(), logger)
	config.ClearPassword()
	if err != nil {
		logger.WithError(err).Fatal("Failed to open vault")
	}

	catalog := chain.Default()
	if cfg.ChainCatalogPath != "" {
		catalog, err = chain.Load(cfg.ChainCatalogPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to load chain catalog")
		}
	}

	deriver, err := newDeriver(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to set up address derivation")
	}
	generator := keygen.NewGenerator(catalog, deriver, logger)

	oneClick := client.NewOneClickClient(client.OneClickOptions{
		BaseURL:      cfg.OneClickAPIURL,
		JWT:          cfg.OneClickJWT,
		RateLimit:    cfg.QuoteRateLimit,
		PollInterval: cfg.SettlementPoll,
	}, logger)

	recoveryManager := recovery.NewManager(v, logger, cfg.RecoveryThreshold)
	scheduler := lifecycle.NewScheduler(v, logger, lifecycle.Options{
		Interval:        cfg.SweepInterval,
		Recovery:        recoveryManager,
		RecoveryAddress: cfg.RecoveryAddress,
	})

	orchestrator, err := bridge.NewOrchestrator(v, oneClick, catalog, logger, bridge.Options{SlippageBps: cfg.SlippageBps})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create bridge orchestrator")
	}

	service := privacy.NewService(v, generator, scheduler, catalog, logger, privacy.Options{
		SolanaRPCURL: config.GetSolanaRPCURL(),
		Prices:       client.NewCoinGeckoClient(cfg.CoinGeckoURL),
	})

	router := api.SetupRouter(api.Handlers{
		Privacy:  handler.NewPrivacyHandler(service),
		Bridge:   handler.NewBridgeHandler(orchestrator, service, logger),
		Recovery: handler.NewRecoveryHandler(recoveryManager, cfg.RecoveryAddress),
	}, logger, cfg.AllowedIPs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start lifecycle scheduler")
	}
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithFields(logrus.Fields{
			"port":     config.GetPort(),
			"data_dir": config.GetDataDir(),
			"deriver":  cfg.Deriver,
			"chains":   catalog.IDs(),
		}).Info("Privacy wallet API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
}

func openVault(dir string, logger *logrus.Logger) (*vault.Vault, error) {
	password, err := config.GetVaultPasswordBytes()
	if err != nil {
		return nil, err
	}
	defer clear(password)

	store, err := vault.OpenFileStore(dir, password, crypto.DefaultKDF)
	if err != nil {
		return nil, err
	}
	return vault.New(store, logger)
}

// newDeriver picks the address deriver named by DERIVER. DERIVATION_SECRET is hex encoded.
func newDeriver(cfg *config.Config) (keygen.AddressDeriver, error) {
	if cfg.Deriver != config.DeriverDeterministic {
		return keygen.NewEphemeralDeriver(), nil
	}
	secret, err := hex.DecodeString(cfg.DerivationSecret)
	if err != nil {
		return nil, fmt.Errorf("DERIVATION_SECRET must be hex: %w", err)
	}
	defer clear(secret)
	signer, err := keygen.NewHKDFDeriver(secret)
	if err != nil {
		return nil, err
	}
	return keygen.NewDeterministicDeriver(cfg.DerivationAccount, signer), nil
}
