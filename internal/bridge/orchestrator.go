// Package bridge drives a privacy transaction through its routing steps.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/metrics"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSlippageBps   = 10
	MaxSlippageBps       = 50
	DefaultRouteDeadline = 10 * time.Minute
)

// QuoteEngine prices a conversion and waits for it to settle.
type QuoteEngine interface {
	GetQuote(ctx context.Context, req model.QuoteRequest) (*model.Quote, error)
	AwaitSettlement(ctx context.Context, quote *model.Quote) error
}

// Store is the part of the vault the orchestrator reads and writes.
type Store interface {
	Get(id string) (*model.PrivacyWallet, error)
	CreateTransaction(tx *model.PrivacyTransaction) error
	GetTransaction(id string) (*model.PrivacyTransaction, error)
	UpdateTransaction(id string, fn func(tx *model.PrivacyTransaction) error) (*model.PrivacyTransaction, error)
}

// Options configures an Orchestrator. Zero values fall back to defaults.
type Options struct {
	SlippageBps   int
	RouteDeadline time.Duration
	Now           func() time.Time
}

// Orchestrator runs the four bridge steps of a transaction in order. It never retries:
// a failed transaction stays failed and the caller starts a new one.
type Orchestrator struct {
	store   Store
	engine  QuoteEngine
	catalog *chain.Catalog
	logger  *logrus.Logger

	slippageBps   int
	routeDeadline time.Duration
	now           func() time.Time

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewOrchestrator(store Store, engine QuoteEngine, catalog *chain.Catalog, logger *logrus.Logger, opts Options) (*Orchestrator, error) {
	if opts.SlippageBps == 0 {
		opts.SlippageBps = DefaultSlippageBps
	}
	if opts.SlippageBps < 0 || opts.SlippageBps > MaxSlippageBps {
		return nil, &model.ValidationError{Message: fmt.Sprintf("slippage tolerance must be between 0 and %d", MaxSlippageBps)}
	}
	if opts.RouteDeadline <= 0 {
		opts.RouteDeadline = DefaultRouteDeadline
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		store:         store,
		engine:        engine,
		catalog:       catalog,
		logger:        logger,
		slippageBps:   opts.SlippageBps,
		routeDeadline: opts.RouteDeadline,
		now:           opts.Now,
		inFlight:      make(map[string]bool),
	}, nil
}

// Start creates a transaction with four pending steps for an active wallet.
func (o *Orchestrator) Start(ctx context.Context, walletID string, amount decimal.Decimal, destinationChain string) (*model.PrivacyTransaction, error) {
	if !amount.IsPositive() {
		return nil, &model.ValidationError{Message: "amount must be greater than 0"}
	}
	if !o.catalog.IsDestination(destinationChain) {
		return nil, &model.ValidationError{Message: fmt.Sprintf("unsupported destination chain %q", destinationChain)}
	}
	w, err := o.store.Get(walletID)
	if err != nil {
		return nil, err
	}
	now := o.now().UTC()
	if w.ExpiredAt(now) {
		return nil, &model.ExpiryRaceError{WalletID: w.ID, ExpiresAt: w.ExpiresAt}
	}

	tx := &model.PrivacyTransaction{
		ID:               uuid.NewString(),
		WalletID:         w.ID,
		SourceAmount:     amount,
		DestinationChain: destinationChain,
		Status:           model.TransactionInitiated,
		Steps:            model.NewSteps(destinationChain, now),
		CreatedAt:        now,
	}
	if err := o.store.CreateTransaction(tx); err != nil {
		return nil, err
	}

	o.logger.WithFields(logrus.Fields{
		"transaction_id":    tx.ID,
		"wallet_id":         w.ID,
		"amount":            amount.String(),
		"destination_chain": destinationChain,
	}).Info("Bridge transaction started")
	return tx, nil
}

// AdvanceStep runs stepID, which must be the first step of the transaction that has not
// completed. On success the step is completed and the next one set in progress. On failure
// the step and the transaction are marked failed. If the wallet expires before or during
// the step the transaction is marked expired.
func (o *Orchestrator) AdvanceStep(ctx context.Context, txID, stepID string) (*model.PrivacyTransaction, error) {
	if !o.acquire(txID) {
		return nil, &model.ValidationError{Message: fmt.Sprintf("transaction %s is already advancing", txID)}
	}
	defer o.release(txID)

	tx, err := o.store.GetTransaction(txID)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		return nil, &model.ValidationError{Message: fmt.Sprintf("transaction %s is %s", tx.ID, tx.Status)}
	}
	step := tx.Step(stepID)
	if step == nil {
		return nil, &model.NotFoundError{Kind: "step", ID: stepID}
	}
	if current := tx.CurrentStep(); current == nil || current.ID != stepID {
		return nil, &model.ValidationError{Message: fmt.Sprintf("step %s is not the next step of transaction %s", stepID, tx.ID)}
	}

	w, err := o.store.Get(tx.WalletID)
	if err != nil {
		return nil, err
	}
	if w.ExpiredAt(o.now()) {
		return o.expire(tx.ID, stepID, w)
	}

	tx, err = o.store.UpdateTransaction(tx.ID, func(tx *model.PrivacyTransaction) error {
		return markInProgress(tx, stepID, o.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	log := o.logger.WithFields(logrus.Fields{"transaction_id": tx.ID, "step": stepID})
	log.Info("Bridge step started")

	result, runErr := o.runStep(ctx, tx, stepID, w)

	// Expiry pre-empts the step result; the external call itself is not undone.
	if w.ExpiredAt(o.now()) {
		return o.expire(tx.ID, stepID, w)
	}
	if runErr != nil {
		log.WithError(runErr).Error("Bridge step failed")
		return o.fail(tx.ID, stepID, runErr)
	}

	tx, err = o.store.UpdateTransaction(tx.ID, func(tx *model.PrivacyTransaction) error {
		return markCompleted(tx, stepID, result, o.now().UTC())
	})
	if err != nil {
		return nil, err
	}
	metrics.BridgeSteps.WithLabelValues(stepID, string(model.StepCompleted)).Inc()
	if tx.Status == model.TransactionCompleted {
		metrics.BridgeTransactions.WithLabelValues(string(model.TransactionCompleted)).Inc()
	}
	log.WithField("status", tx.Status).Info("Bridge step completed")
	return tx, nil
}

// Run advances every remaining step in order and returns the final transaction.
func (o *Orchestrator) Run(ctx context.Context, txID string) (*model.PrivacyTransaction, error) {
	tx, err := o.store.GetTransaction(txID)
	if err != nil {
		return nil, err
	}
	for !tx.Status.Terminal() {
		step := tx.CurrentStep()
		if step == nil {
			return tx, nil
		}
		tx, err = o.AdvanceStep(ctx, txID, step.ID)
		if err != nil {
			return tx, err
		}
		o.logger.WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"status":         tx.Status,
			"progress":       progress(tx),
		}).Info("Bridge progress")
	}
	return tx, nil
}

func (o *Orchestrator) acquire(txID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[txID] {
		return false
	}
	o.inFlight[txID] = true
	return true
}

func (o *Orchestrator) release(txID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, txID)
}

func (o *Orchestrator) fail(txID, stepID string, cause error) (*model.PrivacyTransaction, error) {
	tx, err := o.store.UpdateTransaction(txID, func(tx *model.PrivacyTransaction) error {
		return markFailed(tx, stepID, model.TransactionFailed, cause.Error(), o.now().UTC())
	})
	if err != nil {
		o.logger.WithError(err).WithField("transaction_id", txID).Error("Failed to record step failure")
		return nil, errors.Join(cause, err)
	}
	metrics.BridgeSteps.WithLabelValues(stepID, string(model.StepFailed)).Inc()
	metrics.BridgeTransactions.WithLabelValues(string(model.TransactionFailed)).Inc()
	return tx, cause
}

func (o *Orchestrator) expire(txID, stepID string, w *model.PrivacyWallet) (*model.PrivacyTransaction, error) {
	raceErr := &model.ExpiryRaceError{WalletID: w.ID, ExpiresAt: w.ExpiresAt}
	tx, err := o.store.UpdateTransaction(txID, func(tx *model.PrivacyTransaction) error {
		return markFailed(tx, stepID, model.TransactionExpired, raceErr.Error(), o.now().UTC())
	})
	if err != nil {
		// the sweep may already have removed the wallet and its transactions
		o.logger.WithError(err).WithField("transaction_id", txID).Warn("Could not mark transaction expired")
		return nil, raceErr
	}
	metrics.BridgeTransactions.WithLabelValues(string(model.TransactionExpired)).Inc()
	o.logger.WithFields(logrus.Fields{"transaction_id": txID, "wallet_id": w.ID}).Warn("Wallet expired during bridge")
	return tx, raceErr
}

// stepStatus is the transaction status while a step is in progress.
var stepStatus = map[string]model.TransactionStatus{
	model.StepInitialize:         model.TransactionInitiated,
	model.StepBridgeToTransit:    model.TransactionBridgingToTransit,
	model.StepRouteToDestination: model.TransactionRoutingToDestination,
	model.StepReady:              model.TransactionRoutingToDestination,
}

func markInProgress(tx *model.PrivacyTransaction, stepID string, now time.Time) error {
	step := tx.Step(stepID)
	if step == nil {
		return &model.NotFoundError{Kind: "step", ID: stepID}
	}
	if step.Status != model.StepInProgress {
		step.Status = model.StepInProgress
		step.Timestamp = now
	}
	return tx.SetStatus(stepStatus[stepID])
}

func markCompleted(tx *model.PrivacyTransaction, stepID string, result *stepResult, now time.Time) error {
	step := tx.Step(stepID)
	if step == nil {
		return &model.NotFoundError{Kind: "step", ID: stepID}
	}
	step.Status = model.StepCompleted
	step.Timestamp = now
	if result != nil {
		step.TxRef = result.txRef
		step.Detail = result.detail
	}

	next := tx.NextStep(stepID)
	if next == nil {
		if err := tx.SetStatus(model.TransactionCompleted); err != nil {
			return err
		}
		tx.CompletedAt = &now
		return nil
	}
	next.Status = model.StepInProgress
	next.Timestamp = now
	return tx.SetStatus(stepStatus[next.ID])
}

func markFailed(tx *model.PrivacyTransaction, stepID string, status model.TransactionStatus, msg string, now time.Time) error {
	if step := tx.Step(stepID); step != nil {
		step.Status = model.StepFailed
		step.Timestamp = now
	}
	if err := tx.SetStatus(status); err != nil {
		return err
	}
	tx.ErrorMessage = msg
	return nil
}

func progress(tx *model.PrivacyTransaction) string {
	done := 0
	for _, s := range tx.Steps {
		if s.Status == model.StepCompleted {
			done++
		}
	}
	return fmt.Sprintf("%d/%d", done, len(tx.Steps))
}

// stepResult is what a completed step records.
type stepResult struct {
	txRef  string
	detail json.RawMessage
}

func newStepResult(txRef string, detail any) (*stepResult, error) {
	data, err := json.Marshal(detail)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step detail: %w", err)
	}
	return &stepResult{txRef: txRef, detail: data}, nil
}
