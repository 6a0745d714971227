package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/common"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func (o *Orchestrator) runStep(ctx context.Context, tx *model.PrivacyTransaction, stepID string, w *model.PrivacyWallet) (*stepResult, error) {
	switch stepID {
	case model.StepInitialize:
		return o.initialize(tx, w)
	case model.StepBridgeToTransit:
		return o.bridgeToTransit(ctx, tx, w)
	case model.StepRouteToDestination:
		return o.routeToDestination(ctx, tx, w)
	case model.StepReady:
		return newStepResult("", map[string]string{"destinationChain": tx.DestinationChain})
	}
	return nil, &model.NotFoundError{Kind: "step", ID: stepID}
}

// initialize checks the wallet holds the addresses the later steps need.
func (o *Orchestrator) initialize(tx *model.PrivacyTransaction, w *model.PrivacyWallet) (*stepResult, error) {
	transit, ok := w.Address(o.catalog.Transit)
	if !ok {
		return nil, fmt.Errorf("wallet %s has no %s address", w.ID, o.catalog.Transit)
	}
	recipient := o.recipient(tx, w)
	return newStepResult(transit.Address, map[string]string{
		"walletId":       w.ID,
		"transitAddress": transit.Address,
		"recipient":      recipient,
	})
}

// bridgeToTransit converts the source asset into the transit asset held by the wallet.
func (o *Orchestrator) bridgeToTransit(ctx context.Context, tx *model.PrivacyTransaction, w *model.PrivacyWallet) (*stepResult, error) {
	source, ok := o.catalog.Get(o.catalog.Source)
	if !ok {
		return nil, fmt.Errorf("source chain %s is not enabled", o.catalog.Source)
	}
	transit, ok := o.catalog.Get(o.catalog.Transit)
	if !ok {
		return nil, fmt.Errorf("transit chain %s is not enabled", o.catalog.Transit)
	}
	transitAddr, _ := w.Address(transit.ID)

	amount, err := common.ToBaseUnits(tx.SourceAmount, source.Decimals)
	if err != nil {
		return nil, &model.ValidationError{Message: err.Error()}
	}

	now := o.now()
	deadline := now.Add(w.PrivacyLevel.TransitDeadline())
	quote, err := o.settle(ctx, now, deadline, w.ExpiresAt, model.QuoteRequest{
		OriginAsset:       source.AssetID,
		DestinationAsset:  transit.AssetID,
		Amount:            amount,
		RefundTo:          transitAddr.Address,
		Recipient:         transitAddr.Address,
		Deadline:          deadline,
		SlippageTolerance: o.slippageBps,
	})
	if err != nil {
		return nil, err
	}
	return newStepResult(quote.DepositAddress, quote)
}

// routeToDestination moves the transit asset received in the previous step to the destination.
func (o *Orchestrator) routeToDestination(ctx context.Context, tx *model.PrivacyTransaction, w *model.PrivacyWallet) (*stepResult, error) {
	if tx.DestinationChain == o.catalog.Transit {
		return newStepResult("", map[string]string{"skipped": "destination is the transit chain"})
	}
	transit, ok := o.catalog.Get(o.catalog.Transit)
	if !ok {
		return nil, fmt.Errorf("transit chain %s is not enabled", o.catalog.Transit)
	}
	dest, ok := o.catalog.Get(tx.DestinationChain)
	if !ok {
		return nil, fmt.Errorf("destination chain %s is not enabled", tx.DestinationChain)
	}

	prev := tx.Step(model.StepBridgeToTransit)
	var bridged model.Quote
	if prev == nil || len(prev.Detail) == 0 {
		return nil, fmt.Errorf("no bridge quote recorded for transaction %s", tx.ID)
	}
	if err := json.Unmarshal(prev.Detail, &bridged); err != nil {
		return nil, fmt.Errorf("failed to read bridge quote: %w", err)
	}
	received, err := common.FromBaseUnits(bridged.AmountOut, transit.Decimals)
	if err != nil {
		return nil, fmt.Errorf("bridge quote of transaction %s has no usable output amount: %w", tx.ID, err)
	}
	o.logger.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"amount":         received,
		"asset":          transit.Symbol,
		"destination":    dest.ID,
	}).Info("Routing bridged amount")

	transitAddr, _ := w.Address(transit.ID)
	now := o.now()
	deadline := now.Add(o.routeDeadline)
	quote, err := o.settle(ctx, now, deadline, w.ExpiresAt, model.QuoteRequest{
		OriginAsset:       transit.AssetID,
		DestinationAsset:  dest.AssetID,
		Amount:            bridged.AmountOut,
		RefundTo:          transitAddr.Address,
		Recipient:         o.recipient(tx, w),
		Deadline:          deadline,
		SlippageTolerance: o.slippageBps,
	})
	if err != nil {
		return nil, err
	}
	return newStepResult(quote.DepositAddress, quote)
}

// settle gets a quote and waits for it to settle, bounded by the quote deadline and the
// wallet expiry, whichever comes first.
func (o *Orchestrator) settle(ctx context.Context, now, deadline, expiresAt time.Time, req model.QuoteRequest) (*model.Quote, error) {
	if expiresAt.Before(deadline) {
		deadline = expiresAt
	}
	ctx, cancel := context.WithTimeout(ctx, deadline.Sub(now))
	defer cancel()

	quote, err := o.engine.GetQuote(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := o.engine.AwaitSettlement(ctx, quote); err != nil {
		return nil, err
	}
	return quote, nil
}

// recipient is the wallet address on the destination chain, or the transit address when
// the wallet holds none there.
func (o *Orchestrator) recipient(tx *model.PrivacyTransaction, w *model.PrivacyWallet) string {
	if a, ok := w.Address(tx.DestinationChain); ok {
		return a.Address
	}
	a, _ := w.Address(o.catalog.Transit)
	return a.Address
}

// EstimatedBridgeTime returns the expected duration of a bridge run in seconds.
// Higher privacy levels and ethereum take longer.
func EstimatedBridgeTime(level model.PrivacyLevel, destinationChain string) int {
	base := decimal.NewFromInt(60)
	multiplier := decimal.NewFromInt(1)
	switch level {
	case model.PrivacyLevelHigh:
		multiplier = decimal.RequireFromString("1.5")
	case model.PrivacyLevelMedium:
		multiplier = decimal.RequireFromString("1.2")
	}
	if destinationChain == "ethereum" {
		multiplier = multiplier.Mul(decimal.RequireFromString("1.3"))
	}
	return int(base.Mul(multiplier).Ceil().IntPart())
}
