package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecoveryReason explains why a recovery record was created.
type RecoveryReason string

const (
	RecoveryExpiring  RecoveryReason = "expiring"
	RecoveryManual    RecoveryReason = "manual"
	RecoveryEmergency RecoveryReason = "emergency"
)

func (r RecoveryReason) Valid() bool {
	switch r {
	case RecoveryExpiring, RecoveryManual, RecoveryEmergency:
		return true
	}
	return false
}

func (r *RecoveryReason) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !RecoveryReason(raw).Valid() {
		return fmt.Errorf("unknown recovery reason %q", raw)
	}
	*r = RecoveryReason(raw)
	return nil
}

// RecoveryStatus is the state of a recovery record.
type RecoveryStatus string

const (
	RecoveryPending      RecoveryStatus = "pending"
	RecoveryAcknowledged RecoveryStatus = "acknowledged"
)

func (s *RecoveryStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch RecoveryStatus(raw) {
	case RecoveryPending, RecoveryAcknowledged:
		*s = RecoveryStatus(raw)
		return nil
	}
	return fmt.Errorf("unknown recovery status %q", raw)
}

// FundRecoveryRecord holds advisory instructions for moving funds out of a wallet by hand.
type FundRecoveryRecord struct {
	ID              string         `json:"id"`
	WalletID        string         `json:"walletId"`
	RecoveryAddress string         `json:"recoveryAddress"`
	Reason          RecoveryReason `json:"reason"`
	Instructions    []string       `json:"instructions"`
	CreatedAt       time.Time      `json:"createdAt"`
	Status          RecoveryStatus `json:"status"`
}

// Validate checks the stored invariants of a recovery record.
func (r *FundRecoveryRecord) Validate() error {
	if r.ID == "" || r.WalletID == "" {
		return fmt.Errorf("recovery id or wallet id is empty")
	}
	if r.RecoveryAddress == "" {
		return fmt.Errorf("recovery %s: recovery address is empty", r.ID)
	}
	return nil
}

// RecoveryRequest represents request for POST /privacy/recovery
type RecoveryRequest struct {
	WalletID        string         `json:"walletId"`
	RecoveryAddress string         `json:"recoveryAddress"`
	Reason          RecoveryReason `json:"reason"`
}

// SweepRequest represents request for POST /privacy/recovery/sweep
type SweepRequest struct {
	RecoveryAddress string `json:"recoveryAddress"`
}

// SweepResponse represents response for POST /privacy/recovery/sweep
type SweepResponse struct {
	RecoveryIDs []string `json:"recoveryIds"`
}

// AcknowledgeRequest represents request for POST /privacy/recovery/ack
type AcknowledgeRequest struct {
	ID string `json:"id"`
}
