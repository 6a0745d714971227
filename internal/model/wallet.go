package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransitChain is the chain every privacy wallet holds an address on.
const TransitChain = "near"

// PrivacyLevel controls how long an ephemeral wallet lives.
type PrivacyLevel string

const (
	PrivacyLevelHigh   PrivacyLevel = "high"
	PrivacyLevelMedium PrivacyLevel = "medium"
	PrivacyLevelLow    PrivacyLevel = "low"
)

// Valid reports whether l is one of the known privacy levels.
func (l PrivacyLevel) Valid() bool {
	switch l {
	case PrivacyLevelHigh, PrivacyLevelMedium, PrivacyLevelLow:
		return true
	}
	return false
}

// TTL returns the wallet lifetime for the level: 5m, 15m or 60m.
func (l PrivacyLevel) TTL() time.Duration {
	switch l {
	case PrivacyLevelHigh:
		return 5 * time.Minute
	case PrivacyLevelMedium:
		return 15 * time.Minute
	case PrivacyLevelLow:
		return 60 * time.Minute
	}
	return 0
}

// TransitDeadline returns the quote deadline used when bridging to the transit chain.
// Higher privacy means a shorter deadline.
func (l PrivacyLevel) TransitDeadline() time.Duration {
	switch l {
	case PrivacyLevelHigh:
		return 5 * time.Minute
	case PrivacyLevelMedium:
		return 10 * time.Minute
	}
	return 15 * time.Minute
}

// ParsePrivacyLevel converts s into a PrivacyLevel, rejecting unknown values.
func ParsePrivacyLevel(s string) (PrivacyLevel, error) {
	l := PrivacyLevel(s)
	if !l.Valid() {
		return "", &ValidationError{Message: fmt.Sprintf("unknown privacy level %q", s)}
	}
	return l, nil
}

func (l *PrivacyLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePrivacyLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// AddressRecord is the key material of a wallet on one chain.
type AddressRecord struct {
	ChainID    string `json:"chainId"`
	Address    string `json:"address"`
	PublicKey  string `json:"publicKey,omitempty"`
	PrivateKey string `json:"privateKey,omitempty"` // ephemeral wallets only
}

// PrivacyWallet is a temporary multi-chain key bundle with a fixed expiry.
type PrivacyWallet struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Addresses          []AddressRecord `json:"addresses"`
	CreatedAt          time.Time       `json:"createdAt"`
	ExpiresAt          time.Time       `json:"expiresAt"`
	PrivacyLevel       PrivacyLevel    `json:"privacyLevel"`
	DestinationChain   string          `json:"destinationChain"`
	PurposeDescription string          `json:"purposeDescription"`
	SourceAmount       decimal.Decimal `json:"sourceAmount"`
	AutoCleanup        bool            `json:"autoCleanup"`
}

// Address returns the wallet address on chainID.
func (w *PrivacyWallet) Address(chainID string) (AddressRecord, bool) {
	for _, a := range w.Addresses {
		if a.ChainID == chainID {
			return a, true
		}
	}
	return AddressRecord{}, false
}

// ExpiredAt reports whether the wallet is expired at now.
func (w *PrivacyWallet) ExpiredAt(now time.Time) bool {
	return !w.ExpiresAt.After(now)
}

// RemainingTime returns the time left before expiry, never negative.
func (w *PrivacyWallet) RemainingTime(now time.Time) time.Duration {
	left := w.ExpiresAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// FormatRemaining renders the remaining time as "4m 12s" or "12s".
func (w *PrivacyWallet) FormatRemaining(now time.Time) string {
	left := w.RemainingTime(now)
	minutes := int(left / time.Minute)
	seconds := int((left % time.Minute) / time.Second)
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// Validate checks the stored invariants of a wallet record.
func (w *PrivacyWallet) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("wallet id is empty")
	}
	if !w.PrivacyLevel.Valid() {
		return fmt.Errorf("wallet %s: unknown privacy level %q", w.ID, w.PrivacyLevel)
	}
	if !w.ExpiresAt.Equal(w.CreatedAt.Add(w.PrivacyLevel.TTL())) {
		return fmt.Errorf("wallet %s: expiresAt does not match privacy level ttl", w.ID)
	}
	if _, ok := w.Address(TransitChain); !ok {
		return fmt.Errorf("wallet %s: missing %s address", w.ID, TransitChain)
	}
	return nil
}

// WalletView is a wallet as listed to callers, with its remaining lifetime.
type WalletView struct {
	PrivacyWallet
	RemainingSeconds int64  `json:"remainingSeconds"`
	Remaining        string `json:"remaining"`
}

// NewWalletView builds the listing view of w at now.
func NewWalletView(w PrivacyWallet, now time.Time) WalletView {
	return WalletView{
		PrivacyWallet:    w,
		RemainingSeconds: int64(w.RemainingTime(now) / time.Second),
		Remaining:        w.FormatRemaining(now),
	}
}

// WalletExport is the backup document produced for a single wallet.
type WalletExport struct {
	Wallet     PrivacyWallet `json:"wallet"`
	ExportedAt time.Time     `json:"exportedAt"`
	Warning    string        `json:"warning"`
}

// ExportWarning is attached to every export document.
const ExportWarning = "KEEP THIS DATA SECURE - Contains private keys!"
