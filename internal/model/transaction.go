package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a privacy transaction.
type TransactionStatus string

const (
	TransactionInitiated            TransactionStatus = "initiated"
	TransactionBridgingToTransit    TransactionStatus = "bridging_to_transit"
	TransactionRoutingToDestination TransactionStatus = "routing_to_destination"
	TransactionCompleted            TransactionStatus = "completed"
	TransactionFailed               TransactionStatus = "failed"
	TransactionExpired              TransactionStatus = "expired"
)

// transactionRank orders the forward states. Terminal states have no rank.
var transactionRank = map[TransactionStatus]int{
	TransactionInitiated:            0,
	TransactionBridgingToTransit:    1,
	TransactionRoutingToDestination: 2,
	TransactionCompleted:            3,
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionInitiated, TransactionBridgingToTransit, TransactionRoutingToDestination,
		TransactionCompleted, TransactionFailed, TransactionExpired:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionCompleted || s == TransactionFailed || s == TransactionExpired
}

// CanTransition reports whether moving from s to next keeps the state machine
// moving forward. Failed and expired are reachable from any non-terminal state.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	if s.Terminal() || !next.Valid() {
		return false
	}
	if next == TransactionFailed || next == TransactionExpired {
		return true
	}
	return transactionRank[next] >= transactionRank[s]
}

func (s *TransactionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !TransactionStatus(raw).Valid() {
		return fmt.Errorf("unknown transaction status %q", raw)
	}
	*s = TransactionStatus(raw)
	return nil
}

// StepStatus is the state of a single bridge step.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
)

func (s StepStatus) Valid() bool {
	switch s {
	case StepPending, StepInProgress, StepCompleted, StepFailed:
		return true
	}
	return false
}

// Terminal reports whether the step reached completed or failed.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepFailed
}

func (s *StepStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !StepStatus(raw).Valid() {
		return fmt.Errorf("unknown step status %q", raw)
	}
	*s = StepStatus(raw)
	return nil
}

// Step ids in execution order.
const (
	StepInitialize         = "step_1"
	StepBridgeToTransit    = "step_2"
	StepRouteToDestination = "step_3"
	StepReady              = "step_4"
)

// StepOrder is the fixed order of bridge steps.
var StepOrder = []string{StepInitialize, StepBridgeToTransit, StepRouteToDestination, StepReady}

// Step is one stage of the bridge pipeline.
type Step struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Status    StepStatus      `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	TxRef     string          `json:"txRef,omitempty"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}

// PrivacyTransaction tracks one bridge run of a privacy wallet.
type PrivacyTransaction struct {
	ID               string            `json:"id"`
	WalletID         string            `json:"walletId"`
	SourceAmount     decimal.Decimal   `json:"sourceAmount"`
	DestinationChain string            `json:"destinationChain"`
	Status           TransactionStatus `json:"status"`
	Steps            []Step            `json:"steps"`
	CreatedAt        time.Time         `json:"createdAt"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	ErrorMessage     string            `json:"errorMessage,omitempty"`
}

// NewSteps returns the four pending steps of a bridge run towards destinationChain.
func NewSteps(destinationChain string, now time.Time) []Step {
	names := map[string]string{
		StepInitialize:         "Initialize Privacy Wallet",
		StepBridgeToTransit:    "Bridge to " + TransitChain,
		StepRouteToDestination: "Route to " + destinationChain,
		StepReady:              "Ready for DApp Interaction",
	}
	steps := make([]Step, 0, len(StepOrder))
	for _, id := range StepOrder {
		steps = append(steps, Step{
			ID:        id,
			Name:      names[id],
			Status:    StepPending,
			Timestamp: now,
		})
	}
	return steps
}

// Step returns a pointer to the step with id, or nil.
func (t *PrivacyTransaction) Step(id string) *Step {
	for i := range t.Steps {
		if t.Steps[i].ID == id {
			return &t.Steps[i]
		}
	}
	return nil
}

// CurrentStep returns the first step that has not completed, or nil when all did.
func (t *PrivacyTransaction) CurrentStep() *Step {
	for i := range t.Steps {
		if t.Steps[i].Status != StepCompleted {
			return &t.Steps[i]
		}
	}
	return nil
}

// NextStep returns the step after id, or nil for the last one.
func (t *PrivacyTransaction) NextStep(id string) *Step {
	for i := range t.Steps {
		if t.Steps[i].ID == id && i+1 < len(t.Steps) {
			return &t.Steps[i+1]
		}
	}
	return nil
}

// SetStatus moves the transaction to next if the state machine allows it.
func (t *PrivacyTransaction) SetStatus(next TransactionStatus) error {
	if t.Status == next {
		return nil
	}
	if !t.Status.CanTransition(next) {
		return fmt.Errorf("transaction %s: illegal transition %s -> %s", t.ID, t.Status, next)
	}
	t.Status = next
	return nil
}

// Validate checks the stored invariants of a transaction record.
func (t *PrivacyTransaction) Validate() error {
	if t.ID == "" || t.WalletID == "" {
		return fmt.Errorf("transaction id or wallet id is empty")
	}
	if len(t.Steps) != len(StepOrder) {
		return fmt.Errorf("transaction %s: expected %d steps, got %d", t.ID, len(StepOrder), len(t.Steps))
	}
	for i, id := range StepOrder {
		if t.Steps[i].ID != id {
			return fmt.Errorf("transaction %s: step %d is %s, want %s", t.ID, i, t.Steps[i].ID, id)
		}
	}
	return nil
}

// StartBridgeRequest represents request for POST /privacy/bridge/start
type StartBridgeRequest struct {
	WalletID         string          `json:"walletId"`
	Amount           decimal.Decimal `json:"amount"`
	DestinationChain string          `json:"destinationChain"`
}

// StartBridgeResponse represents response for POST /privacy/bridge/start
type StartBridgeResponse struct {
	Transaction            *PrivacyTransaction `json:"transaction"`
	EstimatedBridgeSeconds int                 `json:"estimatedBridgeSeconds"`
}

// AdvanceStepRequest represents request for POST /privacy/bridge/advance
type AdvanceStepRequest struct {
	TransactionID string `json:"transactionId"`
	StepID        string `json:"stepId"`
}

// RunBridgeRequest represents request for POST /privacy/bridge/run
type RunBridgeRequest struct {
	TransactionID string `json:"transactionId"`
}
