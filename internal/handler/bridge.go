package handler

import (
	"context"
	"net/http"

	"github.com/AlexZinkM/privacy-wallet/internal/bridge"
	"github.com/AlexZinkM/privacy-wallet/internal/model"
	"github.com/AlexZinkM/privacy-wallet/privacy"

	"github.com/sirupsen/logrus"
)

// BridgeHandler serves the bridge transaction endpoints
type BridgeHandler struct {
	orchestrator *bridge.Orchestrator
	service      *privacy.Service
	logger       *logrus.Logger
}

// NewBridgeHandler creates a new BridgeHandler
func NewBridgeHandler(orchestrator *bridge.Orchestrator, service *privacy.Service, logger *logrus.Logger) *BridgeHandler {
	return &BridgeHandler{orchestrator: orchestrator, service: service, logger: logger}
}

// Start handles POST /privacy/bridge/start
// @Summary      Start bridge transaction
// @Description  Creates a transaction with four pending steps for an active wallet
// @Tags         bridge
// @Accept       json
// @Produce      json
// @Param        request  body      model.StartBridgeRequest  true  "Bridge options"
// @Success      200      {object}  model.StartBridgeResponse
// @Failure      400      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Router       /privacy/bridge/start [post]
func (h *BridgeHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.StartBridgeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := h.orchestrator.Start(r.Context(), req.WalletID, req.Amount, req.DestinationChain)
	if err != nil {
		writeError(w, err)
		return
	}
	wallet, err := h.service.Get(tx.WalletID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.StartBridgeResponse{
		Transaction:            tx,
		EstimatedBridgeSeconds: bridge.EstimatedBridgeTime(wallet.PrivacyLevel, tx.DestinationChain),
	})
}

// Advance handles POST /privacy/bridge/advance
// @Summary      Advance one bridge step
// @Description  Runs the next pending step of a transaction. Steps run strictly in order and are never retried.
// @Tags         bridge
// @Accept       json
// @Produce      json
// @Param        request  body      model.AdvanceStepRequest  true  "Step to run"
// @Success      200      {object}  model.PrivacyTransaction
// @Failure      400      {object}  model.ErrorResponse
// @Failure      409      {object}  model.ErrorResponse
// @Failure      502      {object}  model.ErrorResponse
// @Router       /privacy/bridge/advance [post]
func (h *BridgeHandler) Advance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.AdvanceStepRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := h.orchestrator.AdvanceStep(r.Context(), req.TransactionID, req.StepID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// Run handles POST /privacy/bridge/run
// @Summary      Run bridge transaction
// @Description  Runs every remaining step in the background. Poll /privacy/transaction for progress.
// @Tags         bridge
// @Accept       json
// @Produce      json
// @Param        request  body      model.RunBridgeRequest  true  "Transaction to run"
// @Success      202      {object}  model.PrivacyTransaction
// @Failure      404      {object}  model.ErrorResponse
// @Router       /privacy/bridge/run [post]
func (h *BridgeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RunBridgeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := h.service.Transaction(req.TransactionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if tx.Status.Terminal() {
		writeError(w, &model.ValidationError{Message: "transaction " + tx.ID + " is " + string(tx.Status)})
		return
	}

	// the run outlives the request
	ctx := context.WithoutCancel(r.Context())
	go func() {
		final, err := h.orchestrator.Run(ctx, tx.ID)
		log := h.logger.WithField("transaction_id", tx.ID)
		if err != nil {
			log.WithError(err).Warn("Bridge run stopped")
			return
		}
		log.WithField("status", final.Status).Info("Bridge run finished")
	}()

	writeJSON(w, http.StatusAccepted, tx)
}

// Transaction handles GET /privacy/transaction
// @Summary      Get bridge transaction
// @Tags         bridge
// @Produce      json
// @Param        id   query     string  true  "Transaction ID"
// @Success      200  {object}  model.PrivacyTransaction
// @Failure      404  {object}  model.ErrorResponse
// @Router       /privacy/transaction [get]
func (h *BridgeHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireQuery(w, r, "id")
	if !ok {
		return
	}

	tx, err := h.service.Transaction(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// Transactions handles GET /privacy/transactions
// @Summary      List bridge transactions
// @Tags         bridge
// @Produce      json
// @Param        walletId  query     string  false  "Wallet ID"
// @Success      200       {array}   model.PrivacyTransaction
// @Router       /privacy/transactions [get]
func (h *BridgeHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	txs, err := h.service.Transactions(r.URL.Query().Get("walletId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
