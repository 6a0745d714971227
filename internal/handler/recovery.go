package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/AlexZinkM/privacy-wallet/internal/model"
	"github.com/AlexZinkM/privacy-wallet/internal/recovery"
)

// RecoveryHandler serves the fund recovery endpoints
type RecoveryHandler struct {
	manager         *recovery.Manager
	recoveryAddress string
}

// NewRecoveryHandler creates a new RecoveryHandler. recoveryAddress is used by the sweep
// when the request names none.
func NewRecoveryHandler(manager *recovery.Manager, recoveryAddress string) *RecoveryHandler {
	return &RecoveryHandler{manager: manager, recoveryAddress: recoveryAddress}
}

// Create handles POST /privacy/recovery
// @Summary      Create recovery record
// @Description  Stores manual transfer instructions for every address of a wallet. No funds are moved.
// @Tags         recovery
// @Accept       json
// @Produce      json
// @Param        request  body      model.RecoveryRequest  true  "Recovery options"
// @Success      200      {object}  model.FundRecoveryRecord
// @Failure      400      {object}  model.ErrorResponse
// @Failure      404      {object}  model.ErrorResponse
// @Router       /privacy/recovery [post]
func (h *RecoveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.RecoveryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = model.RecoveryManual
	}

	rec, err := h.manager.CreateRecovery(req.WalletID, req.RecoveryAddress, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Sweep handles POST /privacy/recovery/sweep
// @Summary      Sweep expiring wallets
// @Description  Creates a recovery record for every wallet with less than the threshold left
// @Tags         recovery
// @Accept       json
// @Produce      json
// @Param        request  body      model.SweepRequest  false  "Recovery address, defaults to RECOVERY_ADDRESS"
// @Success      200      {object}  model.SweepResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /privacy/recovery/sweep [post]
func (h *RecoveryHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.SweepRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	address := strings.TrimSpace(req.RecoveryAddress)
	if address == "" {
		address = h.recoveryAddress
	}
	if address == "" {
		writeError(w, &model.ValidationError{Message: "recovery address is required"})
		return
	}

	ids, err := h.manager.Sweep(r.Context(), address, time.Now())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.SweepResponse{RecoveryIDs: ids})
}

// Pending handles GET /privacy/recovery/pending
// @Summary      Wallets needing recovery
// @Tags         recovery
// @Produce      json
// @Success      200  {array}   model.WalletView
// @Router       /privacy/recovery/pending [get]
func (h *RecoveryHandler) Pending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now()
	wallets, err := h.manager.Pending(now)
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]model.WalletView, 0, len(wallets))
	for _, wallet := range wallets {
		views = append(views, model.NewWalletView(wallet, now))
	}
	writeJSON(w, http.StatusOK, views)
}

// List handles GET /privacy/recoveries
// @Summary      List recovery records
// @Tags         recovery
// @Produce      json
// @Param        walletId  query     string  false  "Wallet ID"
// @Success      200       {array}   model.FundRecoveryRecord
// @Router       /privacy/recoveries [get]
func (h *RecoveryHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	recs, err := h.manager.List(r.URL.Query().Get("walletId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Acknowledge handles POST /privacy/recovery/ack
// @Summary      Acknowledge recovery record
// @Tags         recovery
// @Accept       json
// @Produce      json
// @Param        request  body      model.AcknowledgeRequest  true  "Record to acknowledge"
// @Success      200      {object}  model.FundRecoveryRecord
// @Failure      404      {object}  model.ErrorResponse
// @Router       /privacy/recovery/ack [post]
func (h *RecoveryHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.AcknowledgeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := h.manager.Acknowledge(req.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
