package handler

import (
	"net/http"

	"github.com/AlexZinkM/privacy-wallet/internal/model"
	"github.com/AlexZinkM/privacy-wallet/privacy"
)

// PrivacyHandler serves the wallet endpoints
type PrivacyHandler struct {
	service *privacy.Service
}

// NewPrivacyHandler creates a new PrivacyHandler
func NewPrivacyHandler(service *privacy.Service) *PrivacyHandler {
	return &PrivacyHandler{service: service}
}

// Generate handles POST /privacy/generate
// @Summary      Generate privacy wallet
// @Description  Generates an ephemeral wallet with a transit and a destination address. The wallet is deleted when its privacy level TTL elapses.
// @Tags         privacy
// @Accept       json
// @Produce      json
// @Param        request  body      model.GenerateRequest  true  "Wallet options"
// @Success      200      {object}  model.GenerateResponse
// @Failure      400      {object}  model.ErrorResponse
// @Router       /privacy/generate [post]
func (h *PrivacyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, err := h.service.Generate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListWallets handles GET /privacy/wallets
// @Summary      List active wallets
// @Description  Lists wallets that have not expired with their remaining lifetime
// @Tags         privacy
// @Produce      json
// @Success      200  {array}   model.WalletView
// @Router       /privacy/wallets [get]
func (h *PrivacyHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	views, err := h.service.ListWallets()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Wallet handles GET and DELETE /privacy/wallet
// @Summary      Get or delete a wallet
// @Description  GET returns the wallet. DELETE removes it with its transactions and recovery records; deleting an unknown wallet is a no-op.
// @Tags         privacy
// @Produce      json
// @Param        id   query     string  true  "Wallet ID"
// @Success      200  {object}  model.PrivacyWallet
// @Failure      404  {object}  model.ErrorResponse
// @Router       /privacy/wallet [get]
// @Router       /privacy/wallet [delete]
func (h *PrivacyHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	id, ok := requireQuery(w, r, "id")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		wallet, err := h.service.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wallet)
	case http.MethodDelete:
		deleted, err := h.service.Delete(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
	default:
		http.Error(w, "Method not allowed. Should be GET or DELETE", http.StatusMethodNotAllowed)
	}
}

// Export handles GET /privacy/export
// @Summary      Export wallet
// @Description  Returns the wallet with all key material. Keep the result secure.
// @Tags         privacy
// @Produce      json
// @Param        id   query     string  true  "Wallet ID"
// @Success      200  {object}  model.WalletExport
// @Failure      404  {object}  model.ErrorResponse
// @Router       /privacy/export [get]
func (h *PrivacyHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireQuery(w, r, "id")
	if !ok {
		return
	}

	export, err := h.service.Export(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// GetBalance handles GET /privacy/balance
// @Summary      Get wallet balance
// @Description  Gets SOL and USDC balance of the solana addresses of a wallet with their USD value
// @Tags         privacy
// @Produce      json
// @Param        id   query     string  true  "Wallet ID"
// @Success      200  {object}  model.WalletBalanceResponse
// @Failure      404  {object}  model.ErrorResponse
// @Router       /privacy/balance [get]
func (h *PrivacyHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}
	id, ok := requireQuery(w, r, "id")
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}
