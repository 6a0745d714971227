package model

import "github.com/shopspring/decimal"

// GenerateRequest represents request for POST /privacy/generate
type GenerateRequest struct {
	DestinationChain string          `json:"destinationChain"`
	PrivacyLevel     PrivacyLevel    `json:"privacyLevel"`
	Purpose          string          `json:"purpose"`
	SourceAmount     decimal.Decimal `json:"sourceAmount"`
}

// GenerateResponse represents response for POST /privacy/generate
type GenerateResponse struct {
	Success        bool          `json:"success"`
	Message        string        `json:"message"`
	Wallet         PrivacyWallet `json:"wallet"`
	DepositAddress string        `json:"depositAddress,omitempty"`
	DepositQR      string        `json:"depositQR,omitempty"` // base64 PNG
}
