package model

import "time"

// QuoteRequest asks the settlement service to price one asset conversion.
type QuoteRequest struct {
	OriginAsset       string    `json:"originAsset"`
	DestinationAsset  string    `json:"destinationAsset"`
	Amount            string    `json:"amount"` // base units
	RefundTo          string    `json:"refundTo"`
	Recipient         string    `json:"recipient"`
	Deadline          time.Time `json:"deadline"`
	SlippageTolerance int       `json:"slippageTolerance"` // basis points
}

// Quote is a priced, time-bounded routing offer.
type Quote struct {
	DepositAddress     string    `json:"depositAddress"`
	AmountIn           string    `json:"amountIn,omitempty"`
	AmountOut          string    `json:"amountOut"`
	AmountOutFormatted string    `json:"amountOutFormatted"`
	Deadline           time.Time `json:"deadline,omitempty"`
	TimeEstimate       int       `json:"timeEstimate,omitempty"` // seconds
}
