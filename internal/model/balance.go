package model

// AddressBalance is the on-chain balance of one wallet address.
type AddressBalance struct {
	ChainID string `json:"chainId"`
	Address string `json:"address"`
	Native  string `json:"native,omitempty"`
	USDC    string `json:"usdc,omitempty"`
	Price   string `json:"price,omitempty"` // USD per native unit
	USD     string `json:"usd,omitempty"`   // Native*Price + USDC
	Error   string `json:"error,omitempty"`
}

// WalletBalanceResponse represents response for GET /privacy/balance
type WalletBalanceResponse struct {
	WalletID string           `json:"walletId"`
	Balances []AddressBalance `json:"balances"`
}
