package privacy

import (
	"context"

	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/common"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/shopspring/decimal"
)

// Balance reads the on-chain balance of every solana address of a wallet and values it in USD.
// A failure on one address is reported in its entry and does not fail the others.
func (s *Service) Balance(ctx context.Context, id string) (*model.WalletBalanceResponse, error) {
	w, err := s.vault.Get(id)
	if err != nil {
		return nil, err
	}

	resp := &model.WalletBalanceResponse{WalletID: w.ID, Balances: make([]model.AddressBalance, 0)}
	for _, a := range w.Addresses {
		ch, ok := s.catalog.Get(a.ChainID)
		if !ok || ch.Kind != chain.KindSolana {
			continue
		}
		resp.Balances = append(resp.Balances, s.solanaBalance(ctx, ch, a))
	}
	return resp, nil
}

func (s *Service) solanaBalance(ctx context.Context, ch chain.Chain, a model.AddressRecord) model.AddressBalance {
	bal := model.AddressBalance{ChainID: a.ChainID, Address: a.Address}

	reader, err := s.newBalanceReader(a.Address)
	if err != nil {
		bal.Error = err.Error()
		return bal
	}
	usdcMicro, solLamports, err := reader.GetBalance(ctx)
	if err != nil {
		s.logger.WithError(err).WithField("address", a.Address).Warn("Failed to read balance")
		bal.Error = err.Error()
		return bal
	}
	bal.Native = common.LamportsToSOL(solLamports)
	bal.USDC = common.MicroToUSDC(usdcMicro)

	if s.prices == nil || ch.PriceID == "" {
		return bal
	}
	price, err := s.prices.GetUSDPrice(ctx, ch.PriceID)
	if err != nil {
		// balances are still useful without a price
		s.logger.WithError(err).WithField("coin", ch.PriceID).Warn("Failed to get price")
		return bal
	}
	native := decimal.NewFromUint64(solLamports).Shift(-common.SOLDecimals)
	usdc := decimal.NewFromUint64(usdcMicro).Shift(-common.USDCDecimals)
	bal.Price = price.String()
	bal.USD = native.Mul(price).Add(usdc).StringFixed(2)
	return bal
}
