package keygen

import (
	"context"

	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/sirupsen/logrus"
)

// Generator produces the address set of a new wallet.
type Generator struct {
	catalog *chain.Catalog
	deriver AddressDeriver
	logger  *logrus.Logger
}

func NewGenerator(catalog *chain.Catalog, deriver AddressDeriver, logger *logrus.Logger) *Generator {
	return &Generator{catalog: catalog, deriver: deriver, logger: logger}
}

// GenerateAddresses returns one record per requested chain. Unknown or disabled chains are
// skipped, so the result may be a strict subset of chainIDs. Duplicates are ignored.
func (g *Generator) GenerateAddresses(ctx context.Context, seed string, chainIDs []string) ([]model.AddressRecord, error) {
	seen := make(map[string]bool, len(chainIDs))
	records := make([]model.AddressRecord, 0, len(chainIDs))
	for _, id := range chainIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		ch, ok := g.catalog.Get(id)
		if !ok {
			g.logger.WithField("chain_id", id).Warn("Skipping unknown chain")
			continue
		}
		rec, err := g.deriver.DeriveAddress(ctx, seed, ch)
		if err != nil {
			for i := range records {
				records[i].PrivateKey = ""
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
