package chain

import (
	"fmt"
	"os"
	"sort"

	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"gopkg.in/yaml.v3"
)

// Kind selects how key material for a chain is produced.
type Kind string

const (
	KindNEAR   Kind = "near"
	KindSolana Kind = "solana"
	KindEVM    Kind = "evm"
	KindZcash  Kind = "zcash"
)

// Chain describes one supported chain and the intents assets used to route through it.
type Chain struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
	Kind   Kind   `yaml:"kind"`
	// Decimals are those of the AssetID token, which is not always the chain's native one.
	Decimals int32 `yaml:"decimals"`
	// AssetID is the defuse asset id delivered for this chain, held on the transit chain.
	AssetID string `yaml:"assetId"`
	// Destination marks chains a bridge may route to.
	Destination bool `yaml:"destination"`
	Enabled     bool `yaml:"enabled"`
	// PriceID is the CoinGecko coin id used to value balances.
	PriceID string `yaml:"priceId"`
}

// Catalog is the set of chains known to the wallet.
type Catalog struct {
	chains map[string]Chain
	// Source is the chain funds are bridged from.
	Source string
	// Transit is the chain funds are routed through, always model.TransitChain.
	Transit string
}

type catalogFile struct {
	Source string  `yaml:"source"`
	Chains []Chain `yaml:"chains"`
}

// Default returns the built-in catalog: zcash is bridged through near to a destination.
// ethereum and polygon route to SOL until their bridges are configured.
func Default() *Catalog {
	c, _ := newCatalog(catalogFile{
		Source: "zcash",
		Chains: []Chain{
			{ID: "zcash", Name: "Zcash", Symbol: "ZEC", Kind: KindZcash, Decimals: 8, AssetID: "nep141:zec.omft.near", Enabled: true, PriceID: "zcash"},
			{ID: "near", Name: "NEAR", Symbol: "NEAR", Kind: KindNEAR, Decimals: 24, AssetID: "nep141:wrap.near", Enabled: true, PriceID: "near"},
			{ID: "solana", Name: "Solana", Symbol: "SOL", Kind: KindSolana, Decimals: 9, AssetID: "nep141:sol.omft.near", Destination: true, Enabled: true, PriceID: "solana"},
			// no ETH or MATIC bridge yet: both deliver SOL, so they carry its asset and decimals
			{ID: "ethereum", Name: "Ethereum", Symbol: "ETH", Kind: KindEVM, Decimals: 9, AssetID: "nep141:sol.omft.near", Destination: true, Enabled: true, PriceID: "ethereum"},
			{ID: "polygon", Name: "Polygon", Symbol: "MATIC", Kind: KindEVM, Decimals: 9, AssetID: "nep141:sol.omft.near", Destination: true, Enabled: true, PriceID: "matic-network"},
		},
	})
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse chain catalog: %w", err)
	}
	return newCatalog(file)
}

func newCatalog(file catalogFile) (*Catalog, error) {
	c := &Catalog{
		chains:  make(map[string]Chain, len(file.Chains)),
		Source:  file.Source,
		Transit: model.TransitChain,
	}
	for _, ch := range file.Chains {
		if ch.ID == "" {
			return nil, fmt.Errorf("chain without id")
		}
		switch ch.Kind {
		case KindNEAR, KindSolana, KindEVM, KindZcash:
		default:
			return nil, fmt.Errorf("chain %s: unknown kind %q", ch.ID, ch.Kind)
		}
		c.chains[ch.ID] = ch
	}
	if _, ok := c.chains[c.Source]; !ok {
		return nil, fmt.Errorf("source chain %q not in catalog", c.Source)
	}
	if _, ok := c.chains[c.Transit]; !ok {
		return nil, fmt.Errorf("transit chain %q not in catalog", c.Transit)
	}
	return c, nil
}

// Get returns the enabled chain with id.
func (c *Catalog) Get(id string) (Chain, bool) {
	ch, ok := c.chains[id]
	if !ok || !ch.Enabled {
		return Chain{}, false
	}
	return ch, true
}

// IsDestination reports whether id is an enabled bridge destination.
// The transit chain itself is always a valid destination.
func (c *Catalog) IsDestination(id string) bool {
	ch, ok := c.Get(id)
	return ok && (ch.Destination || ch.ID == c.Transit)
}

// IDs returns the enabled chain ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.chains))
	for id, ch := range c.chains {
		if ch.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
