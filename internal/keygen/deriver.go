package keygen

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"golang.org/x/crypto/hkdf"
)

// AddressDeriver produces the address material of one chain for a wallet seed.
type AddressDeriver interface {
	DeriveAddress(ctx context.Context, seed string, ch chain.Chain) (model.AddressRecord, error)
}

// EphemeralDeriver creates fresh random keys for every call. The seed is ignored.
type EphemeralDeriver struct {
	random io.Reader
}

func NewEphemeralDeriver() *EphemeralDeriver {
	return &EphemeralDeriver{random: rand.Reader}
}

func (d *EphemeralDeriver) DeriveAddress(ctx context.Context, _ string, ch chain.Chain) (model.AddressRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.AddressRecord{}, err
	}
	entropy := make([]byte, EntropySize)
	defer clear(entropy)
	if _, err := io.ReadFull(d.random, entropy); err != nil {
		return model.AddressRecord{}, fmt.Errorf("failed to read entropy: %w", err)
	}
	return keyFromEntropy(ch, entropy)
}

// DerivedKey is the public result of a signature-based derivation.
type DerivedKey struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
}

// SignatureDeriver is an external capability that maps (account, path, chain) to a key.
// Implementations must be deterministic.
type SignatureDeriver interface {
	Derive(ctx context.Context, account, path string, ch chain.Chain) (DerivedKey, error)
}

// DeterministicDeriver derives addresses for a fixed account, using the wallet seed as path.
// No private key material leaves the signer.
type DeterministicDeriver struct {
	account string
	signer  SignatureDeriver
}

func NewDeterministicDeriver(account string, signer SignatureDeriver) *DeterministicDeriver {
	return &DeterministicDeriver{account: account, signer: signer}
}

func (d *DeterministicDeriver) DeriveAddress(ctx context.Context, seed string, ch chain.Chain) (model.AddressRecord, error) {
	key, err := d.signer.Derive(ctx, d.account, seed, ch)
	if err != nil {
		return model.AddressRecord{}, fmt.Errorf("failed to derive %s address: %w", ch.ID, err)
	}
	return model.AddressRecord{
		ChainID:   ch.ID,
		Address:   key.Address,
		PublicKey: key.PublicKey,
	}, nil
}

const hkdfInfoPrefix = "privacy-wallet/derive/v1"

// HKDFDeriver is a local SignatureDeriver that expands a master secret with HKDF-SHA256.
// It stands in for a remote signer in development setups.
type HKDFDeriver struct {
	secret []byte
}

func NewHKDFDeriver(secret []byte) (*HKDFDeriver, error) {
	if len(secret) < EntropySize {
		return nil, fmt.Errorf("derivation secret must be at least %d bytes", EntropySize)
	}
	return &HKDFDeriver{secret: append([]byte(nil), secret...)}, nil
}

func (d *HKDFDeriver) Derive(ctx context.Context, account, path string, ch chain.Chain) (DerivedKey, error) {
	if err := ctx.Err(); err != nil {
		return DerivedKey{}, err
	}
	info := fmt.Sprintf("%s/%s/%s", hkdfInfoPrefix, ch.ID, path)
	reader := hkdf.New(sha256.New, d.secret, []byte(account), []byte(info))
	entropy := make([]byte, EntropySize)
	defer clear(entropy)
	if _, err := io.ReadFull(reader, entropy); err != nil {
		return DerivedKey{}, err
	}
	rec, err := keyFromEntropy(ch, entropy)
	if err != nil {
		return DerivedKey{}, err
	}
	return DerivedKey{Address: rec.Address, PublicKey: rec.PublicKey}, nil
}
