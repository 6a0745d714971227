package keygen

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mustChain(t *testing.T, id string) chain.Chain {
	t.Helper()
	ch, ok := chain.Default().Get(id)
	if !ok {
		t.Fatalf("chain %s missing from default catalog", id)
	}
	return ch
}

func TestKeyFromEntropyKnownVectors(t *testing.T) {
	// RFC 8032 test 1
	seed, _ := hex.DecodeString("9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	near, err := keyFromEntropy(mustChain(t, "near"), seed)
	if err != nil {
		t.Fatalf("near: %v", err)
	}
	if near.Address != "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a" {
		t.Fatalf("near implicit account = %s", near.Address)
	}
	if !strings.HasPrefix(near.PublicKey, "ed25519:") || !strings.HasPrefix(near.PrivateKey, "ed25519:") {
		t.Fatalf("near keys not prefixed: %+v", near)
	}

	sol, err := keyFromEntropy(mustChain(t, "solana"), seed)
	if err != nil {
		t.Fatalf("solana: %v", err)
	}
	pub, err := base58.Decode(sol.Address)
	if err != nil {
		t.Fatalf("solana address not base58: %v", err)
	}
	if hex.EncodeToString(pub) != near.Address {
		t.Fatalf("solana and near must share the ed25519 public key for the same seed")
	}

	one := make([]byte, EntropySize)
	one[EntropySize-1] = 1
	eth, err := keyFromEntropy(mustChain(t, "ethereum"), one)
	if err != nil {
		t.Fatalf("ethereum: %v", err)
	}
	if eth.Address != "0x7E5F4552091A69125d5DfCd7b8C2659029395Bdf" {
		t.Fatalf("ethereum address = %s", eth.Address)
	}

	zec, err := keyFromEntropy(mustChain(t, "zcash"), one)
	if err != nil {
		t.Fatalf("zcash: %v", err)
	}
	if !strings.HasPrefix(zec.Address, "t1") {
		t.Fatalf("zcash address must be transparent t1, got %s", zec.Address)
	}
	decoded, err := base58.Decode(zec.Address)
	if err != nil {
		t.Fatalf("zcash address not base58: %v", err)
	}
	if len(decoded) != 26 || !bytes.Equal(decoded[:2], zcashP2PKHPrefix) {
		t.Fatalf("unexpected zcash payload %x", decoded)
	}
	if hex.EncodeToString(decoded[2:22]) != "751e76e8199196d454941c45d1b3a323f1433bd6" {
		t.Fatalf("zcash pubkey hash = %x", decoded[2:22])
	}
}

func TestKeyFromEntropyRejectsShortInput(t *testing.T) {
	if _, err := keyFromEntropy(mustChain(t, "near"), []byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short entropy")
	}
}

func TestEphemeralDeriverIsUnique(t *testing.T) {
	d := NewEphemeralDeriver()
	ch := mustChain(t, "solana")
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		rec, err := d.DeriveAddress(context.Background(), "same-seed", ch)
		if err != nil {
			t.Fatalf("derive: %v", err)
		}
		if rec.PrivateKey == "" {
			t.Fatal("ephemeral record must carry private key material")
		}
		if seen[rec.Address] {
			t.Fatalf("duplicate ephemeral address %s", rec.Address)
		}
		seen[rec.Address] = true
	}
}

func TestDeterministicDeriver(t *testing.T) {
	signer, err := NewHKDFDeriver(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("hkdf deriver: %v", err)
	}
	d := NewDeterministicDeriver("alice.near", signer)
	ctx := context.Background()

	for _, id := range []string{"near", "solana", "ethereum", "zcash"} {
		ch := mustChain(t, id)
		a, err := d.DeriveAddress(ctx, "wallet-1", ch)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		b, err := d.DeriveAddress(ctx, "wallet-1", ch)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if a.Address != b.Address {
			t.Fatalf("%s: same inputs gave %s and %s", id, a.Address, b.Address)
		}
		if a.PrivateKey != "" {
			t.Fatalf("%s: deterministic record must not carry private key", id)
		}
		c, err := d.DeriveAddress(ctx, "wallet-2", ch)
		if err != nil {
			t.Fatalf("%s: %v", id, err)
		}
		if c.Address == a.Address {
			t.Fatalf("%s: different paths gave the same address", id)
		}
	}

	other := NewDeterministicDeriver("bob.near", signer)
	a, _ := d.DeriveAddress(ctx, "wallet-1", mustChain(t, "near"))
	b, _ := other.DeriveAddress(ctx, "wallet-1", mustChain(t, "near"))
	if a.Address == b.Address {
		t.Fatal("different accounts gave the same address")
	}
}

func TestNewHKDFDeriverRejectsShortSecret(t *testing.T) {
	if _, err := NewHKDFDeriver([]byte("short")); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestGenerateAddressesSkipsUnknownChains(t *testing.T) {
	g := NewGenerator(chain.Default(), NewEphemeralDeriver(), quietLogger())
	recs, err := g.GenerateAddresses(context.Background(), "seed", []string{"near", "dogecoin", "solana", "near"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(recs) != 2 || recs[0].ChainID != "near" || recs[1].ChainID != "solana" {
		t.Fatalf("unexpected records %+v", recs)
	}
}

type failingDeriver struct{}

func (failingDeriver) DeriveAddress(context.Context, string, chain.Chain) (model.AddressRecord, error) {
	return model.AddressRecord{}, errors.New("signer offline")
}

func TestGenerateAddressesPropagatesDeriverError(t *testing.T) {
	g := NewGenerator(chain.Default(), failingDeriver{}, quietLogger())
	if _, err := g.GenerateAddresses(context.Background(), "seed", []string{"near"}); err == nil {
		t.Fatal("expected deriver error")
	}
}
