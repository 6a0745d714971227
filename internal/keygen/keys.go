package keygen

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/AlexZinkM/privacy-wallet/internal/chain"
	"github.com/AlexZinkM/privacy-wallet/internal/model"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160"
)

// EntropySize is the number of random bytes behind every ephemeral key.
const EntropySize = 32

// zcash mainnet transparent P2PKH prefix ("t1") and WIF version.
var (
	zcashP2PKHPrefix = []byte{0x1C, 0xB8}
	zcashWIFVersion  = byte(0x80)
)

// keyFromEntropy builds the chain-appropriate key pair from 32 bytes of entropy.
func keyFromEntropy(ch chain.Chain, entropy []byte) (model.AddressRecord, error) {
	if len(entropy) != EntropySize {
		return model.AddressRecord{}, fmt.Errorf("need %d bytes of entropy, got %d", EntropySize, len(entropy))
	}
	rec := model.AddressRecord{ChainID: ch.ID}

	switch ch.Kind {
	case chain.KindSolana:
		priv := solana.PrivateKey(ed25519.NewKeyFromSeed(entropy))
		defer clear(priv)
		pub := priv.PublicKey()
		rec.Address = pub.String()
		rec.PublicKey = pub.String()
		rec.PrivateKey = priv.String()

	case chain.KindNEAR:
		// Implicit account: the hex encoded ed25519 public key.
		priv := ed25519.NewKeyFromSeed(entropy)
		defer clear(priv)
		pub := priv.Public().(ed25519.PublicKey)
		rec.Address = hex.EncodeToString(pub)
		rec.PublicKey = "ed25519:" + base58.Encode(pub)
		rec.PrivateKey = "ed25519:" + base58.Encode(priv)

	case chain.KindEVM:
		key, err := ethcrypto.ToECDSA(entropy)
		if err != nil {
			return model.AddressRecord{}, fmt.Errorf("failed to build secp256k1 key: %w", err)
		}
		raw := ethcrypto.FromECDSA(key)
		defer clear(raw)
		rec.Address = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
		rec.PublicKey = hexutil.Encode(ethcrypto.CompressPubkey(&key.PublicKey))
		rec.PrivateKey = hexutil.Encode(raw)

	case chain.KindZcash:
		key, err := ethcrypto.ToECDSA(entropy)
		if err != nil {
			return model.AddressRecord{}, fmt.Errorf("failed to build secp256k1 key: %w", err)
		}
		compressed := ethcrypto.CompressPubkey(&key.PublicKey)
		raw := ethcrypto.FromECDSA(key)
		defer clear(raw)
		rec.Address = zcashTransparentAddress(compressed)
		rec.PublicKey = hex.EncodeToString(compressed)
		rec.PrivateKey = zcashWIF(raw)

	default:
		return model.AddressRecord{}, fmt.Errorf("chain %s: unsupported kind %q", ch.ID, ch.Kind)
	}
	return rec, nil
}

// zcashTransparentAddress encodes a compressed secp256k1 public key as a t1 address.
func zcashTransparentAddress(compressedPub []byte) string {
	sha := sha256.Sum256(compressedPub)
	h := ripemd160.New()
	h.Write(sha[:])
	payload := append(append([]byte{}, zcashP2PKHPrefix...), h.Sum(nil)...)
	return base58Check(payload)
}

// zcashWIF encodes a private key in wallet import format, compressed flag set.
func zcashWIF(priv []byte) string {
	payload := make([]byte, 0, 1+len(priv)+1)
	payload = append(payload, zcashWIFVersion)
	payload = append(payload, priv...)
	payload = append(payload, 0x01)
	defer clear(payload)
	return base58Check(payload)
}

func base58Check(payload []byte) string {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(append([]byte{}, payload...), second[:4]...))
}
