package crypto

import (
	"errors"
	"fmt"
)

// ErrInvalidPassword is returned when a document does not authenticate under the key.
var ErrInvalidPassword = errors.New("invalid password")

// Open decrypts ciphertext sealed by Seal.
func (s *Sealer) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != s.aead.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plaintext, nil
}

// StripBOM removes a leading UTF-8 BOM if present.
func StripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// AddBOM prefixes data with a UTF-8 BOM for proper display in Windows.
func AddBOM(data []byte) []byte {
	return append([]byte{0xEF, 0xBB, 0xBF}, data...)
}
