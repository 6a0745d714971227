package vault

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AlexZinkM/privacy-wallet/internal/crypto"
)

// Collection names of the persisted documents.
const (
	CollectionWallets      = "wallets"
	CollectionTransactions = "transactions"
	CollectionRecoveries   = "recoveries"
)

// Store persists whole collection documents.
// Load returns nil data and no error when a collection does not exist yet.
type Store interface {
	Load(collection string) ([]byte, error)
	Save(collection string, data []byte) error
}

// MemoryStore keeps documents in memory. It is used in tests and for throwaway sessions.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(collection string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Save(collection string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collection] = append([]byte(nil), data...)
	return nil
}

// MetaFile holds the KDF parameters and password check of a file vault.
const MetaFile = "vault.json"

const (
	fileExt       = ".pwv"
	metaVersion   = 1
	passwordCheck = "privacy-wallet-vault"
)

// vaultMeta is the plaintext header of an encrypted vault directory.
type vaultMeta struct {
	Version    int              `json:"version"`
	KDF        crypto.KDFParams `json:"kdf"`
	Salt       string           `json:"salt"`
	CheckNonce string           `json:"checkNonce"`
	Check      string           `json:"check"`
}

// sealedFile is the on-disk form of one collection.
type sealedFile struct {
	Collection string `json:"collection"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
}

// FileStore keeps each collection as an encrypted file in one directory.
type FileStore struct {
	dir    string
	sealer *crypto.Sealer
}

// OpenFileStore opens the vault in dir, creating it when it does not exist.
// password must be []byte for security (caller should zero it after use)
func OpenFileStore(dir string, password []byte, kdf crypto.KDFParams) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create vault dir: %w", err)
	}
	recoverRekey(dir)

	data, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if errors.Is(err, os.ErrNotExist) {
		if hasCollections(dir) {
			return nil, fmt.Errorf("vault header missing in %s but collection files exist", dir)
		}
		return initFileStore(dir, password, kdf)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vault header: %w", err)
	}

	var meta vaultMeta
	if err := json.Unmarshal(crypto.StripBOM(data), &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault header: %w", err)
	}
	if meta.Version != metaVersion {
		return nil, fmt.Errorf("unsupported vault version %d", meta.Version)
	}
	salt, err := base64.StdEncoding.DecodeString(meta.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealer, err := crypto.NewSealer(password, salt, meta.KDF)
	if err != nil {
		return nil, err
	}

	nonce, err := base64.StdEncoding.DecodeString(meta.CheckNonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	check, err := base64.StdEncoding.DecodeString(meta.Check)
	if err != nil {
		return nil, fmt.Errorf("failed to decode password check: %w", err)
	}
	plain, err := sealer.Open(nonce, check)
	if err != nil {
		return nil, err
	}
	if string(plain) != passwordCheck {
		return nil, crypto.ErrInvalidPassword
	}

	return &FileStore{dir: dir, sealer: sealer}, nil
}

func initFileStore(dir string, password []byte, kdf crypto.KDFParams) (*FileStore, error) {
	header, sealer, err := newHeader(password, kdf)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(filepath.Join(dir, MetaFile), header); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, sealer: sealer}, nil
}

// newHeader derives a sealer from a fresh salt and returns it with the encoded header.
func newHeader(password []byte, kdf crypto.KDFParams) ([]byte, *crypto.Sealer, error) {
	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, nil, err
	}
	sealer, err := crypto.NewSealer(password, salt, kdf)
	if err != nil {
		return nil, nil, err
	}
	nonce, check, err := sealer.Seal([]byte(passwordCheck))
	if err != nil {
		return nil, nil, err
	}

	meta := vaultMeta{
		Version:    metaVersion,
		KDF:        kdf,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		CheckNonce: base64.StdEncoding.EncodeToString(nonce),
		Check:      base64.StdEncoding.EncodeToString(check),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal vault header: %w", err)
	}
	return crypto.AddBOM(data), sealer, nil
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+fileExt)
}

func (s *FileStore) Load(collection string) ([]byte, error) {
	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", collection, err)
	}
	data = crypto.StripBOM(data)
	if len(data) == 0 {
		return nil, nil
	}

	var file sealedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s file: %w", collection, err)
	}
	if file.Collection != collection {
		return nil, fmt.Errorf("file %s holds collection %q", s.path(collection), file.Collection)
	}
	nonce, err := base64.StdEncoding.DecodeString(file.Nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(file.CipherText)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	return s.sealer.Open(nonce, ciphertext)
}

func (s *FileStore) Save(collection string, data []byte) error {
	fileData, err := s.seal(collection, data)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path(collection), fileData)
}

func (s *FileStore) seal(collection string, data []byte) ([]byte, error) {
	nonce, ciphertext, err := s.sealer.Seal(data)
	if err != nil {
		return nil, err
	}
	fileData, err := json.MarshalIndent(sealedFile{
		Collection: collection,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s file: %w", collection, err)
	}
	return crypto.AddBOM(fileData), nil
}

var collections = []string{CollectionWallets, CollectionTransactions, CollectionRecoveries}

const (
	stagedExt = ".rekey"
	backupExt = ".old"
)

// Rekey re-encrypts every collection in dir under newPassword.
// New files are staged next to the live ones and swapped in with the header last.
// Any failure puts the previous files back, so the old password keeps working.
func Rekey(dir string, oldPassword, newPassword []byte, kdf crypto.KDFParams) error {
	old, err := OpenFileStore(dir, oldPassword, kdf)
	if err != nil {
		return err
	}
	docs := make(map[string][]byte)
	for _, c := range collections {
		data, err := old.Load(c)
		if err != nil {
			return err
		}
		if data != nil {
			docs[c] = data
		}
	}
	defer func() {
		for _, d := range docs {
			clear(d)
		}
	}()

	header, sealer, err := newHeader(newPassword, kdf)
	if err != nil {
		return err
	}
	fresh := &FileStore{dir: dir, sealer: sealer}

	var targets []string
	defer func() {
		for _, target := range targets {
			os.Remove(target + stagedExt)
		}
	}()
	for _, c := range collections {
		data, ok := docs[c]
		if !ok {
			continue
		}
		fileData, err := fresh.seal(c, data)
		if err != nil {
			return err
		}
		targets = append(targets, fresh.path(c))
		if err := writeFileAtomic(fresh.path(c)+stagedExt, fileData); err != nil {
			return err
		}
	}
	metaPath := filepath.Join(dir, MetaFile)
	targets = append(targets, metaPath)
	if err := writeFileAtomic(metaPath+stagedExt, header); err != nil {
		return err
	}

	var committed []string
	for _, target := range targets {
		if err := commitStaged(target); err != nil {
			if rbErr := rollback(committed); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
			return fmt.Errorf("failed to replace %s: %w", filepath.Base(target), err)
		}
		committed = append(committed, target)
	}
	for _, target := range committed {
		os.Remove(target + backupExt)
	}
	return nil
}

// commitStaged moves target aside to its backup and the staged file into its place.
func commitStaged(target string) error {
	if err := os.Rename(target, target+backupExt); err != nil {
		return err
	}
	if err := os.Rename(target+stagedExt, target); err != nil {
		if restoreErr := os.Rename(target+backupExt, target); restoreErr != nil {
			return errors.Join(err, restoreErr)
		}
		return err
	}
	return nil
}

func rollback(committed []string) error {
	var errs []error
	for i := len(committed) - 1; i >= 0; i-- {
		if err := os.Rename(committed[i]+backupExt, committed[i]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// recoverRekey settles a rekey that was interrupted. The header backup exists only
// once the new header is being swapped in: with the new header present the rekey is
// done and backups are dropped, otherwise every backup goes back into place.
func recoverRekey(dir string) {
	metaPath := filepath.Join(dir, MetaFile)
	targets := make([]string, 0, len(collections)+1)
	for _, c := range collections {
		targets = append(targets, filepath.Join(dir, c+fileExt))
	}
	targets = append(targets, metaPath)

	for _, target := range targets {
		os.Remove(target + stagedExt)
	}
	done := fileExists(metaPath) && fileExists(metaPath+backupExt)
	for _, target := range targets {
		backup := target + backupExt
		if !fileExists(backup) {
			continue
		}
		if done {
			os.Remove(backup)
		} else {
			os.Rename(backup, target)
		}
	}
}

func hasCollections(dir string) bool {
	for _, c := range collections {
		if fileExists(filepath.Join(dir, c+fileExt)) {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeFileAtomic writes data to a temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
