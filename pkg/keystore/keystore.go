package keystore

import (
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/theblitlabs/parity-stake/pkg/logger"
)

const (
	DirName  = ".parity-stake"
	FileName = "keystore.json"
)

var ErrNoKey = errors.New("no private key found - please authenticate first using 'parity-stake auth'")

type Keystore struct {
	PrivateKey string `json:"private_key"`
	Address    string `json:"address"`
	CreatedAt  int64  `json:"created_at"`
}

// Store persists a single signing key as JSON with 0600 permissions.
type Store struct {
	path string
}

// NewStore returns a store backed by dir/keystore.json.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}
	return &Store{path: filepath.Join(dir, FileName)}, nil
}

// DefaultStore returns the store under the user's home directory.
func DefaultStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewStore(filepath.Join(homeDir, DirName))
}

func (s *Store) Path() string {
	return s.path
}

// SavePrivateKey validates and stores a hex private key, with or without 0x.
func (s *Store) SavePrivateKey(privateKeyHex string) (common.Address, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x")
	if len(privateKeyHex) != 64 {
		return common.Address{}, errors.New("invalid private key - must be 64 hex characters")
	}

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid private key format: %w", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	data, err := json.MarshalIndent(Keystore{
		PrivateKey: privateKeyHex,
		Address:    address.Hex(),
		CreatedAt:  time.Now().Unix(),
	}, "", "  ")
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to marshal keystore: %w", err)
	}

	log := logger.WithComponent("keystore")
	log.Info().
		Str("path", s.path).
		Str("address", address.Hex()).
		Msg("Saving private key to keystore")

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return common.Address{}, fmt.Errorf("failed to write keystore file: %w", err)
	}

	return address, nil
}

// LoadPrivateKey returns ErrNoKey when nothing has been stored yet.
func (s *Store) LoadPrivateKey() (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoKey
		}
		return nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("failed to parse keystore: %w", err)
	}
	if ks.PrivateKey == "" {
		return nil, ErrNoKey
	}

	key, err := crypto.HexToECDSA(ks.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key in keystore: %w", err)
	}
	return key, nil
}

// Remove deletes the stored key. Removing a missing key is not an error.
func (s *Store) Remove() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove keystore: %w", err)
	}
	return nil
}
