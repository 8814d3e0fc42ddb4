// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/verifier-tui/internal/util"
)

const (
	// SecretSize is the size of the installation secret in bytes.
	SecretSize = 32

	// PBKDF2Iterations for deriving per-purpose subkeys.
	PBKDF2Iterations = 100000

	sealKeySize = 32
)

// Sealer authenticates a value map with HMAC-SHA256.
type Sealer struct {
	key []byte
}

// NewSealer derives a subkey for purpose from the installation secret, so
// the same secret can protect unrelated files without key reuse.
func NewSealer(secret []byte, purpose string) *Sealer {
	salt := []byte("verifier/" + purpose)
	return &Sealer{key: pbkdf2.Key(secret, salt, PBKDF2Iterations, sealKeySize, sha256.New)}
}

// Seal returns the hex MAC of values. json.Marshal orders map keys, which
// makes the encoding canonical.
func (s *Sealer) Seal(values map[string]string) string {
	data, _ := json.Marshal(values)
	mac := hmac.New(sha256.New, s.key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether mac matches values.
func (s *Sealer) Verify(values map[string]string, mac string) bool {
	want, err := hex.DecodeString(mac)
	if err != nil {
		return false
	}
	got, _ := hex.DecodeString(s.Seal(values))
	return hmac.Equal(got, want)
}

// LoadOrCreateSecret reads the installation secret at path, creating a new
// random one with 0600 permissions if the file does not exist.
func LoadOrCreateSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		secret, decodeErr := hex.DecodeString(string(data))
		if decodeErr != nil || len(secret) != SecretSize {
			return nil, fmt.Errorf("%w: malformed secret in %s", ErrTampered, path)
		}
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read secret: %w", err)
	}

	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	if err := util.WriteFileAtomic(path, []byte(hex.EncodeToString(secret)), 0600); err != nil {
		return nil, fmt.Errorf("write secret: %w", err)
	}
	return secret, nil
}
