// File: internal/domain/apikey.go
package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ApiKeySecretPrefix marks every issued secret so credentials are
// distinguishable from JWTs at the access boundary.
const ApiKeySecretPrefix = "adk_"

// displayPrefixLen is how many leading characters of the plaintext
// secret are kept for display. Enough to recognize a key, useless
// for authentication.
const displayPrefixLen = 12

// ApiKey is a scoped credential authorizing chat access to one Store.
// Only the bcrypt hash and a SHA-256 fingerprint persist; the plaintext
// secret is returned exactly once at creation time.
//
// PromptID is a weak reference: it pins the key to a specific prompt
// for lookup only. When the pinned prompt is gone, resolution falls
// back to the store's active prompt.
type ApiKey struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	StoreID     uint      `json:"store_id" gorm:"index;not null"`
	PromptID    *uint     `json:"prompt_id,omitempty"`
	Name        string    `json:"name" gorm:"not null"`
	KeyPrefix   string    `json:"key_prefix" gorm:"not null"`
	KeyHash     []byte    `json:"-" gorm:"not null"`
	Fingerprint []byte    `json:"-" gorm:"uniqueIndex;not null"`
	CreatedAt   time.Time `json:"created_at"`
}

// GenerateApiKeySecret returns a new cryptographically random secret.
func GenerateApiKeySecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return ApiKeySecretPrefix + hex.EncodeToString(buf), nil
}

// ApiKeyFingerprint computes the SHA-256 lookup fingerprint of a secret.
// bcrypt output is salted and cannot be used as a database key, so the
// fingerprint exists purely for O(1) lookup before the hash comparison.
func ApiKeyFingerprint(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// SetSecret hashes the plaintext secret into the record and retains
// the display prefix. The plaintext itself is never stored.
func (k *ApiKey) SetSecret(secret string) error {
	if !strings.HasPrefix(secret, ApiKeySecretPrefix) {
		return errors.New("malformed api key secret")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	k.KeyHash = hashed
	k.Fingerprint = ApiKeyFingerprint(secret)
	k.KeyPrefix = secret[:displayPrefixLen]
	return nil
}

// ValidateSecret compares a presented plaintext secret with the stored hash.
func (k *ApiKey) ValidateSecret(secret string) error {
	return bcrypt.CompareHashAndPassword(k.KeyHash, []byte(secret))
}
