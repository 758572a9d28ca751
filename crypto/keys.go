// Package crypto wraps ed25519 keys, signatures and SHA-256 hashing used to
// authenticate ledger calls.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type (
	PrivateKey []byte
	PublicKey  []byte
)

// GenerateKeyPair creates a fresh ed25519 key pair.
func GenerateKeyPair() (PrivateKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return PrivateKey(priv), PublicKey(pub), nil
}

// Hex is the 64-char form used as an account id.
func (pub PublicKey) Hex() string { return hex.EncodeToString(pub) }

func (priv PrivateKey) Hex() string { return hex.EncodeToString(priv) }

// Public derives the public half.
func (priv PrivateKey) Public() PublicKey {
	return PublicKey(ed25519.PrivateKey(priv).Public().(ed25519.PublicKey))
}

// PubKeyFromHex decodes and length-checks a hex public key.
func PubKeyFromHex(s string) (PublicKey, error) {
	b, err := decodeSized(s, ed25519.PublicKeySize)
	if err != nil {
		return nil, fmt.Errorf("invalid pubkey: %w", err)
	}
	return PublicKey(b), nil
}

// PrivKeyFromHex decodes and length-checks a hex private key.
func PrivKeyFromHex(s string) (PrivateKey, error) {
	b, err := decodeSized(s, ed25519.PrivateKeySize)
	if err != nil {
		return nil, fmt.Errorf("invalid privkey: %w", err)
	}
	return PrivateKey(b), nil
}

// IsPubKeyHex reports whether s decodes to an ed25519 public key.
func IsPubKeyHex(s string) bool {
	_, err := PubKeyFromHex(s)
	return err == nil
}

func decodeSized(s string, size int) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("want %d bytes, got %d", size, len(b))
	}
	return b, nil
}

// Hash returns the lowercase hex SHA-256 of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
