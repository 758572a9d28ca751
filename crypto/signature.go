package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrBadSignature is returned when a signature does not match.
var ErrBadSignature = errors.New("signature verification failed")

// Sign returns the hex ed25519 signature of data.
func Sign(priv PrivateKey, data []byte) string {
	return hex.EncodeToString(ed25519.Sign(ed25519.PrivateKey(priv), data))
}

// Verify checks sigHex against data.
func Verify(pub PublicKey, data []byte, sigHex string) error {
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(pub), data, sig) {
		return ErrBadSignature
	}
	return nil
}
