// Package wallet provides key management and call signing helpers.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/scrypt"

	"github.com/tolelom/tolledger/crypto"
)

// ErrWrongPassword is returned when a keystore cannot be decrypted.
var ErrWrongPassword = errors.New("wrong password or corrupted keystore")

const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

type keystoreFile struct {
	PubKey     string    `json:"pub_key"`
	KDF        kdfParams `json:"kdf"`
	Nonce      string    `json:"nonce"`
	CipherText string    `json:"cipher_text"`
}

type kdfParams struct {
	Name string `json:"name"`
	Salt string `json:"salt"`
	N    int    `json:"n"`
	R    int    `json:"r"`
	P    int    `json:"p"`
}

// SaveKey encrypts priv with password (scrypt + AES-GCM) and writes it to path.
func SaveKey(path, password string, priv crypto.PrivateKey) error {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return err
	}
	params := kdfParams{Name: "scrypt", Salt: hex.EncodeToString(salt), N: scryptN, R: scryptR, P: scryptP}
	gcm, err := newGCM(password, salt, params)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	cipherText := gcm.Seal(nil, nonce, priv, nil)

	ks := keystoreFile{
		PubKey:     priv.Public().Hex(),
		KDF:        params,
		Nonce:      hex.EncodeToString(nonce),
		CipherText: hex.EncodeToString(cipherText),
	}
	data, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadKey decrypts the keystore at path using password.
func LoadKey(path, password string) (crypto.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, err
	}
	if ks.KDF.Name != "scrypt" {
		return nil, fmt.Errorf("unsupported kdf %q", ks.KDF.Name)
	}
	salt, err := hex.DecodeString(ks.KDF.Salt)
	if err != nil {
		return nil, err
	}
	nonce, err := hex.DecodeString(ks.Nonce)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(ks.CipherText)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(password, salt, ks.KDF)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, ErrWrongPassword
	}
	privBytes, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, ErrWrongPassword
	}
	priv, err := crypto.PrivKeyFromHex(hex.EncodeToString(privBytes))
	if err != nil {
		return nil, ErrWrongPassword
	}
	if ks.PubKey != "" && priv.Public().Hex() != ks.PubKey {
		return nil, ErrWrongPassword
	}
	return priv, nil
}

func newGCM(password string, salt []byte, p kdfParams) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), salt, p.N, p.R, p.P, 32)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
