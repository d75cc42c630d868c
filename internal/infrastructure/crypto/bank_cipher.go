package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

const gcmNonceSize = 12

// BankCipher encrypts customer bank details with AES-256-GCM before they
// are written to the database. The blob layout keeps the GCM tag separate
// so the payload stays compatible with records written by older versions
// of the platform.
type BankCipher struct {
	key []byte
}

// encryptedBlob is the persisted ciphertext envelope, all fields base64
type encryptedBlob struct {
	IV   string `json:"iv"`
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// NewBankCipher builds a cipher from a base64-encoded key. The decoded key
// must be exactly 32 bytes.
func NewBankCipher(keyB64 string) (*BankCipher, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("bank encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("bank encryption key must decode to 32 bytes, got %d", len(key))
	}
	return &BankCipher{key: key}, nil
}

// Encrypt serializes the bank detail fields to JSON and seals them with a
// fresh random nonce. Two calls with the same input produce different blobs.
func (c *BankCipher) Encrypt(details map[string]string) (string, error) {
	plaintext, err := json.Marshal(details)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	tagStart := len(sealed) - gcm.Overhead()

	blob := encryptedBlob{
		IV:   base64.StdEncoding.EncodeToString(nonce),
		Tag:  base64.StdEncoding.EncodeToString(sealed[tagStart:]),
		Data: base64.StdEncoding.EncodeToString(sealed[:tagStart]),
	}

	out, err := json.Marshal(blob)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Decrypt opens a blob produced by Encrypt. Tampering with any field makes
// the GCM tag check fail.
func (c *BankCipher) Decrypt(blobJSON string) (map[string]string, error) {
	var blob encryptedBlob
	if err := json.Unmarshal([]byte(blobJSON), &blob); err != nil {
		return nil, fmt.Errorf("malformed encrypted blob: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(blob.IV)
	if err != nil {
		return nil, fmt.Errorf("malformed iv: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(blob.Tag)
	if err != nil {
		return nil, fmt.Errorf("malformed tag: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(blob.Data)
	if err != nil {
		return nil, fmt.Errorf("malformed data: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("invalid nonce size %d", len(nonce))
	}

	plaintext, err := gcm.Open(nil, nonce, append(data, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("bank details decryption failed: %w", err)
	}

	var details map[string]string
	if err := json.Unmarshal(plaintext, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// AccountLast4 returns the last four digits of an account number for
// cleartext display. Shorter values are returned unchanged.
func AccountLast4(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	return accountNumber[len(accountNumber)-4:]
}
