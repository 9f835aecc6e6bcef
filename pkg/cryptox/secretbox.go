package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// SecretBox encrypts small secrets (TOTP seeds) for storage at rest using
// AES-256-GCM. The ciphertext layout is [nonce][sealed data+tag].
type SecretBox struct {
	key [32]byte
}

// NewSecretBox derives an AES-256 key from arbitrary key material.
func NewSecretBox(material []byte) (*SecretBox, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty encryption key material")
	}
	return &SecretBox{key: sha256.Sum256(material)}, nil
}

// LoadSecretBox reads key material from path, generating and persisting a
// random key on first run so development setups work out of the box.
func LoadSecretBox(path string) (*SecretBox, error) {
	material, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		material = make([]byte, 32)
		if _, rerr := rand.Read(material); rerr != nil {
			return nil, fmt.Errorf("cryptox: generate encryption key: %w", rerr)
		}
		if werr := os.WriteFile(path, material, 0600); werr != nil {
			return nil, fmt.Errorf("cryptox: persist encryption key: %w", werr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("cryptox: read encryption key: %w", err)
	}
	return NewSecretBox(material)
}

// Seal encrypts plaintext with a random nonce per call.
func (b *SecretBox) Seal(plaintext []byte) ([]byte, error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts data produced by Seal, verifying the authentication tag.
func (b *SecretBox) Open(ciphertext []byte) ([]byte, error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("cryptox: ciphertext too short")
	}
	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptox: decryption failed: %w", err)
	}
	return plaintext, nil
}

func (b *SecretBox) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
