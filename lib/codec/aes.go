package codec

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
)

// NewEncryptedCodec wraps an inner codec with AES-256-GCM encryption.
//
// The key must be exactly 32 bytes. Each Encode uses a fresh random nonce
// which is prepended to the ciphertext; GCM appends an authentication tag,
// so tampered data fails Decode instead of producing garbage.
func NewEncryptedCodec(inner Codec, key []byte) (Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be exactly 32 bytes for AES-256, got %d bytes", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &encryptedCodecImpl{inner: inner, gcm: gcm}, nil
}

// encryptedCodecImpl implements the Codec interface by encrypting the
// byte stream of an inner codec with AES-GCM
type encryptedCodecImpl struct {
	inner Codec
	gcm   cipher.AEAD
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.Codec)
// --------------------------------------------------------------------------

func (e encryptedCodecImpl) Encode(ctx context.Context, value any) ([]byte, error) {
	plaintext, err := e.inner.Encode(ctx, value)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Result layout: nonce + ciphertext + tag
	return e.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (e encryptedCodecImpl) Decode(ctx context.Context, data []byte, dest any) error {
	nonceSize := e.gcm.NonceSize()
	if len(data) < nonceSize {
		return fmt.Errorf("ciphertext too short: %d bytes (minimum: %d bytes)", len(data), nonceSize)
	}

	nonce := data[:nonceSize]
	plaintext, err := e.gcm.Open(nil, nonce, data[nonceSize:], nil)
	if err != nil {
		return fmt.Errorf("decryption failed (authentication check failed or invalid data): %w", err)
	}

	return e.inner.Decode(ctx, plaintext, dest)
}
