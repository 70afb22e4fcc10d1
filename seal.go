package secretstore

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
)

// SealOption configures Seal.
type SealOption func(*sealOptions)

type sealOptions struct {
	algorithm Algorithm
}

// WithSealAlgorithm selects the AEAD. The default is AES256GCM.
func WithSealAlgorithm(alg Algorithm) SealOption {
	return func(o *sealOptions) {
		o.algorithm = alg
	}
}

// Seal encrypts plaintext under kek using envelope encryption.
// A random DEK is generated per call, sealed with the KEK, and written into
// the header. Both layers use the key ID as associated data, binding the
// key identity to the sealed bytes. The plaintext length is preserved and
// readable from the output without decrypting.
func Seal(plaintext []byte, kek Key, opts ...SealOption) ([]byte, error) {
	o := sealOptions{algorithm: AES256GCM}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.algorithm.valid() {
		return nil, fmt.Errorf("%w: unsupported algorithm %d", ErrInvalidFormat, byte(o.algorithm))
	}
	if len(kek.Bytes) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(kek.Bytes))
	}
	if kek.ID == "" {
		return nil, fmt.Errorf("%w: key ID must not be empty", ErrInvalidKeyID)
	}
	if len(kek.ID) > maxKeyIDLen {
		return nil, fmt.Errorf("%w: key ID longer than %d bytes", ErrInvalidKeyID, maxKeyIDLen)
	}

	dek := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, dek); err != nil {
		return nil, fmt.Errorf("secretstore: failed to generate DEK: %w", err)
	}
	defer Wipe(dek)

	kekAEAD, err := newAEAD(o.algorithm, kek.Bytes)
	if err != nil {
		return nil, fmt.Errorf("secretstore: failed to create KEK cipher: %w", err)
	}
	nonceSize := o.algorithm.nonceSize()

	dekNonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, dekNonce); err != nil {
		return nil, fmt.Errorf("secretstore: failed to generate DEK nonce: %w", err)
	}
	sealedDEK := kekAEAD.Seal(nil, dekNonce, dek, []byte(kek.ID))

	dekAEAD, err := newAEAD(o.algorithm, dek)
	if err != nil {
		return nil, fmt.Errorf("secretstore: failed to create DEK cipher: %w", err)
	}

	dataNonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, dataNonce); err != nil {
		return nil, fmt.Errorf("secretstore: failed to generate data nonce: %w", err)
	}

	h := &header{
		version:   formatVersion,
		algorithm: o.algorithm,
		keyID:     kek.ID,
		dekNonce:  dekNonce,
		sealedDEK: sealedDEK,
		dataNonce: dataNonce,
	}

	var buf bytes.Buffer
	buf.Grow(headerSize(kek.ID, o.algorithm) + len(plaintext) + tagSize)
	if err := writeHeader(&buf, h); err != nil {
		return nil, fmt.Errorf("secretstore: failed to write header: %w", err)
	}
	out := buf.Bytes()
	return dekAEAD.Seal(out, dataNonce, plaintext, []byte(kek.ID)), nil
}
