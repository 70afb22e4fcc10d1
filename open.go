package secretstore

import (
	"context"
	"fmt"
)

// bufferSource hands out and takes back the SecureBuffers openInto needs.
type bufferSource interface {
	acquire(ctx context.Context, n int) (*SecureBuffer, error)
	release(buf *SecureBuffer)
}

// openInto decrypts sealed data into dst, which must be exactly the
// plaintext length. The DEK lives in its own SecureBuffer from src for the
// duration of the call, and the KEK copy handed out by the provider is
// wiped before return. On failure dst holds zeros, never partial plaintext.
func openInto(ctx context.Context, dst, data []byte, provider KeyProvider, src bufferSource) error {
	h, ciphertext, err := readHeader(data)
	if err != nil {
		return err
	}
	if len(dst) != len(ciphertext)-tagSize {
		return fmt.Errorf("%w: destination is %d bytes, plaintext is %d", ErrBufferTooSmall, len(dst), len(ciphertext)-tagSize)
	}

	kek, err := provider.KeyByID(h.keyID)
	if err != nil {
		return err
	}
	defer Wipe(kek.Bytes)

	kekAEAD, err := newAEAD(h.algorithm, kek.Bytes)
	if err != nil {
		if IsInvalidKeySize(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	dek, err := src.acquire(ctx, keySize)
	if err != nil {
		return err
	}
	defer src.release(dek)

	// Capacity is pinned to the buffer so Open cannot reallocate onto the heap.
	dekBytes := dek.Bytes()
	if _, err := kekAEAD.Open(dekBytes[:0:keySize], h.dekNonce, h.sealedDEK, []byte(h.keyID)); err != nil {
		return fmt.Errorf("%w: failed to decrypt DEK", ErrDecryptionFailed)
	}

	dekAEAD, err := newAEAD(h.algorithm, dekBytes)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	if _, err := dekAEAD.Open(dst[:0:len(dst)], h.dataNonce, ciphertext, []byte(h.keyID)); err != nil {
		Wipe(dst)
		return fmt.Errorf("%w: failed to decrypt data", ErrDecryptionFailed)
	}
	return nil
}
