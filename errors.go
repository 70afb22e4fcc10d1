package secretstore

import "errors"

var (
	// ErrAllocation is returned when a secure buffer cannot be allocated.
	// It is fatal to the current operation only.
	ErrAllocation = errors.New("secretstore: secure buffer allocation failed")

	// ErrBufferTooSmall is returned when a destination buffer is shorter than
	// the plaintext length of the requested secret.
	ErrBufferTooSmall = errors.New("secretstore: destination buffer too small")

	// ErrNotFound is returned when a secret ID is not registered in the store.
	ErrNotFound = errors.New("secretstore: secret not found")

	// ErrInvalidSecretID is returned when a secret ID is empty.
	ErrInvalidSecretID = errors.New("secretstore: invalid secret ID")

	// ErrDuplicateSecret is returned when the same secret ID is registered twice.
	ErrDuplicateSecret = errors.New("secretstore: duplicate secret ID")

	// ErrKeyNotFound is returned when a key ID is not found in the provider.
	ErrKeyNotFound = errors.New("secretstore: key not found")

	// ErrInvalidKeySize is returned when a key is not 32 bytes.
	ErrInvalidKeySize = errors.New("secretstore: invalid key size, must be 32 bytes")

	// ErrInvalidKeyID is returned when a key ID is empty or invalid.
	ErrInvalidKeyID = errors.New("secretstore: invalid key ID")

	// ErrInvalidFormat is returned when sealed data has an invalid format.
	ErrInvalidFormat = errors.New("secretstore: invalid sealed data format")

	// ErrDecryptionFailed is returned when decryption fails (wrong key, tampered data).
	ErrDecryptionFailed = errors.New("secretstore: decryption failed")

	// ErrProviderDestroyed is returned by a key provider after Destroy.
	ErrProviderDestroyed = errors.New("secretstore: key provider destroyed")
)

// IsAllocation returns true if the error is or wraps ErrAllocation.
func IsAllocation(err error) bool {
	return errors.Is(err, ErrAllocation)
}

// IsBufferTooSmall returns true if the error is or wraps ErrBufferTooSmall.
func IsBufferTooSmall(err error) bool {
	return errors.Is(err, ErrBufferTooSmall)
}

// IsNotFound returns true if the error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidSecretID returns true if the error is or wraps ErrInvalidSecretID.
func IsInvalidSecretID(err error) bool {
	return errors.Is(err, ErrInvalidSecretID)
}

// IsDuplicateSecret returns true if the error is or wraps ErrDuplicateSecret.
func IsDuplicateSecret(err error) bool {
	return errors.Is(err, ErrDuplicateSecret)
}

// IsKeyNotFound returns true if the error is or wraps ErrKeyNotFound.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// IsInvalidKeySize returns true if the error is or wraps ErrInvalidKeySize.
func IsInvalidKeySize(err error) bool {
	return errors.Is(err, ErrInvalidKeySize)
}

// IsInvalidKeyID returns true if the error is or wraps ErrInvalidKeyID.
func IsInvalidKeyID(err error) bool {
	return errors.Is(err, ErrInvalidKeyID)
}

// IsInvalidFormat returns true if the error is or wraps ErrInvalidFormat.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsProviderDestroyed returns true if the error is or wraps ErrProviderDestroyed.
func IsProviderDestroyed(err error) bool {
	return errors.Is(err, ErrProviderDestroyed)
}
