package secretstore

import (
	"fmt"
	"io"
)

// Binary format constants.
const (
	// magic is the 2-byte signature "SS" (Sealed Secret).
	magic = "SS"

	// formatVersion is the current binary format version.
	formatVersion = 0x01

	// keySize is the required key size in bytes for both KEKs and DEKs.
	keySize = 32

	// tagSize is the authentication tag size shared by GCM and Poly1305.
	tagSize = 16

	// sealedDEKSize is the size of a sealed DEK: 32-byte key + 16-byte tag.
	sealedDEKSize = keySize + tagSize

	// minHeaderSize is magic(2) + version(1) + alg(1) + keyIDLen(1).
	minHeaderSize = 5

	// maxKeyIDLen is bounded by the single length byte.
	maxKeyIDLen = 255
)

// header is the parsed prefix of a sealed secret.
type header struct {
	version   byte
	algorithm Algorithm
	keyID     string
	dekNonce  []byte
	sealedDEK []byte // 48 bytes (32B DEK + 16B tag)
	dataNonce []byte
}

// headerSize returns the total header size in bytes for the given key ID
// and algorithm.
func headerSize(keyID string, alg Algorithm) int {
	n := alg.nonceSize()
	return minHeaderSize + len(keyID) + n + sealedDEKSize + n
}

// writeHeader writes the binary header to w.
func writeHeader(w io.Writer, h *header) error {
	if _, err := w.Write([]byte(magic)); err != nil {
		return err
	}

	keyIDBytes := []byte(h.keyID)
	if len(keyIDBytes) > maxKeyIDLen {
		return fmt.Errorf("%w: key ID too long", ErrInvalidFormat)
	}
	meta := []byte{h.version, byte(h.algorithm), byte(len(keyIDBytes))}
	if _, err := w.Write(meta); err != nil {
		return err
	}
	if _, err := w.Write(keyIDBytes); err != nil {
		return err
	}
	if _, err := w.Write(h.dekNonce); err != nil {
		return err
	}
	if _, err := w.Write(h.sealedDEK); err != nil {
		return err
	}
	if _, err := w.Write(h.dataNonce); err != nil {
		return err
	}
	return nil
}

// readHeader parses the binary header from data, returning the header and
// the remaining ciphertext (data sealed under the DEK, tag included).
// Byte slices in the header are copies; the ciphertext aliases data.
func readHeader(data []byte) (*header, []byte, error) {
	if len(data) < minHeaderSize {
		return nil, nil, fmt.Errorf("%w: data too short", ErrInvalidFormat)
	}
	if string(data[0:2]) != magic {
		return nil, nil, fmt.Errorf("%w: invalid magic bytes", ErrInvalidFormat)
	}

	h := &header{
		version:   data[2],
		algorithm: Algorithm(data[3]),
	}
	if h.version != formatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, h.version)
	}
	if !h.algorithm.valid() {
		return nil, nil, fmt.Errorf("%w: unsupported algorithm %d", ErrInvalidFormat, h.algorithm)
	}

	keyIDLen := int(data[4])
	offset := minHeaderSize
	nonceSize := h.algorithm.nonceSize()

	needed := keyIDLen + nonceSize + sealedDEKSize + nonceSize
	if len(data) < offset+needed {
		return nil, nil, fmt.Errorf("%w: data too short for header", ErrInvalidFormat)
	}

	h.keyID = string(data[offset : offset+keyIDLen])
	offset += keyIDLen

	h.dekNonce = append([]byte(nil), data[offset:offset+nonceSize]...)
	offset += nonceSize

	h.sealedDEK = append([]byte(nil), data[offset:offset+sealedDEKSize]...)
	offset += sealedDEKSize

	h.dataNonce = append([]byte(nil), data[offset:offset+nonceSize]...)
	offset += nonceSize

	ciphertext := data[offset:]
	if len(ciphertext) < tagSize {
		return nil, nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrInvalidFormat)
	}
	return h, ciphertext, nil
}

// SealedInfo describes a sealed secret. Every field is public metadata
// readable without a key.
type SealedInfo struct {
	KeyID     string
	Algorithm Algorithm
	Length    int
}

// Inspect parses the header of a sealed secret.
func Inspect(sealed []byte) (SealedInfo, error) {
	h, ciphertext, err := readHeader(sealed)
	if err != nil {
		return SealedInfo{}, err
	}
	return SealedInfo{
		KeyID:     h.keyID,
		Algorithm: h.algorithm,
		Length:    len(ciphertext) - tagSize,
	}, nil
}

// sealedLength returns the plaintext length of a sealed secret from its
// header alone.
func sealedLength(data []byte) (int, error) {
	info, err := Inspect(data)
	if err != nil {
		return 0, err
	}
	return info.Length, nil
}
