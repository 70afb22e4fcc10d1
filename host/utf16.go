package host

import (
	"context"
	"fmt"
	"unsafe"

	"github.com/rbaliyan/secretstore"
)

// DecryptSecretUTF16 is DecryptSecret for hosts holding 16-bit character
// arrays. Each plaintext byte is widened to one code unit.
func DecryptSecretUTF16(id string, dst []uint16) error {
	s, err := load()
	if err != nil {
		return err
	}
	n, err := s.LengthOf(id)
	if err != nil {
		return err
	}
	if len(dst) < n {
		return fmt.Errorf("%w: secret %q needs %d units, got %d", secretstore.ErrBufferTooSmall, id, n, len(dst))
	}

	buf, err := s.Reveal(context.Background(), id)
	if err != nil {
		return err
	}
	defer buf.Release()

	for i, b := range buf.Bytes() {
		dst[i] = uint16(b)
	}
	return nil
}

// VerifySecretUTF16 is VerifySecret for 16-bit character arrays. The
// candidate is narrowed into a SecureBuffer that is wiped before return.
func VerifySecretUTF16(candidate []uint16, id string) bool {
	s, err := load()
	if err != nil {
		return false
	}
	narrow, valid, err := narrowUTF16(candidate)
	if err != nil {
		return false
	}
	defer narrow.Release()

	ok, err := s.Verify(context.Background(), id, narrow.Bytes())
	return err == nil && ok && valid
}

// CheckCredentialsUTF16 is CheckCredentials for 16-bit character arrays.
func CheckCredentialsUTF16(user, password []uint16) bool {
	s, err := load()
	if err != nil {
		return false
	}
	u, userValid, err := narrowUTF16(user)
	if err != nil {
		return false
	}
	defer u.Release()
	p, passValid, err := narrowUTF16(password)
	if err != nil {
		return false
	}
	defer p.Release()

	ok, err := s.VerifyAll(context.Background(),
		secretstore.Claim{ID: CredentialUserID, Candidate: u.Bytes()},
		secretstore.Claim{ID: CredentialPasswordID, Candidate: p.Bytes()},
	)
	return err == nil && ok && userValid && passValid
}

// WipeBufferUTF16 zeroes a 16-bit character buffer in place with the same
// guarantee as WipeBuffer.
func WipeBufferUTF16(buf []uint16) {
	if len(buf) == 0 {
		return
	}
	secretstore.Wipe(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(buf))), len(buf)*2))
}

// narrowUTF16 copies the low byte of each unit into a SecureBuffer.
// valid is false when any unit exceeds 0xFF; the scan does not stop early.
func narrowUTF16(units []uint16) (*secretstore.SecureBuffer, bool, error) {
	buf, err := secretstore.Acquire(nil, len(units))
	if err != nil {
		return nil, false, err
	}
	var high uint16
	b := buf.Bytes()
	for i, u := range units {
		b[i] = byte(u)
		high |= u >> 8
	}
	return buf, high == 0, nil
}
