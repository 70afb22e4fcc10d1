package secretstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Store holds an immutable table of sealed secrets and reveals them on
// demand with bounded plaintext exposure.
//
// Every operation decrypts into a SecureBuffer owned by that call and
// releases it (zero, unlock, free) before returning, on success and on
// every error path. Plaintext is never retained between calls, logged, or
// placed in an error.
//
// A Store has no mutable state after New and is safe for concurrent use.
type Store struct {
	provider KeyProvider
	alloc    Allocator
	secrets  map[string]sealedSecret
	logger   zerolog.Logger
	tel      *telemetry
}

type sealedSecret struct {
	sealed []byte
	length int
}

// Claim pairs a secret ID with a candidate plaintext for VerifyAll.
type Claim struct {
	ID        string
	Candidate []byte
}

// New creates a Store whose sealed secrets are opened with keys from
// provider. Secrets are registered with WithSecret, WithPlaintextSecret,
// WithTable or WithEncodedTable; the set is fixed once New returns.
func New(provider KeyProvider, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	defer func() {
		for _, e := range o.entries {
			Wipe(e.plaintext)
		}
	}()

	if provider == nil {
		return nil, fmt.Errorf("secretstore: New provider is nil")
	}
	if o.err != nil {
		return nil, o.err
	}

	tel, err := newTelemetry(o.meterProvider, o.tracerProvider)
	if err != nil {
		return nil, fmt.Errorf("secretstore: telemetry: %w", err)
	}

	s := &Store{
		provider: provider,
		alloc:    o.alloc,
		secrets:  make(map[string]sealedSecret, len(o.entries)),
		logger:   o.logger,
		tel:      tel,
	}

	for _, e := range o.entries {
		if e.id == "" {
			return nil, ErrInvalidSecretID
		}
		if _, dup := s.secrets[e.id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSecret, e.id)
		}

		sealed := e.sealed
		if e.plain {
			sealed, err = sealWithCurrent(provider, e.plaintext, o.algorithm)
			if err != nil {
				return nil, fmt.Errorf("secretstore: seal %q: %w", e.id, err)
			}
		}

		length, err := sealedLength(sealed)
		if err != nil {
			return nil, fmt.Errorf("secretstore: secret %q: %w", e.id, err)
		}
		s.secrets[e.id] = sealedSecret{sealed: sealed, length: length}
	}

	s.logger.Debug().Int("secrets", len(s.secrets)).Msg("secret store initialized")
	return s, nil
}

func sealWithCurrent(provider KeyProvider, plaintext []byte, alg Algorithm) ([]byte, error) {
	kek, err := provider.CurrentKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get current key: %w", err)
	}
	defer Wipe(kek.Bytes)
	return Seal(plaintext, kek, WithSealAlgorithm(alg))
}

// IDs returns the registered secret IDs in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.secrets))
	for id := range s.secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LengthOf returns the plaintext length of a secret without decrypting it.
// Lengths are public; only content is secret.
func (s *Store) LengthOf(id string) (n int, err error) {
	ctx, span := s.tel.start(context.Background(), opLength, id)
	defer func() { s.tel.finish(ctx, span, opLength, resultOf(err), err) }()

	sec, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return sec.length, nil
}

// RevealInto decrypts the secret into the first LengthOf(id) bytes of dst
// and leaves the rest of dst untouched.
//
// If dst is shorter than the secret, ErrBufferTooSmall is returned and dst
// is not written. Decryption happens into a transient SecureBuffer that is
// released before RevealInto returns; dst is only written once the whole
// plaintext has been recovered, so a failure never leaves partial
// plaintext in dst.
func (s *Store) RevealInto(ctx context.Context, id string, dst []byte) (err error) {
	ctx, span := s.tel.start(ctx, opReveal, id)
	defer func() { s.tel.finish(ctx, span, opReveal, resultOf(err), err) }()

	sec, err := s.lookup(id)
	if err != nil {
		return err
	}
	if len(dst) < sec.length {
		return fmt.Errorf("%w: secret %q needs %d bytes, got %d", ErrBufferTooSmall, id, sec.length, len(dst))
	}

	buf, err := s.acquire(ctx, sec.length)
	if err != nil {
		return err
	}
	defer s.release(buf)

	if err := openInto(ctx, buf.Bytes(), sec.sealed, s.provider, s); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}

// Reveal decrypts the secret into a new SecureBuffer of exactly
// LengthOf(id) bytes. The caller owns the buffer and must Release it.
func (s *Store) Reveal(ctx context.Context, id string) (_ *SecureBuffer, err error) {
	ctx, span := s.tel.start(ctx, opRevealBuf, id)
	defer func() { s.tel.finish(ctx, span, opRevealBuf, resultOf(err), err) }()

	sec, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	buf, err := s.acquire(ctx, sec.length)
	if err != nil {
		return nil, err
	}
	if err := openInto(ctx, buf.Bytes(), sec.sealed, s.provider, s); err != nil {
		s.release(buf)
		return nil, err
	}
	return buf, nil
}

// Verify reports whether candidate equals the secret's plaintext.
// The comparison runs in time that depends only on the lengths involved.
func (s *Store) Verify(ctx context.Context, id string, candidate []byte) (ok bool, err error) {
	ctx, span := s.tel.start(ctx, opVerify, id)
	defer func() { s.tel.finish(ctx, span, opVerify, verifyResult(ok, err), err) }()

	sec, err := s.lookup(id)
	if err != nil {
		return false, err
	}
	return s.verify(ctx, sec, candidate)
}

// VerifyAll verifies several claims together, as a login form checks a
// user name and password. Every claim is decrypted and compared even after
// one fails, and the results are folded without short-circuit, so timing
// does not reveal which claim mismatched. Unknown IDs are rejected before
// anything is decrypted. An empty claim list does not verify.
func (s *Store) VerifyAll(ctx context.Context, claims ...Claim) (ok bool, err error) {
	ctx, span := s.tel.start(ctx, opVerifyAll, "")
	defer func() { s.tel.finish(ctx, span, opVerifyAll, verifyResult(ok, err), err) }()

	if len(claims) == 0 {
		return false, nil
	}
	secrets := make([]sealedSecret, len(claims))
	for i, c := range claims {
		sec, err := s.lookup(c.ID)
		if err != nil {
			return false, err
		}
		secrets[i] = sec
	}

	matches := make([]bool, len(claims))
	for i, c := range claims {
		m, err := s.verify(ctx, secrets[i], c.Candidate)
		if err != nil {
			return false, err
		}
		matches[i] = m
	}
	return allMatch(matches), nil
}

// Wipe zeroes buf in place with the same guarantee the store applies to
// its own buffers. It is meant for callers holding plaintext in memory the
// store does not own, such as the destination of RevealInto.
func (s *Store) Wipe(buf []byte) {
	Wipe(buf)
}

func (s *Store) verify(ctx context.Context, sec sealedSecret, candidate []byte) (bool, error) {
	buf, err := s.acquire(ctx, sec.length)
	if err != nil {
		return false, err
	}
	defer s.release(buf)

	if err := openInto(ctx, buf.Bytes(), sec.sealed, s.provider, s); err != nil {
		return false, err
	}
	return ConstantTimeEqual(buf.Bytes(), candidate), nil
}

func (s *Store) lookup(id string) (sealedSecret, error) {
	sec, ok := s.secrets[id]
	if !ok {
		return sealedSecret{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sec, nil
}

// acquire hands out every SecureBuffer the store uses, the DEK buffers of
// openInto included, so lock failures are logged and counted in one place.
func (s *Store) acquire(ctx context.Context, n int) (*SecureBuffer, error) {
	buf, err := Acquire(s.alloc, n)
	if err != nil {
		s.logger.Warn().Err(err).Int("size", n).Msg("secure buffer allocation failed")
		return nil, err
	}
	if n > 0 && !buf.Locked() {
		s.tel.lockFailed(ctx)
		s.logger.Debug().Int("size", n).Msg("secure buffer not locked against swap")
	}
	return buf, nil
}

func (s *Store) release(buf *SecureBuffer) {
	if err := buf.Release(); err != nil {
		// The region was wiped before unlock/free were attempted.
		s.logger.Warn().Err(err).Msg("secure buffer release incomplete")
	}
}

// Compile-time interface check.
var _ bufferSource = (*Store)(nil)

func verifyResult(ok bool, err error) string {
	if err != nil {
		return resultOf(err)
	}
	if !ok {
		return resultMismatch
	}
	return resultOK
}
