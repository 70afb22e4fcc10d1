package secretstore

import (
	"bytes"
	"context"
	"testing"
)

func FuzzConstantTimeEqual(f *testing.F) {
	f.Add([]byte("hunter2"), []byte("hunter2"))
	f.Add([]byte("hunter2"), []byte("hunter3"))
	f.Add([]byte(""), []byte("x"))
	f.Fuzz(func(t *testing.T, a, b []byte) {
		if got, want := ConstantTimeEqual(a, b), bytes.Equal(a, b); got != want {
			t.Fatalf("ConstantTimeEqual(%x, %x) = %v, want %v", a, b, got, want)
		}
	})
}

func FuzzInspect(f *testing.F) {
	sealed, err := Seal([]byte("hunter2"), Key{ID: "test-key", Bytes: makeKey(32)})
	if err != nil {
		f.Fatal(err)
	}
	f.Add(sealed)
	f.Add([]byte("SS\x01\x01\x00"))
	f.Add([]byte{})
	f.Fuzz(func(t *testing.T, data []byte) {
		info, err := Inspect(data)
		if err != nil {
			if !IsInvalidFormat(err) {
				t.Fatalf("unexpected error class: %v", err)
			}
			return
		}
		if info.Length < 0 {
			t.Fatalf("negative length %d", info.Length)
		}
	})
}

func FuzzRevealInto(f *testing.F) {
	f.Add([]byte("hunter2"), []byte("hunter2"))
	f.Add([]byte{}, []byte("x"))
	f.Fuzz(func(t *testing.T, secret, candidate []byte) {
		plaintext := append([]byte(nil), secret...)
		s, err := New(testProvider(t), WithPlaintextSecret("S1", plaintext), WithAllocator(&recordingAllocator{}))
		if err != nil {
			t.Fatal(err)
		}
		ctx := context.Background()

		dst := make([]byte, len(secret))
		if err := s.RevealInto(ctx, "S1", dst); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(dst, secret) {
			t.Fatalf("RevealInto: got %x, want %x", dst, secret)
		}

		ok, err := s.Verify(ctx, "S1", candidate)
		if err != nil {
			t.Fatal(err)
		}
		if ok != bytes.Equal(secret, candidate) {
			t.Fatalf("Verify(%x) against %x = %v", candidate, secret, ok)
		}
	})
}
