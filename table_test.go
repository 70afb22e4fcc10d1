package secretstore

import (
	"context"
	"testing"

	"github.com/rbaliyan/config/codec"
)

func sealedFor(t *testing.T, plaintext string) []byte {
	t.Helper()
	sealed, err := Seal([]byte(plaintext), Key{ID: "test-key", Bytes: makeKey(32)})
	if err != nil {
		t.Fatal(err)
	}
	return sealed
}

func TestTableAdd(t *testing.T) {
	tbl := NewTable()
	sealed := sealedFor(t, "hunter2")

	if err := tbl.Add("S1", sealed); err != nil {
		t.Fatalf("Add: %v", err)
	}
	sealed[0] = 'X'
	if tbl.Secrets["S1"][0] != 'S' {
		t.Error("Add did not copy sealed bytes")
	}

	if err := tbl.Add("", sealedFor(t, "x")); !IsInvalidSecretID(err) {
		t.Errorf("empty ID: expected ErrInvalidSecretID, got %v", err)
	}
	if err := tbl.Add("bad", []byte("garbage")); !IsInvalidFormat(err) {
		t.Errorf("garbage: expected ErrInvalidFormat, got %v", err)
	}
}

func TestTableAddReplaces(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Add("S1", sealedFor(t, "one")); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Add("S1", sealedFor(t, "three")); err != nil {
		t.Fatal(err)
	}
	info, err := Inspect(tbl.Secrets["S1"])
	if err != nil {
		t.Fatal(err)
	}
	if info.Length != 5 {
		t.Errorf("length after replace: got %d, want 5", info.Length)
	}
}

func TestTableIDsSorted(t *testing.T) {
	tbl := NewTable()
	for _, id := range []string{"c", "a", "b"} {
		if err := tbl.Add(id, sealedFor(t, id)); err != nil {
			t.Fatal(err)
		}
	}
	ids := tbl.IDs()
	want := []string{"a", "b", "c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs: got %v, want %v", ids, want)
		}
	}
}

func TestTableCodecs(t *testing.T) {
	for _, name := range []string{"json", "yaml"} {
		t.Run(name, func(t *testing.T) {
			c := codec.Get(name)
			if c == nil {
				t.Skipf("codec %q not registered", name)
			}

			tbl := NewTable()
			if err := tbl.Add("S1", sealedFor(t, "hunter2")); err != nil {
				t.Fatal(err)
			}
			data, err := EncodeTable(tbl, c)
			if err != nil {
				t.Fatalf("EncodeTable: %v", err)
			}

			s, err := New(testProvider(t), WithEncodedTable(data, c), WithAllocator(&recordingAllocator{}))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			ok, err := s.Verify(context.Background(), "S1", []byte("hunter2"))
			if err != nil || !ok {
				t.Errorf("Verify: got %v, %v", ok, err)
			}
		})
	}
}

func TestEncodeTableDefaultsToJSON(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Add("S1", sealedFor(t, "hunter2")); err != nil {
		t.Fatal(err)
	}
	data, err := EncodeTable(tbl, nil)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != '{' {
		t.Errorf("expected JSON object, got %q", data)
	}
	got, err := DecodeTable(data, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Secrets["S1"]) != string(tbl.Secrets["S1"]) {
		t.Error("decoded sealed bytes differ")
	}
}

func TestDecodeTableErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "not json"},
		{"wrong version", `{"version":99,"secrets":{}}`},
		{"missing version", `{"secrets":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTable([]byte(tt.data), nil); !IsInvalidFormat(err) {
				t.Errorf("expected ErrInvalidFormat, got %v", err)
			}
		})
	}
}

func TestDecodeTableEmptySecrets(t *testing.T) {
	tbl, err := DecodeTable([]byte(`{"version":1}`), nil)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Secrets == nil || len(tbl.Secrets) != 0 {
		t.Errorf("Secrets: got %v", tbl.Secrets)
	}
}

func TestWithEncodedTableError(t *testing.T) {
	_, err := New(testProvider(t), WithEncodedTable([]byte("junk"), nil))
	if !IsInvalidFormat(err) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestWithTableCopiesSecrets(t *testing.T) {
	tbl := NewTable()
	if err := tbl.Add("S1", sealedFor(t, "hunter2")); err != nil {
		t.Fatal(err)
	}
	s, err := New(testProvider(t), WithTable(tbl), WithAllocator(&recordingAllocator{}))
	if err != nil {
		t.Fatal(err)
	}
	clear(tbl.Secrets["S1"])

	ok, err := s.Verify(context.Background(), "S1", []byte("hunter2"))
	if err != nil || !ok {
		t.Errorf("Verify after caller cleared table: got %v, %v", ok, err)
	}
}

func TestJSONCodecRegistered(t *testing.T) {
	c := codec.Get("json")
	if c == nil {
		t.Fatal(`codec.Get("json") returned nil`)
	}
	tbl := NewTable()
	if err := tbl.Add("S1", sealedFor(t, "hunter2")); err != nil {
		t.Fatal(err)
	}
	data, err := EncodeTable(tbl, c)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeTable(data, nil); err != nil {
		t.Errorf("table encoded by the registered json codec does not decode as JSON: %v", err)
	}
}
