package secretstore

import (
	"fmt"
	"sort"

	"github.com/rbaliyan/config/codec"
)

// TableVersion is the current sealed table version.
const TableVersion = 1

// Table is the serialized form of a set of sealed secrets, produced at
// build time and embedded or shipped with the application.
// Sealed values are opaque; byte slices encode as base64 under JSON.
type Table struct {
	Version int               `json:"version" yaml:"version"`
	Secrets map[string][]byte `json:"secrets" yaml:"secrets"`
}

// NewTable returns an empty table at the current version.
func NewTable() *Table {
	return &Table{Version: TableVersion, Secrets: map[string][]byte{}}
}

// Add inserts an already sealed secret, replacing any entry with the same
// ID. The header is validated here so a corrupt entry fails the build
// rather than the application start.
func (t *Table) Add(id string, sealed []byte) error {
	if id == "" {
		return ErrInvalidSecretID
	}
	if _, err := sealedLength(sealed); err != nil {
		return fmt.Errorf("secretstore: secret %q: %w", id, err)
	}
	if t.Secrets == nil {
		t.Secrets = map[string][]byte{}
	}
	t.Secrets[id] = append([]byte(nil), sealed...)
	return nil
}

// IDs returns the secret IDs in sorted order.
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.Secrets))
	for id := range t.Secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EncodeTable serializes t with c. A nil codec means JSON.
func EncodeTable(t *Table, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.JSON()
	}
	data, err := c.Encode(t)
	if err != nil {
		return nil, fmt.Errorf("secretstore: encode table: %w", err)
	}
	return data, nil
}

// DecodeTable parses a table serialized with c. A nil codec means JSON.
func DecodeTable(data []byte, c codec.Codec) (*Table, error) {
	if c == nil {
		c = codec.JSON()
	}
	var t Table
	if err := c.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("%w: decode table: %v", ErrInvalidFormat, err)
	}
	if t.Version != TableVersion {
		return nil, fmt.Errorf("%w: unsupported table version %d", ErrInvalidFormat, t.Version)
	}
	if t.Secrets == nil {
		t.Secrets = map[string][]byte{}
	}
	return &t, nil
}
