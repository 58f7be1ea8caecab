// Package patchdoc encodes and decodes the persisted patch document.
//
// The document is the version-2 JSON interchange format hosts use to save
// and restore patches. Loading is strict about shape (version number,
// required arrays) and field-specific about what is wrong; applying a
// loaded document to a store is lenient about content the current type
// catalog no longer supports, the same way macro expansion is.
package patchdoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/waveframe/patchgraph/buscontract"
	"github.com/waveframe/patchgraph/lens"
	"github.com/waveframe/patchgraph/patch"
	"github.com/waveframe/patchgraph/typedesc"
)

// Version is the only document schema version this core reads and writes.
const Version = 2

var (
	// ErrUnsupportedVersion indicates a document whose version field is
	// not the supported one. The error names the version found.
	ErrUnsupportedVersion = errors.New("unsupported document version")

	// ErrInvalidDocument indicates a document that is structurally broken:
	// not JSON, or missing a required field. The error names the field.
	ErrInvalidDocument = errors.New("invalid patch document")
)

// Block is one persisted block.
type Block struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Label    string         `json:"label,omitempty"`
	Role     patch.Role     `json:"role,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
	Position patch.Position `json:"position"`
}

// Connection is one persisted wire. A nil Enabled means enabled; the field
// is only written when the author switched the wire off.
type Connection struct {
	From       patch.Endpoint `json:"from"`
	To         patch.Endpoint `json:"to"`
	Transforms lens.Stack     `json:"transforms,omitempty"`
	Enabled    *bool          `json:"enabled,omitempty"`
}

func (c *Connection) enabled() bool { return c.Enabled == nil || *c.Enabled }

// Bus is one persisted user bus. Built-in buses are never written; they
// exist in every patch.
type Bus struct {
	Name         string                  `json:"name"`
	Type         typedesc.TypeDesc       `json:"type"`
	CombineMode  buscontract.CombineMode `json:"combine_mode"`
	DefaultValue any                     `json:"default_value,omitempty"`
}

// Binding is one persisted publisher or listener, referencing its bus by
// name.
type Binding struct {
	BlockID    string     `json:"block_id"`
	Slot       string     `json:"slot"`
	Bus        string     `json:"bus"`
	Transforms lens.Stack `json:"transforms,omitempty"`
	SortKey    int        `json:"sort_key,omitempty"`
}

// Document is the persisted patch.
type Document struct {
	Version     int            `json:"version"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Blocks      []Block        `json:"blocks"`
	Connections []Connection   `json:"connections"`
	Buses       []Bus          `json:"buses,omitempty"`
	Publishers  []Binding      `json:"publishers,omitempty"`
	Listeners   []Binding      `json:"listeners,omitempty"`
}

// Load parses and shape-checks document bytes. The version must be exactly
// 2 and blocks and connections must be present arrays; anything else is
// rejected with an error naming the offending field, never a generic parse
// error.
func Load(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	versionRaw, ok := raw["version"]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrInvalidDocument, "version")
	}
	var version int
	if err := json.Unmarshal(versionRaw, &version); err != nil {
		return nil, fmt.Errorf("%w: field %q is not a number", ErrInvalidDocument, "version")
	}
	if version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, Version)
	}

	for _, field := range []string{"blocks", "connections"} {
		value, ok := raw[field]
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrInvalidDocument, field)
		}
		if !isJSONArray(value) {
			return nil, fmt.Errorf("%w: field %q is not an array", ErrInvalidDocument, field)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Encode renders a document as indented JSON.
func Encode(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}
