package configdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a parsed gateway configuration tree.
//
// The zero value is not usable; construct with Parse or New. Numbers are
// kept as json.Number so that canonical re-serialization reproduces the
// gateway's own numeric text instead of going through float64.
type Document struct {
	root map[string]any
}

// New returns an empty document.
func New() *Document {
	return &Document{root: map[string]any{}}
}

// Parse decodes raw JSON into a Document.
// The top level must be a JSON object (the gateway config is always an
// object; a scalar or array at the root is a corrupt file).
func Parse(raw []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var root map[string]any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse config: trailing data after top-level object")
	}
	if root == nil {
		root = map[string]any{}
	}
	return &Document{root: root}, nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(raw string) (*Document, error) {
	return Parse([]byte(raw))
}

// Root returns the underlying tree. Callers must not mutate it directly;
// use Set/Unset so intermediate objects are created and typed consistently.
func (d *Document) Root() map[string]any {
	return d.root
}

// Clone returns a deep copy of the document.
// Preview replay always operates on a clone so the caller's document is
// never mutated by a failed or abandoned replay.
func (d *Document) Clone() *Document {
	return &Document{root: cloneValue(d.root).(map[string]any)}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = cloneValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = cloneValue(elem)
		}
		return out
	default:
		// Scalars (string, bool, json.Number, nil) are immutable.
		return val
	}
}

// Canonical returns the canonical serialization of the document.
func (d *Document) Canonical() (string, error) {
	b, err := MarshalCanonical(d.root)
	if err != nil {
		return "", fmt.Errorf("canonicalize config: %w", err)
	}
	return string(b), nil
}

// Equal reports whether two documents have identical canonical forms.
func (d *Document) Equal(other *Document) (bool, error) {
	a, err := d.Canonical()
	if err != nil {
		return false, err
	}
	b, err := other.Canonical()
	if err != nil {
		return false, err
	}
	return a == b, nil
}

// Pretty returns an indented JSON rendering for operator-facing output
// (previews, diffs). Keys are sorted by the canonical ordering so repeated
// renders of the same tree are byte-identical.
func (d *Document) Pretty() (string, error) {
	var buf bytes.Buffer
	if err := prettyValue(&buf, d.root, 0); err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func prettyValue(buf *bytes.Buffer, v any, depth int) error {
	switch val := v.(type) {
	case map[string]any:
		if len(val) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		keys := sortedKeys(val)
		for i, k := range keys {
			writeIndent(buf, depth+1)
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteString(": ")
			if err := prettyValue(buf, val[k], depth+1); err != nil {
				return err
			}
			if i < len(keys)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')
		return nil
	case []any:
		if len(val) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, elem := range val {
			writeIndent(buf, depth+1)
			if err := prettyValue(buf, elem, depth+1); err != nil {
				return err
			}
			if i < len(val)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}
