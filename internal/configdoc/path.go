package configdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RootPath is the dotted-path sentinel addressing the whole document.
// Set accepts it and replaces the root object; Get and Unset do not.
const RootPath = "."

// SplitPath splits a dotted config path ("agents.defaults.model.primary")
// into its segments. Empty segments are rejected - the gateway CLI treats
// "a..b" as malformed, and so do we.
func SplitPath(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("empty config path")
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("invalid config path %q: empty segment at position %d", path, i)
		}
	}
	return segments, nil
}

// Get returns the value at a dotted path.
// The second return is false when any segment is missing or a non-object
// is traversed.
func (d *Document) Get(path string) (any, bool) {
	segments, err := SplitPath(path)
	if err != nil {
		return nil, false
	}

	var cur any = d.root
	for _, seg := range segments {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes a value at a dotted path, creating intermediate objects as
// needed. The RootPath sentinel replaces the entire document, which
// then must be an object. Setting through an existing non-object value
// is an error: the operator is almost certainly targeting the wrong
// path, and silently replacing a subtree with a scalar's parent would
// hide that.
func (d *Document) Set(path string, value any) error {
	if path == RootPath {
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set document root: value is not an object")
		}
		d.root = obj
		return nil
	}

	segments, err := SplitPath(path)
	if err != nil {
		return err
	}

	cur := d.root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg]
		if !ok {
			child := map[string]any{}
			cur[seg] = child
			cur = child
			continue
		}
		obj, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("cannot set %q: %q is not an object", path, seg)
		}
		cur = obj
	}
	cur[segments[len(segments)-1]] = value
	return nil
}

// Unset removes the value at a dotted path and prunes any intermediate
// objects left empty by the removal; the root is never pruned.
// Removing a missing path is not an error - unset is idempotent, matching
// the gateway CLI's behavior.
func (d *Document) Unset(path string) error {
	segments, err := SplitPath(path)
	if err != nil {
		return err
	}

	// Track the chain of parents so emptied objects can be removed on
	// the way back out.
	parents := make([]map[string]any, 0, len(segments))
	cur := d.root
	for _, seg := range segments[:len(segments)-1] {
		next, ok := cur[seg]
		if !ok {
			return nil
		}
		obj, ok := next.(map[string]any)
		if !ok {
			return nil
		}
		parents = append(parents, cur)
		cur = obj
	}
	delete(cur, segments[len(segments)-1])

	for i := len(parents) - 1; i >= 0; i-- {
		if len(cur) > 0 {
			break
		}
		cur = parents[i]
		delete(cur, segments[i])
	}
	return nil
}

// Leaf is one scalar (or array) position in a config tree.
type Leaf struct {
	Path  string // dotted path from the root
	Value any
}

// WalkLeaves traverses a value depth-first and collects every leaf with
// its dotted path. Objects recurse; everything else (scalars, arrays,
// empty objects) is a leaf. This is the traversal behind config_patch's
// one-set-command-per-leaf expansion.
func WalkLeaves(prefix string, v any) []Leaf {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return []Leaf{{Path: prefix, Value: v}}
	}

	var leaves []Leaf
	for _, k := range sortedKeys(obj) {
		childPath := k
		if prefix != "" {
			childPath = prefix + "." + k
		}
		leaves = append(leaves, WalkLeaves(childPath, obj[k])...)
	}
	return leaves
}

// ParseJSONValue decodes a single JSON value (the <json-value> argument of
// a "config set" command), preserving numbers as json.Number.
func ParseJSONValue(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON value %q: %w", raw, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON value %q: trailing data", raw)
	}
	return v, nil
}

// EncodeJSONValue renders a tree value back to the compact JSON text used
// as the <json-value> token of a "config set" command.
func EncodeJSONValue(v any) (string, error) {
	b, err := MarshalCanonical(v)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(b)), nil
}
