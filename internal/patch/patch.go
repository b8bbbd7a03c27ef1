// Package patch applies RFC 6902-style structural patches to generic JSON
// trees (the value shapes produced by encoding/json: nil, bool, float64,
// string, []interface{}, map[string]interface{}).
//
// Apply never mutates the input document: it works on a deep copy and
// returns either the fully-patched copy or an error. A failed operation
// (including a failed "test") aborts the whole batch, so callers keep
// their previous document on any error.
package patch

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Operation is a single patch step. Value is used by add/replace/test,
// From by move/copy.
type Operation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
	From  string      `json:"from,omitempty"`
}

// Apply runs ops in order against a deep copy of doc and returns the result.
// On any error the original doc is untouched and no partial result is returned.
func Apply(doc interface{}, ops []Operation) (interface{}, error) {
	result := DeepCopy(doc)

	for i, op := range ops {
		var err error
		result, err = applyOne(result, op)
		if err != nil {
			return nil, fmt.Errorf("op %d (%s %s): %w", i, op.Op, op.Path, err)
		}
	}

	return result, nil
}

func applyOne(doc interface{}, op Operation) (interface{}, error) {
	path, err := parsePointer(op.Path)
	if err != nil {
		return nil, err
	}

	switch op.Op {
	case "add":
		return addAt(doc, path, DeepCopy(op.Value))

	case "remove":
		doc, _, err = removeAt(doc, path)
		return doc, err

	case "replace":
		return replaceAt(doc, path, DeepCopy(op.Value))

	case "move":
		from, err := parsePointer(op.From)
		if err != nil {
			return nil, err
		}
		if isPrefix(from, path) {
			return nil, fmt.Errorf("cannot move %q into its own child %q", op.From, op.Path)
		}
		var moved interface{}
		doc, moved, err = removeAt(doc, from)
		if err != nil {
			return nil, err
		}
		return addAt(doc, path, moved)

	case "copy":
		from, err := parsePointer(op.From)
		if err != nil {
			return nil, err
		}
		val, err := getAt(doc, from)
		if err != nil {
			return nil, err
		}
		return addAt(doc, path, DeepCopy(val))

	case "test":
		val, err := getAt(doc, path)
		if err != nil {
			return nil, err
		}
		if !reflect.DeepEqual(val, op.Value) {
			return nil, fmt.Errorf("test failed: %v != %v", val, op.Value)
		}
		return doc, nil

	default:
		return nil, fmt.Errorf("unknown op %q", op.Op)
	}
}

// parsePointer splits a JSON Pointer into unescaped tokens.
// "" addresses the whole document.
func parsePointer(p string) ([]string, error) {
	if p == "" {
		return nil, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("pointer %q must start with /", p)
	}
	parts := strings.Split(p[1:], "/")
	for i, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		parts[i] = part
	}
	return parts, nil
}

func isPrefix(prefix, path []string) bool {
	if len(prefix) > len(path) {
		return false
	}
	for i := range prefix {
		if path[i] != prefix[i] {
			return false
		}
	}
	return true
}

func arrayIndex(token string, length int, allowEnd bool) (int, error) {
	if len(token) > 1 && token[0] == '0' {
		return 0, fmt.Errorf("invalid array index %q", token)
	}
	i, err := strconv.Atoi(token)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid array index %q", token)
	}
	max := length
	if !allowEnd {
		max = length - 1
	}
	if i > max {
		return 0, fmt.Errorf("array index %d out of range (len %d)", i, length)
	}
	return i, nil
}

func getAt(doc interface{}, path []string) (interface{}, error) {
	node := doc
	for _, tok := range path {
		switch n := node.(type) {
		case map[string]interface{}:
			child, ok := n[tok]
			if !ok {
				return nil, fmt.Errorf("key %q not found", tok)
			}
			node = child
		case []interface{}:
			i, err := arrayIndex(tok, len(n), false)
			if err != nil {
				return nil, err
			}
			node = n[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", node, tok)
		}
	}
	return node, nil
}

// addAt inserts value at path. Map keys are created-or-overwritten; array
// targets accept indices 0..len and the "-" append marker.
func addAt(node interface{}, path []string, value interface{}) (interface{}, error) {
	if len(path) == 0 {
		return value, nil
	}
	tok := path[0]

	switch n := node.(type) {
	case map[string]interface{}:
		if len(path) == 1 {
			n[tok] = value
			return n, nil
		}
		child, ok := n[tok]
		if !ok {
			return nil, fmt.Errorf("key %q not found", tok)
		}
		child, err := addAt(child, path[1:], value)
		if err != nil {
			return nil, err
		}
		n[tok] = child
		return n, nil

	case []interface{}:
		if len(path) == 1 {
			if tok == "-" {
				return append(n, value), nil
			}
			i, err := arrayIndex(tok, len(n), true)
			if err != nil {
				return nil, err
			}
			n = append(n, nil)
			copy(n[i+1:], n[i:])
			n[i] = value
			return n, nil
		}
		i, err := arrayIndex(tok, len(n), false)
		if err != nil {
			return nil, err
		}
		child, err := addAt(n[i], path[1:], value)
		if err != nil {
			return nil, err
		}
		n[i] = child
		return n, nil

	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, tok)
	}
}

func removeAt(node interface{}, path []string) (interface{}, interface{}, error) {
	if len(path) == 0 {
		return nil, nil, fmt.Errorf("cannot remove the whole document")
	}
	tok := path[0]

	switch n := node.(type) {
	case map[string]interface{}:
		child, ok := n[tok]
		if !ok {
			return nil, nil, fmt.Errorf("key %q not found", tok)
		}
		if len(path) == 1 {
			delete(n, tok)
			return n, child, nil
		}
		child, removed, err := removeAt(child, path[1:])
		if err != nil {
			return nil, nil, err
		}
		n[tok] = child
		return n, removed, nil

	case []interface{}:
		i, err := arrayIndex(tok, len(n), false)
		if err != nil {
			return nil, nil, err
		}
		if len(path) == 1 {
			removed := n[i]
			n = append(n[:i], n[i+1:]...)
			return n, removed, nil
		}
		child, removed, err := removeAt(n[i], path[1:])
		if err != nil {
			return nil, nil, err
		}
		n[i] = child
		return n, removed, nil

	default:
		return nil, nil, fmt.Errorf("cannot descend into %T at %q", node, tok)
	}
}

// replaceAt sets value at an existing path; unlike add, the target must exist.
func replaceAt(node interface{}, path []string, value interface{}) (interface{}, error) {
	if len(path) == 0 {
		return value, nil
	}
	tok := path[0]

	switch n := node.(type) {
	case map[string]interface{}:
		child, ok := n[tok]
		if !ok {
			return nil, fmt.Errorf("key %q not found", tok)
		}
		if len(path) == 1 {
			n[tok] = value
			return n, nil
		}
		child, err := replaceAt(child, path[1:], value)
		if err != nil {
			return nil, err
		}
		n[tok] = child
		return n, nil

	case []interface{}:
		i, err := arrayIndex(tok, len(n), false)
		if err != nil {
			return nil, err
		}
		if len(path) == 1 {
			n[i] = value
			return n, nil
		}
		child, err := replaceAt(n[i], path[1:], value)
		if err != nil {
			return nil, err
		}
		n[i] = child
		return n, nil

	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, tok)
	}
}

// DeepCopy clones a JSON tree. Scalars are returned as-is.
func DeepCopy(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	default:
		return v
	}
}
