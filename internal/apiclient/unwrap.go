package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Unwrap decodes the entity named key from a response body into out.
// The backend nests payloads inconsistently, so the following are tried in
// order and the first non-null one wins:
//
//	data.data.<key>, data.<key>, <key>, data.data, data, body
func Unwrap(raw json.RawMessage, key string, out any) error {
	var paths [][]string
	if key != "" {
		paths = append(paths, []string{"data", "data", key}, []string{"data", key}, []string{key})
	}

	paths = append(paths, []string{"data", "data"}, []string{"data"})

	for _, path := range paths {
		value, ok, err := lookup(raw, path...)
		if err != nil {
			return err
		}

		if ok {
			if err := json.Unmarshal(value, out); err != nil {
				return fmt.Errorf("decode %v: %w", path, err)
			}

			return nil
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}

	return nil
}

// UnwrapList decodes the list named key from a response body into out, which
// must point to a slice. The key is searched like in Unwrap, but a key that
// is present and null means an empty list. Without the key, the first of
// data.data, data and the body that is a JSON array is used. A body with no
// list at all leaves out untouched.
func UnwrapList(raw json.RawMessage, key string, out any) error {
	for _, path := range [][]string{{"data", "data", key}, {"data", key}, {key}} {
		value, ok, err := member(raw, path...)
		if err != nil {
			return err
		}

		if !ok {
			continue
		}

		if isNull(value) {
			return nil
		}

		if err := json.Unmarshal(value, out); err != nil {
			return fmt.Errorf("decode %v: %w", path, err)
		}

		return nil
	}

	for _, path := range [][]string{{"data", "data"}, {"data"}, {}} {
		value, ok, err := lookup(raw, path...)
		if err != nil {
			return err
		}

		if !ok || !isArray(value) {
			continue
		}

		if err := json.Unmarshal(value, out); err != nil {
			return fmt.Errorf("decode %v: %w", path, err)
		}

		return nil
	}

	return nil
}

// Lookup decodes the value at the first of the given paths that exists.
// Unlike Unwrap it never falls back to the enclosing object.
func Lookup(raw json.RawMessage, out any, paths ...[]string) (bool, error) {
	for _, path := range paths {
		value, ok, err := lookup(raw, path...)
		if err != nil {
			return false, err
		}

		if ok {
			if err := json.Unmarshal(value, out); err != nil {
				return false, fmt.Errorf("decode %v: %w", path, err)
			}

			return true, nil
		}
	}

	return false, nil
}

// lookup walks raw along path. Missing members, nulls and non-objects on the
// way yield false without an error.
func lookup(raw json.RawMessage, path ...string) (json.RawMessage, bool, error) {
	value, ok, err := member(raw, path...)
	if err != nil || !ok || isNull(value) {
		return nil, false, err
	}

	return value, true, nil
}

// member is lookup that reports a present null as found.
func member(raw json.RawMessage, path ...string) (json.RawMessage, bool, error) {
	current := raw

	for _, key := range path {
		trimmed := bytes.TrimSpace(current)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, false, nil
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, false, fmt.Errorf("decode object: %w", err)
		}

		next, ok := obj[key]
		if !ok {
			return nil, false, nil
		}

		current = next
	}

	return current, true, nil
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func isArray(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)

	return len(trimmed) > 0 && trimmed[0] == '['
}

// RawBody receives a complete response body from Client.Do, for use with
// Unwrap and Lookup.
type RawBody = json.RawMessage
