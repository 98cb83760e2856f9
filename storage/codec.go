// file: storage/codec.go
package storage

import (
	"encoding/json"

	"eventlink/logger"
)

// ReadList decodes a JSON array stored under key. Absent and malformed values
// both decode to an empty list; only a storage failure is returned.
func ReadList[T any](tx Tx, key string) ([]T, error) {
	raw, ok, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return []T{}, nil
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Warn.Printf("[storage.ReadList] discarding malformed value under %q: %v", key, err)
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// ReadObject decodes a JSON object stored under key; nil when absent or malformed.
func ReadObject[T any](tx Tx, key string) (*T, error) {
	raw, ok, err := tx.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" || raw == "null" {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Warn.Printf("[storage.ReadObject] discarding malformed value under %q: %v", key, err)
		return nil, nil
	}
	return &out, nil
}

// ReadString reads a string value. Both JSON-encoded strings and bare text
// (as older installs stored selectedSchool) are accepted.
func ReadString(tx Tx, key string) (string, error) {
	raw, ok, err := tx.Get(key)
	if err != nil || !ok {
		return "", err
	}
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s, nil
	}
	return raw, nil
}

// WriteJSON encodes v and stores it under key.
func WriteJSON(tx Tx, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return tx.Set(key, string(data))
}
