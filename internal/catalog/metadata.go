package catalog

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Filter returns a copy of metadata with every blacklisted key removed.
// Keys absent from the input are ignored. The input map is never mutated.
func Filter(metadata map[string]any, blacklist []string) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	for _, key := range blacklist {
		delete(out, key)
	}
	return out
}

// Serialize returns the canonical JSON encoding of metadata
// (encoding/json emits map keys in sorted order).
func Serialize(metadata map[string]any) (string, error) {
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", eris.Wrap(err, "catalog: serialize metadata")
	}
	return string(data), nil
}

// Fingerprint computes the content-addressed identity key of a field: its
// canonical serialization. Two fields with identical filtered metadata share
// a fingerprint and are considered the same field.
func Fingerprint(metadata map[string]any) (string, error) {
	return Serialize(metadata)
}
