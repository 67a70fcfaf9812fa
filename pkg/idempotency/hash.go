// Package idempotency computes the stable hashes the task and content
// dedup layers key on: a canonical-JSON hash of skill parameters, and a
// normalised-text hash of content bodies. SHA-256 is part of the standard
// library by construction (it is a hash primitive, not a library choice
// the example pack makes differently) — see DESIGN.md.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// ParametersHash returns the hex SHA-256 of the canonical JSON encoding of
// params: keys sorted recursively, no insignificant whitespace. Stable
// under key reordering and whitespace, as required by §8's round-trip law.
func ParametersHash(params json.RawMessage) (string, error) {
	var v any
	if len(params) == 0 {
		v = map[string]any{}
	} else if err := json.Unmarshal(params, &v); err != nil {
		return "", err
	}
	canonical, err := canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			b.Write(kb)
			b.WriteByte(':')
			vb, err := canonicalize(val[k])
			if err != nil {
				return nil, err
			}
			b.Write(vb)
		}
		b.WriteByte('}')
		return []byte(b.String()), nil
	case []any:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			ib, err := canonicalize(item)
			if err != nil {
				return nil, err
			}
			b.Write(ib)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	default:
		return json.Marshal(val)
	}
}

// ContentHash returns the hex SHA-256 of normalised text: trimmed,
// whitespace-collapsed, lower-cased — used by the Summarise agent's
// ContentDedup lookup (§4.4).
func ContentHash(text string) string {
	normalized := Normalize(text)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Normalize collapses runs of whitespace and lower-cases text so that
// byte-identical-after-normalisation content (§8 scenario 5) hashes
// identically regardless of incidental formatting differences.
func Normalize(text string) string {
	fields := strings.Fields(text)
	return strings.ToLower(strings.Join(fields, " "))
}
