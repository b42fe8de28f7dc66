package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TypeCount is one entry of a type distribution.
type TypeCount struct {
	Type  string
	Count int
}

// TypeDistribution maps equipment type to count, keeping the key order the backend sent.
// It travels as a JSON object.
type TypeDistribution []TypeCount

// UnmarshalJSON decodes a JSON object token by token so key order survives.
func (d *TypeDistribution) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("type distribution: %w", err)
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("type distribution: expected object, got %v", tok)
	}

	out := TypeDistribution{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("type distribution: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("type distribution: unexpected key %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("type distribution: count for %q: %w", key, err)
		}
		out = append(out, TypeCount{Type: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("type distribution: %w", err)
	}

	*d = out
	return nil
}

// MarshalJSON encodes the distribution as a JSON object in slice order.
func (d TypeDistribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, tc := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(tc.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		fmt.Fprintf(&buf, ":%d", tc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Total sums all counts.
func (d TypeDistribution) Total() int {
	total := 0
	for _, tc := range d {
		total += tc.Count
	}
	return total
}
