// Package canonicaljson canonicalizes JSON values so that two semantically
// equal values — possibly decoded from differently-ordered object literals —
// serialize to byte-identical output. spec.md §9 requires this for
// snapshot diffing and the "byte-stable JSON" round-trip property in §4.3:
// object keys are sorted, numbers are preserved as numbers.
package canonicaljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal produces the canonical encoding of v: object keys sorted
// recursively, no insignificant whitespace. v is first round-tripped
// through json.Marshal/Unmarshal (using json.Number for numeric
// fidelity) so arbitrary Go values and raw JSON bytes are accepted
// uniformly. A []byte argument is treated as an encoded JSON document
// and canonicalized via MarshalRaw.
func Marshal(v interface{}) ([]byte, error) {
	if raw, ok := v.([]byte); ok {
		return MarshalRaw(raw)
	}
	normalized, err := normalize(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return encode(normalized)
}

// MarshalRaw canonicalizes an already-encoded JSON document.
func MarshalRaw(raw []byte) ([]byte, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return raw, nil
	}
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return encode(v)
}

// Equal reports whether a and b — either Go values or raw JSON bytes —
// are equal under canonical encoding.
func Equal(a, b interface{}) bool {
	ab, errA := Marshal(a)
	bb, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

func normalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		return encodeObject(buf, val)
	case []interface{}:
		return encodeArray(buf, val)
	default:
		enc, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(enc)
		return nil
	}
}

func encodeObject(buf *bytes.Buffer, obj map[string]interface{}) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyEnc, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(keyEnc)
		buf.WriteByte(':')
		if err := encodeValue(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, arr []interface{}) error {
	buf.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
