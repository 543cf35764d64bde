package sqlite

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// encodeVector serializes a float32 vector as a little-endian blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeVector deserializes a little-endian blob into a float32 vector.
func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v, nil
}

// marshalJSON encodes a value for a TEXT column, mapping nil slices/maps to
// their empty JSON form so scans never see SQL NULL.
func marshalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(raw)
	if s == "null" {
		s = "[]"
	}
	return s, nil
}

// unmarshalJSON decodes a TEXT column into out.
func unmarshalJSON(s string, out any) error {
	return json.Unmarshal([]byte(s), out)
}
