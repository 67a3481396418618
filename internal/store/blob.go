package store

import (
	"encoding/binary"
	"math"
)

// EncodeFeaturePrint serializes a feature print as little-endian float32s.
// Returns nil for an empty print so absent prints stay NULL in storage.
func EncodeFeaturePrint(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeFeaturePrint deserializes a little-endian float32 blob.
// Returns nil for empty or malformed input.
func DecodeFeaturePrint(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}
