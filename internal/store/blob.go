package store

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/andrewbheyer/sims-skybrightness-pre/internal/mask"
)

// packFloat64s encodes a float64 slice as little-endian IEEE-754 bytes.
// NaN and Inf round-trip bit-exactly.
func packFloat64s(vals []float64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

// unpackFloat64s decodes a blob written by packFloat64s.
func unpackFloat64s(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("float blob length %d not a multiple of 8", len(buf))
	}
	vals := make([]float64, len(buf)/8)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return vals, nil
}

// packMask encodes a mask as one byte per location (0/1).
func packMask(m mask.Mask) []byte {
	buf := make([]byte, len(m))
	for i, v := range m {
		if v {
			buf[i] = 1
		}
	}
	return buf
}

// unpackMask decodes a blob written by packMask.
func unpackMask(buf []byte) mask.Mask {
	m := make(mask.Mask, len(buf))
	for i, b := range buf {
		m[i] = b != 0
	}
	return m
}
