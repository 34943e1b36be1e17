package utils

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"time"
)

// FingerprintSeries hashes a (timestamp, value) series in order. Two series
// with the same points in the same order always produce the same value.
func FingerprintSeries(key string, times []time.Time, values []float64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	var buf [16]byte
	for i := range times {
		binary.LittleEndian.PutUint64(buf[:8], uint64(times[i].UnixNano()))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(values[i]))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
