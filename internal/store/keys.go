package store

import "sync"

// Key prefixes. Readings are keyed by ID with a secondary index on date;
// timing tables and progress checkpoints are keyed by their owners.
const (
	prefixReading  = "reading:"
	prefixTiming   = "timing:"
	prefixProgress = "progress:"

	entityReadings = "readings"
	indexDate      = "date"
)

// keyPool provides reusable byte slices for building database keys.
// This reduces allocations on the hot path of database operations.
var keyPool = sync.Pool{
	New: func() any {
		// 256 bytes covers prefix + index name + NanoID-sized values.
		return make([]byte, 0, 256)
	},
}

// buildKey constructs a database key from prefix and suffix using a pooled
// buffer. Callers MUST call releaseKey when done with the key.
func buildKey(prefix, suffix string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0] // Reset length, keep capacity
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return buf
}

// buildIndexKey constructs an index key in the idx: namespace, keeping
// index entries out of the record prefix scans. Callers MUST call
// releaseKey when done with the key.
func buildIndexKey(entity, indexName, value string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	buf = append(buf, "idx:"...)
	buf = append(buf, entity...)
	buf = append(buf, ':')
	buf = append(buf, indexName...)
	buf = append(buf, ':')
	buf = append(buf, value...)
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	// Only pool buffers with reasonable capacity.
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
