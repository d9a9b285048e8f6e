package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from the raw input and every option that changes
// the analysis of that input
func Key(input []byte, options ...string) string {
	h := sha256.New()
	h.Write(input)
	for _, opt := range options {
		h.Write([]byte{0})
		h.Write([]byte(opt))
	}
	return "overlap:v1:" + hex.EncodeToString(h.Sum(nil))
}

// InputHash returns the hex sha256 of the raw input
func InputHash(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}
