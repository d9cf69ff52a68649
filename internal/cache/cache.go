// Package cache implements the asynchronous key-value storage boundary:
// an opaque string-keyed map with no transactions, layered over memory and
// disk so highlight records survive across sessions.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache defines the storage boundary the persistence layer consumes.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced storage key for a record kind and identity,
// e.g. Key("highlights", pageKey). The identity is normalized (lower-cased,
// whitespace collapsed) and hashed so arbitrary URLs and sentences make
// safe file names.
func Key(kind, id string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(id)), " ")
	hash := sha256.Sum256([]byte(normalized))
	return "marginalia:v1:" + kind + ":" + hex.EncodeToString(hash[:])[:32]
}
