package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the key-value store collaborator used for fetched-page
// caching, paywall session blobs, and provider block cooldowns. Nothing
// above this interface assumes a filesystem or a process-wide global.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey generates a cache key for a fetched page URL.
func PageKey(url string) string {
	return "deadonfilm:page:" + hashKey(url)
}

// SessionKey generates a cache key for a paywall session blob.
func SessionKey(domain string) string {
	return "deadonfilm:session:" + domain
}

// BlockKey generates a cache key for a provider block cooldown.
func BlockKey(provider string) string {
	return "deadonfilm:blocked:" + provider
}

func hashKey(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}
