// Package interfaces defines service contracts for Folio
package interfaces

import "time"

// QuoteCache is the time-bounded key/value store shared by the adapters and
// the aggregation engine. Constructed once at process start and injected by
// reference; implementations must be safe for concurrent use.
type QuoteCache interface {
	// Get returns the value for key, or false if absent or expired.
	Get(key string) (any, bool)

	// Set stores value under key. ttl <= 0 applies the cache's default TTL.
	Set(key string, value any, ttl time.Duration)

	// Delete removes a single key.
	Delete(key string)

	// Flush removes every entry.
	Flush()

	// Len returns the number of unexpired entries.
	Len() int
}
