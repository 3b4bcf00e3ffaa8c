package tokenstorage

import (
	"sync"
	"time"
)

// revoked maps a token id to the moment the token would have expired anyway.
var (
	mu      sync.RWMutex
	revoked = make(map[string]time.Time)
)

func RevokeToken(tokenID string, expiresAt time.Time) {
	mu.Lock()
	defer mu.Unlock()
	revoked[tokenID] = expiresAt
}

func IsRevoked(tokenID string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := revoked[tokenID]
	return ok
}

// Sweep drops revocations of tokens that have expired by now and reports how many were dropped.
func Sweep(now time.Time) int {
	mu.Lock()
	defer mu.Unlock()

	dropped := 0
	for id, exp := range revoked {
		if !exp.After(now) {
			delete(revoked, id)
			dropped++
		}
	}
	return dropped
}

func Len() int {
	mu.RLock()
	defer mu.RUnlock()
	return len(revoked)
}
