// Package fetch sequences concurrent fetches of a logical resource. Each
// fetch takes a monotonic version token; a response whose token is stale
// relative to the latest issued request is discarded instead of overwriting
// newer data.
package fetch

import "sync"

// Guard issues and checks version tokens for one logical resource.
// The zero value is ready to use.
type Guard struct {
	mu     sync.Mutex
	issued uint64
}

// Begin registers a new fetch and returns its version token.
func (g *Guard) Begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// Commit reports whether a response for the given version is still current.
// A response loses to any request issued after it, regardless of arrival
// order.
func (g *Guard) Commit(version uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return version == g.issued
}
