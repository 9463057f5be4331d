package locations

import (
	"strings"
	"time"
)

// DefaultCacheTTL is the resolver cache expiry used when none is configured.
const DefaultCacheTTL = time.Hour

const minCodeLength = 5

// Resolution is the outcome of resolving a cost-center code.
type Resolution struct {
	Location *Location `json:"location"`
	Type     string    `json:"location_type"`
}

// CacheStats counts resolver cache activity since the last Clear.
type CacheStats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Entries int `json:"entries"`
}

type cacheEntry struct {
	resolution Resolution
	found      bool
	expires    time.Time
}

// Resolver resolves cost-center codes against an Index and caches every
// outcome, including codes that did not resolve, under the raw code.
// A Resolver belongs to one pipeline run and is not safe for concurrent use.
type Resolver struct {
	ttl   time.Duration
	now   func() time.Time
	cache map[string]cacheEntry
	stats CacheStats
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock replaces the wall clock used for cache expiry.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver whose cache entries expire after ttl.
// A non-positive ttl selects DefaultCacheTTL.
func NewResolver(ttl time.Duration, opts ...ResolverOption) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	r := &Resolver{
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps code to a location.
//
// Codes are trimmed and cut at the first '.'; codes shorter than five
// characters never resolve. Codes starting with '1' are looked up verbatim
// as HQ codes. Codes starting with '3' yield a five-character sub-code
// (characters 1 through 5) that is tried as a plain key, as a floor key, and
// then both again with leading zeros removed. The first hit is a Floor
// resolution.
func (r *Resolver) Resolve(code string, idx *Index) (Resolution, bool) {
	now := r.now()

	if e, ok := r.cache[code]; ok && now.Before(e.expires) {
		r.stats.Hits++
		return e.resolution, e.found
	}
	r.stats.Misses++

	res, found := resolve(code, idx)
	r.cache[code] = cacheEntry{
		resolution: res,
		found:      found,
		expires:    now.Add(r.ttl),
	}
	return res, found
}

// Clear drops every cached outcome and resets the statistics.
func (r *Resolver) Clear() {
	clear(r.cache)
	r.stats = CacheStats{}
}

// Len returns the number of cached codes, expired entries included.
func (r *Resolver) Len() int {
	return len(r.cache)
}

// Stats returns cache counters since the last Clear.
func (r *Resolver) Stats() CacheStats {
	s := r.stats
	s.Entries = len(r.cache)
	return s
}

// NormalizeCode trims code and removes everything from the first '.'.
func NormalizeCode(code string) string {
	code = strings.TrimSpace(code)
	if i := strings.IndexByte(code, '.'); i >= 0 {
		code = code[:i]
	}
	return code
}

func resolve(raw string, idx *Index) (Resolution, bool) {
	code := NormalizeCode(raw)
	if len(code) < minCodeLength {
		return Resolution{}, false
	}

	switch code[0] {
	case '1':
		if loc, ok := idx.Lookup(code); ok {
			return Resolution{Location: loc, Type: TypeHQ}, true
		}
	case '3':
		extracted := code[1:min(len(code), 1+minCodeLength)]
		stripped := strings.TrimLeft(extracted, "0")

		for _, key := range []string{
			extracted,
			FloorPrefix + extracted,
			stripped,
			FloorPrefix + stripped,
		} {
			if loc, ok := idx.Lookup(key); ok {
				return Resolution{Location: loc, Type: TypeFloor}, true
			}
		}
	}

	return Resolution{}, false
}
