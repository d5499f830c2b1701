package sources

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agentstation/propsync/pkg/constants"
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout bounds every Fetch call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithMaxPages bounds how many pages one Fetch will follow.
func WithMaxPages(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

// WithBatchSize sets the related lookup batch size, capped at
// constants.RelatedBatchSize.
func WithBatchSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 && n <= constants.RelatedBatchSize {
			f.batchSize = n
		}
	}
}

// WithCache shares a related-record cache between fetchers.
func WithCache(c *gocache.Cache) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.cache = c
		}
	}
}

// NewCache returns a related-record cache with the default TTL.
func NewCache() *gocache.Cache {
	return gocache.New(constants.RelatedCacheTTL, constants.RelatedCacheCleanupInterval)
}
