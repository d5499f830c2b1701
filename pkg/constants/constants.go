// Package constants provides shared constants used throughout the propsync codebase.
// This includes timeouts, batch sizes, retry bounds, and limits that should be
// consistent across the fetch, reconcile and propagation paths.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for a single request to the record source
	DefaultHTTPTimeout = 30 * time.Second

	// PartitionFetchTimeout bounds one partition fetch including all of its pages
	// and related-group lookups. Exceeding it fails that partition only.
	PartitionFetchTimeout = 2 * time.Minute

	// SnapshotTimeout bounds the destination snapshot read
	SnapshotTimeout = 1 * time.Minute

	// WriteTimeout bounds a single destination write
	WriteTimeout = 15 * time.Second

	// RunTimeout is the default timeout for an entire reconciliation run
	RunTimeout = 30 * time.Minute

	// ShutdownTimeout is how long the CLI waits for cleanup after an error
	ShutdownTimeout = 5 * time.Second
)

// Retry constants bound the outbound propagation path
const (
	// MaxRetries is the default number of attempts for a rate-limited write
	MaxRetries = 5

	// RetryBackoff is the base backoff; attempt n waits RetryBackoff * 2^n
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff caps a single backoff wait
	MaxRetryBackoff = 30 * time.Second
)

// Source API limits
const (
	// RelatedBatchSize is the maximum number of record ids per related-group lookup
	RelatedBatchSize = 50

	// DefaultPageSize is the page size requested when listing a partition
	DefaultPageSize = 100

	// MaxPages guards against a source that never stops returning offsets
	MaxPages = 1000

	// MaxUpdateBatch is the maximum number of records in one outbound update call
	MaxUpdateBatch = 10
)

// Reconciliation limits
const (
	// MaxResultDetails caps the detail lines kept on a run result
	MaxResultDetails = 200

	// DefaultWriteConcurrency is the default number of concurrent destination writes
	DefaultWriteConcurrency = 1
)

// Cache constants
const (
	// RelatedCacheTTL is how long a resolved related record stays cached
	RelatedCacheTTL = 15 * time.Minute

	// RelatedCacheCleanupInterval is how often expired related records are purged
	RelatedCacheCleanupInterval = 5 * time.Minute
)

// Run lock constants
const (
	// RunLockName is the advisory lock taken by a reconciliation run
	RunLockName = "reconcile"

	// RunLockTTL is how long a lock survives a crashed holder
	RunLockTTL = 45 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for files holding credentials (rw-------)
	SecureFilePermissions = 0600
)
