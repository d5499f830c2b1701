package errors_test

import (
	"errors"
	"testing"
	"time"

	pkgerrors "github.com/agentstation/propsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "property",
			ID:       "X-1",
		}
		assert.Equal(t, "property with ID X-1 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("record", "rec1")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("partitions", nil, "cannot be empty")
		assert.Equal(t, "validation failed for field partitions: cannot be empty", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "invalid configuration"}
		assert.Equal(t, "validation failed: invalid configuration", err.Error())
	})
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
		notFound    bool
	}{
		{name: "too many requests", status: 429, rateLimited: true},
		{name: "server error", status: 503, unavailable: true},
		{name: "unauthorized", status: 401, unavailable: true},
		{name: "forbidden", status: 403, unavailable: true},
		{name: "not found", status: 404, notFound: true},
		{name: "unprocessable", status: 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("records", tt.status, "boom")
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, pkgerrors.IsSourceUnavailable(err))
			assert.Equal(t, tt.notFound, pkgerrors.IsNotFound(err))
		})
	}

	t.Run("message", func(t *testing.T) {
		err := pkgerrors.NewAPIError("records", 429, "slow down")
		assert.Equal(t, "API error from records (status 429): slow down", err.Error())
	})

	t.Run("wrapped through fmt", func(t *testing.T) {
		err := pkgerrors.NewAPIError("records", 429, "slow down")
		err.RetryAfter = 2 * time.Second
		wrapped := errors.Join(errors.New("update fields"), err)

		var apiErr *pkgerrors.APIError
		require.True(t, errors.As(wrapped, &apiErr))
		assert.Equal(t, 2*time.Second, apiErr.RetryAfter)
		assert.True(t, pkgerrors.IsRateLimited(wrapped))
	})
}

func TestSourceError(t *testing.T) {
	base := errors.New("connection refused")
	err := pkgerrors.NewSourceError("viwRenovation", "list", base)

	assert.Equal(t, "source error for partition viwRenovation during list: connection refused", err.Error())
	assert.True(t, pkgerrors.IsSourceUnavailable(err))
	assert.ErrorIs(t, err, base)
}

func TestMappingError(t *testing.T) {
	err := pkgerrors.NewMissingKeyError("rec9", true)

	assert.Equal(t, "mapping skipped for record rec9: no resolvable business key", err.Error())
	assert.True(t, pkgerrors.IsMappingSkipped(err))
	assert.ErrorIs(t, err, pkgerrors.ErrMissingRequiredKey)
	assert.True(t, err.HasIdentifiers)
}

func TestWriteError(t *testing.T) {
	err := pkgerrors.NewWriteError("update", "X-1", errors.New("disk full"))
	assert.Equal(t, "failed to update property X-1: disk full", err.Error())
	assert.True(t, pkgerrors.IsWriteFailed(err))

	bulk := pkgerrors.NewWriteError("orphan", "", errors.New("locked table"))
	assert.Equal(t, "failed to orphan properties: locked table", bulk.Error())
}

func TestSnapshotError(t *testing.T) {
	err := &pkgerrors.SnapshotError{Err: errors.New("no such table")}
	assert.ErrorIs(t, err, pkgerrors.ErrSnapshotReadFailed)
	assert.Contains(t, err.Error(), "no such table")
}

func TestRetryError(t *testing.T) {
	last := pkgerrors.NewAPIError("records", 429, "slow down")
	err := &pkgerrors.RetryError{Operation: "update fields", Attempts: 3, Err: last}

	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.True(t, pkgerrors.IsRateLimited(err))
}

func TestLockError(t *testing.T) {
	until := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := &pkgerrors.LockError{Name: "reconcile", Holder: "run-1", Until: until}

	assert.Equal(t, "lock reconcile held by run-1 until 2026-01-02T03:04:05Z", err.Error())
	assert.True(t, pkgerrors.IsLocked(err))
	assert.Equal(t, "lock reconcile is held", (&pkgerrors.LockError{Name: "reconcile"}).Error())
}

func TestConfigError(t *testing.T) {
	base := errors.New("duplicate priority")
	err := pkgerrors.NewConfigError("partitions", "priorities must be unique", base)

	assert.Equal(t, "configuration error in partitions: priorities must be unique", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
		assert.NoError(t, pkgerrors.WrapResource("open", "store", "", nil))
		assert.NoError(t, pkgerrors.WrapParse("yaml", "x", nil))
		assert.NoError(t, pkgerrors.WrapAPI("records", 500, nil))
		assert.NoError(t, pkgerrors.WrapSource("p", "list", nil))
		assert.NoError(t, pkgerrors.WrapWrite("create", "k", nil))
		assert.NoError(t, pkgerrors.WrapValidation("f", nil))
	})

	t.Run("wrap io", func(t *testing.T) {
		err := pkgerrors.WrapIO("read", "/tmp/mapping.yaml", errors.New("permission denied"))
		var ioErr *pkgerrors.IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "read", ioErr.Operation)
		assert.Equal(t, "/tmp/mapping.yaml", ioErr.Path)
	})

	t.Run("wrap api keeps status semantics", func(t *testing.T) {
		err := pkgerrors.WrapAPI("records", 503, errors.New("maintenance"))
		assert.True(t, pkgerrors.IsSourceUnavailable(err))
	})

	t.Run("wrap parse", func(t *testing.T) {
		err := pkgerrors.WrapParse("yaml", "mapping.yaml", errors.New("bad indent"))
		assert.Equal(t, "parse error in yaml file mapping.yaml: bad indent", err.Error())
	})
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		pkgerrors.ErrNotFound,
		pkgerrors.ErrInvalidInput,
		pkgerrors.ErrSourceUnavailable,
		pkgerrors.ErrRateLimited,
		pkgerrors.ErrMappingSkipped,
		pkgerrors.ErrMissingRequiredKey,
		pkgerrors.ErrWriteFailed,
		pkgerrors.ErrSnapshotReadFailed,
		pkgerrors.ErrLocked,
		pkgerrors.ErrTimeout,
		pkgerrors.ErrCanceled,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}
