package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_TryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genlink.lock")

	first := NewFileLock(path)
	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer func() { _ = first.Unlock() }()

	// A second handle on the same lock file must not acquire
	second := NewFileLock(path)
	acquired, err = second.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestFileLock_LockWithTimeout_TimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genlink.lock")

	holder := NewFileLock(path)
	acquired, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer func() { _ = holder.Unlock() }()

	blocked := NewFileLock(path)
	start := time.Now()
	err = blocked.LockWithTimeout(150 * time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrLockTimeout))
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestFileLock_ReleasedLockCanBeReacquired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genlink.lock")

	first := NewFileLock(path)
	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, first.Unlock())

	second := NewFileLock(path)
	require.NoError(t, second.LockWithTimeout(time.Second))
	require.NoError(t, second.Unlock())
}

func TestFileLock_UnlockWithoutLockIsNoop(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "genlink.lock"))
	assert.NoError(t, lock.Unlock())
}
