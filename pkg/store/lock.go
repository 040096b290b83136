package store

import (
	"os"
	"time"

	"github.com/arthur-debert/genlink/pkg/errors"
	"golang.org/x/sys/unix"
)

// lockPollInterval is how often a blocked acquisition retries
const lockPollInterval = 50 * time.Millisecond

// FileLock provides cross-process mutual exclusion using flock(2).
// Every mutating operation on the generation record holds it for the
// full load-modify-persist cycle.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock at the given path. The lock file is
// created on first acquisition.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock attempts to acquire the lock without blocking. Returns true
// if the lock was acquired, false if it is held by another process.
func (fl *FileLock) TryLock() (bool, error) {
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrIO, "cannot open lock file %s", fl.path)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK {
			return false, nil
		}
		return false, errors.Wrapf(err, errors.ErrIO, "cannot lock %s", fl.path)
	}

	fl.file = f
	return true, nil
}

// LockWithTimeout acquires the lock, polling until the bounded timeout
// elapses, after which it fails with LOCK_TIMEOUT.
func (fl *FileLock) LockWithTimeout(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		acquired, err := fl.TryLock()
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.Newf(errors.ErrLockTimeout,
				"another genlink operation is in progress (lock %s held elsewhere)", fl.path).
				WithDetail("path", fl.path).
				WithDetail("timeout", timeout.String())
		}
		time.Sleep(lockPollInterval)
	}
}

// Unlock releases the file lock and closes the lock file.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := unix.Flock(int(fl.file.Fd()), unix.LOCK_UN); err != nil {
		_ = fl.file.Close()
		fl.file = nil
		return errors.Wrapf(err, errors.ErrIO, "cannot unlock %s", fl.path)
	}

	err := fl.file.Close()
	fl.file = nil
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot close lock file %s", fl.path)
	}
	return nil
}
