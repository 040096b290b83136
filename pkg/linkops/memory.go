package linkops

import (
	"sync"

	"github.com/arthur-debert/genlink/pkg/errors"
)

// MemoryMounter is an in-memory Mounter that records bind mounts in a
// map instead of touching the mount table. It backs tests and dry
// inspection in environments without CAP_SYS_ADMIN.
type MemoryMounter struct {
	mu sync.Mutex

	// mounts maps mount point to bind source
	mounts map[string]string

	// FailBind, when set, makes Bind return this error
	FailBind error
}

// NewMemoryMounter creates an empty MemoryMounter
func NewMemoryMounter() *MemoryMounter {
	return &MemoryMounter{mounts: make(map[string]string)}
}

func (m *MemoryMounter) Bind(source, target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailBind != nil {
		return m.FailBind
	}
	if _, mounted := m.mounts[target]; mounted {
		return errors.Newf(errors.ErrIO, "%s is already a mount point", target)
	}
	m.mounts[target] = source
	return nil
}

func (m *MemoryMounter) Unmount(target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, mounted := m.mounts[target]; !mounted {
		return errors.Newf(errors.ErrIO, "%s is not a mount point", target)
	}
	delete(m.mounts, target)
	return nil
}

func (m *MemoryMounter) IsMountPoint(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, mounted := m.mounts[path]
	return mounted, nil
}

func (m *MemoryMounter) Source(mountpoint string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mounts[mountpoint], nil
}

// Mounts returns a copy of the current mount map
func (m *MemoryMounter) Mounts() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make(map[string]string, len(m.mounts))
	for target, source := range m.mounts {
		copied[target] = source
	}
	return copied
}
