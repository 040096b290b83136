package linkops

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"golang.org/x/sys/unix"
)

// Mounter abstracts bind-mount syscalls and mount-table lookups so the
// operator can be exercised without privileges.
type Mounter interface {
	// Bind mounts source onto target (MS_BIND)
	Bind(source, target string) error

	// Unmount detaches the mount at target
	Unmount(target string) error

	// IsMountPoint reports whether path is currently a mount point
	IsMountPoint(path string) (bool, error)

	// Source returns the bind source recorded in the mount table for
	// the given mount point, or "" when the table does not carry one
	Source(mountpoint string) (string, error)
}

const mountInfoPath = "/proc/self/mountinfo"

// linuxMounter performs real mounts and reads /proc/self/mountinfo.
type linuxMounter struct{}

// NewMounter returns the OS-backed Mounter
func NewMounter() Mounter {
	return &linuxMounter{}
}

func (m *linuxMounter) Bind(source, target string) error {
	// Probe capabilities up front so the failure carries an actionable
	// hint instead of a bare EPERM
	if !hasSysAdmin() {
		return errors.Newf(errors.ErrPermission,
			"bind mount %s -> %s needs CAP_SYS_ADMIN", target, source).
			WithDetail("source", source).
			WithDetail("target", target).
			WithDetail("hint", bindMountHint())
	}

	if err := unix.Mount(source, target, "", unix.MS_BIND, ""); err != nil {
		if err == unix.EPERM || err == unix.EACCES {
			return errors.Wrapf(err, errors.ErrPermission,
				"bind mount %s -> %s requires elevated privileges", target, source).
				WithDetail("source", source).
				WithDetail("target", target)
		}
		return errors.Wrapf(err, errors.ErrIO, "cannot bind mount %s -> %s", target, source).
			WithDetail("source", source).
			WithDetail("target", target)
	}
	return nil
}

func (m *linuxMounter) Unmount(target string) error {
	if err := unix.Unmount(target, 0); err != nil {
		if err == unix.EPERM || err == unix.EACCES {
			return errors.Wrapf(err, errors.ErrPermission,
				"unmounting %s requires elevated privileges", target).
				WithDetail("target", target)
		}
		return errors.Wrapf(err, errors.ErrIO, "cannot unmount %s", target).
			WithDetail("target", target)
	}
	return nil
}

func (m *linuxMounter) IsMountPoint(path string) (bool, error) {
	record, err := findMountRecord(path)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

func (m *linuxMounter) Source(mountpoint string) (string, error) {
	record, err := findMountRecord(mountpoint)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", nil
	}
	return record.root, nil
}

// mountRecord is one parsed line of /proc/self/mountinfo. For a bind
// mount on the same filesystem, root is the source path.
type mountRecord struct {
	root       string
	mountpoint string
}

func findMountRecord(path string) (*mountRecord, error) {
	f, err := os.Open(mountInfoPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "cannot read %s", mountInfoPath)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	var found *mountRecord
	for scanner.Scan() {
		record, ok := parseMountInfoLine(scanner.Text())
		if !ok {
			continue
		}
		// Later lines shadow earlier ones when a path is mounted over
		if record.mountpoint == path {
			found = &record
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "cannot read %s", mountInfoPath)
	}
	return found, nil
}

// parseMountInfoLine extracts the root and mount point fields.
// Format: id parent major:minor root mountpoint options ...
func parseMountInfoLine(line string) (mountRecord, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return mountRecord{}, false
	}
	return mountRecord{
		root:       unescapeMountPath(fields[3]),
		mountpoint: unescapeMountPath(fields[4]),
	}, true
}

// unescapeMountPath decodes the octal escapes the kernel uses for
// spaces, tabs and backslashes in mount paths.
func unescapeMountPath(path string) string {
	if !strings.Contains(path, `\`) {
		return path
	}
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		if path[i] == '\\' && i+3 < len(path) {
			if code, err := strconv.ParseUint(path[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(code))
				i += 3
				continue
			}
		}
		b.WriteByte(path[i])
	}
	return b.String()
}
