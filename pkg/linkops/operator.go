// Package linkops executes single link entries against the filesystem:
// creating, removing and verifying symlinks and bind mounts. It knows
// nothing about generations; ordering and failure policy live in the
// orchestrator.
package linkops

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/filesystem"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/rs/zerolog"
)

// backupTimeFormat produces sortable backup suffixes, e.g.
// .bashrc.backup.20240131_154502
const backupTimeFormat = "20060102_150405"

// Operator performs the filesystem mutations for individual link
// entries.
type Operator struct {
	fs     filesystem.FS
	mnt    Mounter
	now    func() time.Time
	logger zerolog.Logger
}

// New creates an Operator over the given filesystem and mounter
func New(fsys filesystem.FS, mnt Mounter) *Operator {
	return &Operator{
		fs:     fsys,
		mnt:    mnt,
		now:    time.Now,
		logger: logging.GetLogger("linkops"),
	}
}

// NewOS creates an Operator backed by the real filesystem and mount table
func NewOS() *Operator {
	return New(filesystem.NewOS(), NewMounter())
}

// Create realizes one entry on disk. When skipValidation is set, the
// source-exists check is skipped and a pre-existing target is
// overwritten instead of failing; the returned flag reports whether
// that overwrite happened so callers can surface it.
func (o *Operator) Create(entry types.LinkEntry, skipValidation bool) (types.CreatedLink, bool, error) {
	link := types.CreatedLink{LinkEntry: entry}

	if err := o.ensureSource(entry, skipValidation); err != nil {
		return link, false, err
	}

	if entry.CreateParents {
		if err := o.fs.MkdirAll(filepath.Dir(entry.Target), 0755); err != nil {
			return link, false, wrapFsErr(err, "cannot create parent directories for %s", entry.Target)
		}
	}

	overwrote := false
	if o.occupied(entry) {
		switch {
		case entry.Backup:
			backupPath, err := o.backupTarget(entry.Target)
			if err != nil {
				return link, false, err
			}
			link.BackupPath = backupPath
		case skipValidation:
			if err := o.clearTarget(entry.Target); err != nil {
				return link, false, err
			}
			overwrote = true
		default:
			return link, false, errors.Newf(errors.ErrTargetExists,
				"target %s already exists (set backup to preserve it)", entry.Target).
				WithDetail("target", entry.Target)
		}
	}

	switch entry.Kind {
	case types.KindBindMount:
		if err := o.createBindMount(entry); err != nil {
			return link, overwrote, err
		}
	default:
		if err := o.fs.Symlink(entry.Source, entry.Target); err != nil {
			return link, overwrote, wrapFsErr(err, "cannot create symlink %s", entry.Target)
		}
	}

	o.logger.Info().
		Str("target", entry.Target).
		Str("source", entry.Source).
		Str("kind", string(entry.Kind)).
		Bool("overwrote", overwrote).
		Str("backup", link.BackupPath).
		Msg("link created")

	return link, overwrote, nil
}

// ensureSource validates the source path. A missing bind-mount source
// is built from scratch when the target directory already exists, so
// an existing directory can be adopted on first apply.
func (o *Operator) ensureSource(entry types.LinkEntry, skipValidation bool) error {
	if _, err := o.fs.Stat(entry.Source); err == nil {
		return nil
	}

	if entry.Kind == types.KindBindMount {
		if info, err := o.fs.Stat(entry.Target); err == nil && info.IsDir() {
			o.logger.Info().
				Str("source", entry.Source).
				Str("target", entry.Target).
				Msg("source missing but target exists, creating source directory")
			if err := o.fs.MkdirAll(entry.Source, 0755); err != nil {
				return wrapFsErr(err, "cannot create source directory %s", entry.Source)
			}
			return nil
		}
	}

	if skipValidation {
		return nil
	}
	return errors.Newf(errors.ErrValidation, "source path does not exist: %s", entry.Source).
		WithDetail("source", entry.Source)
}

// createBindMount ensures the target directory exists and is empty,
// then mounts the source onto it.
func (o *Operator) createBindMount(entry types.LinkEntry) error {
	if err := o.fs.MkdirAll(entry.Target, 0755); err != nil {
		return wrapFsErr(err, "cannot create mount point %s", entry.Target)
	}

	// A non-empty mount point would hide its contents under the mount
	children, err := o.fs.ReadDir(entry.Target)
	if err != nil {
		return wrapFsErr(err, "cannot read mount point %s", entry.Target)
	}
	if len(children) > 0 {
		return errors.Newf(errors.ErrTargetExists,
			"mount point %s is not empty (set backup to preserve its contents)", entry.Target).
			WithDetail("target", entry.Target)
	}

	return o.mnt.Bind(entry.Source, entry.Target)
}

// Remove undoes one created link: unmounts or unlinks the target, then
// restores the recorded backup if it still exists. A link already gone
// from disk is not an error.
func (o *Operator) Remove(link types.CreatedLink) error {
	mounted, err := o.mnt.IsMountPoint(link.Target)
	if err != nil {
		return err
	}

	switch {
	case mounted:
		if err := o.mnt.Unmount(link.Target); err != nil {
			return err
		}
		// The now-empty mount point directory is cosmetic
		_ = o.fs.Remove(link.Target)
	default:
		info, err := o.fs.Lstat(link.Target)
		if err != nil {
			if !os.IsNotExist(err) {
				return wrapFsErr(err, "cannot inspect %s", link.Target)
			}
		} else if info.Mode()&fs.ModeSymlink != 0 {
			if err := o.fs.Remove(link.Target); err != nil {
				return wrapFsErr(err, "cannot remove symlink %s", link.Target)
			}
		}
	}

	if link.BackupPath != "" {
		if _, err := o.fs.Lstat(link.BackupPath); err == nil {
			if err := o.fs.Rename(link.BackupPath, link.Target); err != nil {
				return wrapFsErr(err, "cannot restore backup %s", link.BackupPath)
			}
			o.logger.Info().
				Str("target", link.Target).
				Str("backup", link.BackupPath).
				Msg("backup restored")
		}
	}

	o.logger.Info().
		Str("target", link.Target).
		Str("kind", string(link.Kind)).
		Msg("link removed")

	return nil
}

// Verify reports the read-only status of one link. It never mutates
// the filesystem and needs no privileges.
func (o *Operator) Verify(link types.CreatedLink) types.VerifyResult {
	result := types.VerifyResult{Link: link, Status: types.StatusOk}

	switch link.Kind {
	case types.KindBindMount:
		if _, err := o.fs.Stat(link.Target); err != nil {
			result.Status = types.StatusMissing
			return result
		}
		mounted, err := o.mnt.IsMountPoint(link.Target)
		if err != nil || !mounted {
			result.Status = types.StatusNotALink
			result.Detail = "directory is not a mount point"
			return result
		}
		source, err := o.mnt.Source(link.Target)
		if err == nil && source != "" && source != link.Source {
			result.Status = types.StatusWrongSource
			result.Detail = source
		}
	default:
		info, err := o.fs.Lstat(link.Target)
		if err != nil {
			result.Status = types.StatusMissing
			return result
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			result.Status = types.StatusNotALink
			result.Detail = "path is not a symlink"
			return result
		}
		dest, err := o.fs.Readlink(link.Target)
		if err != nil {
			result.Status = types.StatusNotALink
			result.Detail = err.Error()
			return result
		}
		if dest != link.Source {
			result.Status = types.StatusWrongSource
			result.Detail = dest
		}
	}

	return result
}

// backupTarget moves the existing object at target aside under a
// timestamped name. A target that is itself a symlink is re-pointed at
// the backup path rather than renamed, so the live link disappears
// either way.
func (o *Operator) backupTarget(target string) (string, error) {
	backupPath := target + ".backup." + o.now().UTC().Format(backupTimeFormat)

	info, err := o.fs.Lstat(target)
	if err != nil {
		return "", wrapFsErr(err, "cannot inspect %s for backup", target)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		dest, err := o.fs.Readlink(target)
		if err != nil {
			return "", wrapFsErr(err, "cannot read symlink %s for backup", target)
		}
		if err := o.fs.Remove(target); err != nil {
			return "", wrapFsErr(err, "cannot remove symlink %s", target)
		}
		if err := o.fs.Symlink(dest, backupPath); err != nil {
			return "", wrapFsErr(err, "cannot create backup symlink %s", backupPath)
		}
	} else {
		if err := o.fs.Rename(target, backupPath); err != nil {
			return "", wrapFsErr(err, "cannot back up %s", target)
		}
	}

	o.logger.Info().
		Str("target", target).
		Str("backup", backupPath).
		Msg("existing target backed up")

	return backupPath, nil
}

// clearTarget removes whatever occupies the target path, unmounting
// first when it is a mount point. Only reachable with skipValidation.
func (o *Operator) clearTarget(target string) error {
	mounted, err := o.mnt.IsMountPoint(target)
	if err != nil {
		return err
	}
	if mounted {
		if err := o.mnt.Unmount(target); err != nil {
			return err
		}
	}

	info, err := o.fs.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return wrapFsErr(err, "cannot inspect %s", target)
	}

	if info.IsDir() {
		if err := o.fs.RemoveAll(target); err != nil {
			return wrapFsErr(err, "cannot remove directory %s", target)
		}
		return nil
	}
	if err := o.fs.Remove(target); err != nil {
		return wrapFsErr(err, "cannot remove %s", target)
	}
	return nil
}

// occupied reports whether something is in the way of the entry's
// target, including a dangling symlink. An existing empty directory
// does not occupy a bind-mount target: it is the mount point. A
// populated one does, and goes through the backup/overwrite/fail
// handling like any other pre-existing object.
func (o *Operator) occupied(entry types.LinkEntry) bool {
	info, err := o.fs.Lstat(entry.Target)
	if err != nil {
		return false
	}
	if entry.Kind == types.KindBindMount && info.IsDir() {
		children, err := o.fs.ReadDir(entry.Target)
		return err == nil && len(children) > 0
	}
	return true
}

// wrapFsErr classifies a filesystem error as permission or plain I/O
func wrapFsErr(err error, format string, args ...interface{}) error {
	code := errors.ErrIO
	if os.IsPermission(err) {
		code = errors.ErrPermission
	}
	return errors.Wrapf(err, code, format, args...)
}
