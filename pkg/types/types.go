// Package types holds the shared data model for genlink: link entries,
// generations, and the persisted generation state.
package types

import "time"

// LinkKind distinguishes how a link entry is realized on disk.
// Files are exposed through symlinks, directories through bind mounts.
type LinkKind string

const (
	// KindSymlink is a symbolic link, used for files
	KindSymlink LinkKind = "symlink"

	// KindBindMount is a bind mount, used for directories
	KindBindMount LinkKind = "bind"
)

// LinkEntry describes one desired link: expose Source at Target.
// Both paths are absolute; targets are unique within a generation.
type LinkEntry struct {
	// Source is the absolute path to the real data
	Source string `json:"source"`

	// Target is the absolute path where the link or mount is exposed
	Target string `json:"target"`

	// Kind selects symlink (files) or bind mount (directories)
	Kind LinkKind `json:"kind"`

	// CreateParents creates missing ancestor directories of Target
	CreateParents bool `json:"create_parents,omitempty"`

	// Backup preserves a pre-existing object at Target under a
	// timestamped name instead of failing
	Backup bool `json:"backup,omitempty"`

	// Owner, Group and Mode are carried through for forward
	// compatibility but not enforced
	Owner string `json:"owner,omitempty"`
	Group string `json:"group,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// CreatedLink records what actually happened when an entry was created,
// including the backup path if a pre-existing object was preserved.
type CreatedLink struct {
	LinkEntry

	// BackupPath is where the displaced object was moved, if any
	BackupPath string `json:"backup_path,omitempty"`
}

// Generation is an immutable, numbered snapshot of the desired link set.
type Generation struct {
	// ID is assigned by the store at creation time, monotonically increasing
	ID uint64 `json:"id"`

	// CreatedAt is when this generation was created
	CreatedAt time.Time `json:"created_at"`

	// ConfigSource identifies the configuration that produced it
	ConfigSource string `json:"config_source"`

	// Links in creation order; removal walks them in reverse
	Links []CreatedLink `json:"links"`
}

// GenerationState is the persisted record of all generations and which
// one is active. It is the single source of truth.
type GenerationState struct {
	Generations []Generation `json:"generations"`

	// Active is the id of the active generation, nil before the first apply
	Active *uint64 `json:"active,omitempty"`
}

// Find returns the generation with the given id, or nil
func (s *GenerationState) Find(id uint64) *Generation {
	for i := range s.Generations {
		if s.Generations[i].ID == id {
			return &s.Generations[i]
		}
	}
	return nil
}

// ActiveGeneration returns the active generation, or nil if none is active
func (s *GenerationState) ActiveGeneration() *Generation {
	if s.Active == nil {
		return nil
	}
	return s.Find(*s.Active)
}

// NextID returns max(existing ids) + 1, or 0 for an empty state
func (s *GenerationState) NextID() uint64 {
	if len(s.Generations) == 0 {
		return 0
	}
	var max uint64
	for i := range s.Generations {
		if s.Generations[i].ID > max {
			max = s.Generations[i].ID
		}
	}
	return max + 1
}

// LinkStatus is the read-only verification result for one link.
type LinkStatus string

const (
	// StatusOk means the link exists and points at the recorded source
	StatusOk LinkStatus = "ok"

	// StatusMissing means nothing exists at the target
	StatusMissing LinkStatus = "missing"

	// StatusWrongSource means a link or mount exists but resolves elsewhere
	StatusWrongSource LinkStatus = "wrong-source"

	// StatusNotALink means the target exists but is neither a symlink
	// nor a mount point
	StatusNotALink LinkStatus = "not-a-link"
)

// VerifyResult pairs a link with its verification status.
type VerifyResult struct {
	Link   CreatedLink `json:"link"`
	Status LinkStatus  `json:"status"`

	// Detail carries the observed deviation, e.g. the wrong source path
	Detail string `json:"detail,omitempty"`
}

// EntryResult reports what happened to one entry during apply.
type EntryResult struct {
	Entry LinkEntry `json:"entry"`

	// BackupPath is set when a pre-existing object was preserved
	BackupPath string `json:"backup_path,omitempty"`

	// Overwrote flags that validation was skipped and an existing
	// object at the target was removed without backup
	Overwrote bool `json:"overwrote,omitempty"`
}

// ApplyReport is the per-entry outcome of a successful apply.
type ApplyReport struct {
	GenerationID uint64        `json:"generation_id"`
	Entries      []EntryResult `json:"entries"`
}
