// Package config loads the genlink configuration document. It layers
// baked-in defaults, the user's TOML file, and GENLINK_* environment
// overrides. The document is handed to the resolver untouched; the two
// declaration styles (bare paths and detailed tables) are normalized
// there, not here.
package config

// Document is the deserialized configuration. Persistence blocks map a
// persistence directory to the targets exposed from it; Links are
// explicitly declared source/target pairs.
type Document struct {
	// StateDir overrides where the generation record lives.
	// Empty means the XDG default.
	StateDir string `koanf:"state_dir"`

	Persistence map[string]PersistenceBlock `koanf:"persistence"`

	Links []LinkDecl `koanf:"links"`
}

// PersistenceBlock declares what a single persistence directory backs.
// Each element is either a bare path string or a detailed table; the
// resolver performs the normalization.
type PersistenceBlock struct {
	Directories []interface{} `koanf:"directories"`
	Files       []interface{} `koanf:"files"`
}

// LinkDecl is an explicitly declared link.
type LinkDecl struct {
	Source string `koanf:"source"`
	Target string `koanf:"target"`

	// Directory selects a bind mount instead of a symlink
	Directory bool `koanf:"directory"`

	CreateParents bool   `koanf:"create_parents"`
	Backup        bool   `koanf:"backup"`
	Owner         string `koanf:"owner"`
	Group         string `koanf:"group"`
	Mode          string `koanf:"mode"`
}
