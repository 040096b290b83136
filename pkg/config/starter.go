package config

import (
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

const starterHeader = `# genlink configuration
#
# Persistence blocks map a persistence directory to the absolute paths
# exposed from it. Directories become bind mounts, files become
# symlinks. Entries may be bare paths or tables carrying options
# (create_parents, backup, user/group/mode).
#
# state_dir defaults to $XDG_STATE_HOME/genlink when left empty.

`

// starterDoc mirrors Document with toml tags for rendering only
type starterDoc struct {
	StateDir    string                   `toml:"state_dir"`
	Persistence map[string]starterBlock  `toml:"persistence"`
	Links       []map[string]interface{} `toml:"links,omitempty"`
}

type starterBlock struct {
	Directories []interface{} `toml:"directories"`
	Files       []interface{} `toml:"files"`
}

// Starter renders a commented starter configuration for genconfig.
func Starter() (string, error) {
	sample := starterDoc{
		StateDir: "",
		Persistence: map[string]starterBlock{
			"/persist/home": {
				Directories: []interface{}{
					"/home/user/.config/nvim",
					map[string]interface{}{
						"directory":      "/home/user/projects",
						"create_parents": true,
					},
				},
				Files: []interface{}{
					"/home/user/.bashrc",
					map[string]interface{}{
						"file":   "/home/user/.gitconfig",
						"backup": true,
					},
				},
			},
		},
	}

	rendered, err := toml.Marshal(sample)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render starter configuration")
	}

	var b strings.Builder
	b.WriteString(starterHeader)
	b.Write(rendered)
	return b.String(), nil
}
