package config

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
state_dir = "/var/lib/genlink"

[persistence."/persist/home"]
directories = [
    "/home/user/.config/nvim",
    { directory = "/home/user/projects", create_parents = true },
]
files = [
    "/home/user/.bashrc",
    { file = "/home/user/.gitconfig", backup = true },
]

[[links]]
source = "/persist/opt/data"
target = "/opt/data"
directory = true
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "genlink.toml", sampleConfig)

	doc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/genlink", doc.StateDir)

	require.Contains(t, doc.Persistence, "/persist/home")
	block := doc.Persistence["/persist/home"]
	require.Len(t, block.Directories, 2)
	require.Len(t, block.Files, 2)

	assert.Equal(t, "/home/user/.config/nvim", block.Directories[0])
	detailed, ok := block.Directories[1].(map[string]interface{})
	require.True(t, ok, "detailed entry should decode as a table")
	assert.Equal(t, "/home/user/projects", detailed["directory"])
	assert.Equal(t, true, detailed["create_parents"])

	require.Len(t, doc.Links, 1)
	assert.Equal(t, "/opt/data", doc.Links[0].Target)
	assert.True(t, doc.Links[0].Directory)
}

func TestLoad_StateDirDefault(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "genlink.toml", `[persistence."/p"]`+"\n"+`files = ["/etc/machine-id"]`)

	stateDir := filepath.Join(dir, "state")
	t.Setenv("GENLINK_STATE_DIR", stateDir)

	doc, err := Load(path)
	require.NoError(t, err)

	// The env layer overrides the empty default
	assert.Equal(t, stateDir, doc.StateDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "genlink.toml", `state_dir = "/from/file"`)

	t.Setenv("GENLINK_STATE_DIR", "/from/env")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", doc.StateDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfigLoad))
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateFile(t, dir, "genlink.toml", "state_dir = [broken")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfigParse))
}
