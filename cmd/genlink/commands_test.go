package main

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/arthur-debert/genlink/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateDirForWrites(t *testing.T) {
	t.Run("configured state dir is used", func(t *testing.T) {
		dir := t.TempDir()
		stateDir := filepath.Join(dir, "state")
		cfg := testutil.CreateFile(t, dir, "genlink.toml", `state_dir = "`+stateDir+`"`)
		t.Setenv(paths.EnvConfig, cfg)

		got, err := stateDirForWrites()
		require.NoError(t, err)
		assert.Equal(t, stateDir, got)
	})

	t.Run("unreadable config is an error", func(t *testing.T) {
		dir := t.TempDir()
		cfg := testutil.CreateFile(t, dir, "genlink.toml", "state_dir = [broken")
		t.Setenv(paths.EnvConfig, cfg)

		_, err := stateDirForWrites()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfigParse))
	})

	t.Run("no config falls back to the default", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(paths.EnvConfig, filepath.Join(dir, "absent.toml"))
		t.Setenv(paths.EnvStateDir, filepath.Join(dir, "default-state"))

		got, err := stateDirForWrites()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "default-state"), got)
	})
}

func TestStateDirForReads_IgnoresUnreadableConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := testutil.CreateFile(t, dir, "genlink.toml", "state_dir = [broken")
	t.Setenv(paths.EnvConfig, cfg)
	t.Setenv(paths.EnvStateDir, filepath.Join(dir, "default-state"))

	assert.Equal(t, filepath.Join(dir, "default-state"), stateDirForReads())
}
