package config

import (
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStarter_IsValidTOML(t *testing.T) {
	starter, err := Starter()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, toml.Unmarshal([]byte(starter), &decoded))

	assert.Contains(t, decoded, "persistence")
	assert.Contains(t, decoded, "state_dir")
}

func TestStarter_HasHeader(t *testing.T) {
	starter, err := Starter()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(starter, "# genlink configuration"))
}
