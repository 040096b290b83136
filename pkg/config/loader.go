package config

import (
	"os"
	"strings"

	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/logging"
	"github.com/arthur-debert/genlink/pkg/paths"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment overrides, e.g.
// GENLINK_STATE_DIR overrides the state_dir key.
const envPrefix = "GENLINK_"

// defaults are the baked-in values beneath every other layer
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"state_dir": "",
	}
}

// Load reads the configuration file at path and returns the merged
// document. Layers, lowest first: defaults, the TOML file, environment
// variables with the GENLINK_ prefix.
func Load(path string) (*Document, error) {
	logger := logging.GetLogger("config")

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load default configuration")
	}

	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read configuration file %s", path).
			WithDetail("path", path)
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "cannot parse configuration file %s", path).
			WithDetail("path", path)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to load environment overrides")
	}

	var doc Document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "configuration file %s has an invalid shape", path).
			WithDetail("path", path)
	}

	if doc.StateDir == "" {
		doc.StateDir = paths.DefaultStateDir()
	}

	logger.Debug().
		Str("path", path).
		Str("state_dir", doc.StateDir).
		Int("persistence_blocks", len(doc.Persistence)).
		Int("explicit_links", len(doc.Links)).
		Msg("configuration loaded")

	return &doc, nil
}
