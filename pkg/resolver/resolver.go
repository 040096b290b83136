// Package resolver turns a configuration document into the ordered list
// of concrete link entries a generation is built from. Resolution is a
// pure function: same document in, same entries out, no filesystem
// access.
//
// Ordering is load-bearing for the operator (parents before children,
// removal in reverse), so it is fully deterministic: persistence blocks
// sorted by directory path, directories before files within a block,
// declaration order within each list, then the explicit links in
// declaration order.
package resolver

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthur-debert/genlink/pkg/config"
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/types"
)

// Resolve normalizes the document into link entries and validates them.
func Resolve(doc *config.Document) ([]types.LinkEntry, error) {
	var entries []types.LinkEntry

	persistDirs := make([]string, 0, len(doc.Persistence))
	for dir := range doc.Persistence {
		persistDirs = append(persistDirs, dir)
	}
	sort.Strings(persistDirs)

	for _, persistDir := range persistDirs {
		if !filepath.IsAbs(persistDir) {
			return nil, errors.Newf(errors.ErrConfigInvalid,
				"persistence directory must be an absolute path: %s", persistDir).
				WithDetail("path", persistDir)
		}

		block := doc.Persistence[persistDir]

		for i, raw := range block.Directories {
			entry, err := normalizeDirectory(persistDir, raw)
			if err != nil {
				return nil, annotate(err, persistDir, "directories", i)
			}
			entries = append(entries, entry)
		}
		for i, raw := range block.Files {
			entry, err := normalizeFile(persistDir, raw)
			if err != nil {
				return nil, annotate(err, persistDir, "files", i)
			}
			entries = append(entries, entry)
		}
	}

	for i, decl := range doc.Links {
		entry, err := normalizeLinkDecl(decl)
		if err != nil {
			return nil, annotate(err, "", "links", i)
		}
		entries = append(entries, entry)
	}

	if err := checkDuplicateTargets(entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// normalizeDirectory handles one element of a directories list: a bare
// path string or a detailed table keyed by "directory".
func normalizeDirectory(persistDir string, raw interface{}) (types.LinkEntry, error) {
	entry := types.LinkEntry{Kind: types.KindBindMount}

	switch decl := raw.(type) {
	case string:
		if err := fillPersistencePaths(&entry, persistDir, decl); err != nil {
			return entry, err
		}
	case map[string]interface{}:
		target, err := requiredString(decl, "directory")
		if err != nil {
			return entry, err
		}
		if _, mixed := decl["file"]; mixed {
			return entry, errors.Newf(errors.ErrConfigInvalid,
				"directory declaration for %s also carries a 'file' field", target)
		}
		if err := rejectUnknownKeys(decl, "directory", "create_parents", "backup", "user", "group", "mode"); err != nil {
			return entry, err
		}
		if err := fillPersistencePaths(&entry, persistDir, target); err != nil {
			return entry, err
		}
		entry.CreateParents = boolField(decl, "create_parents")
		entry.Backup = boolField(decl, "backup")
		entry.Owner = stringField(decl, "user")
		entry.Group = stringField(decl, "group")
		entry.Mode = stringField(decl, "mode")
	default:
		return entry, errors.Newf(errors.ErrConfigInvalid,
			"directory declaration must be a path or a table, got %T", raw)
	}

	return entry, nil
}

// normalizeFile handles one element of a files list: a bare path string
// or a detailed table keyed by "file".
func normalizeFile(persistDir string, raw interface{}) (types.LinkEntry, error) {
	entry := types.LinkEntry{Kind: types.KindSymlink}

	switch decl := raw.(type) {
	case string:
		if err := fillPersistencePaths(&entry, persistDir, decl); err != nil {
			return entry, err
		}
	case map[string]interface{}:
		target, err := requiredString(decl, "file")
		if err != nil {
			return entry, err
		}
		if _, mixed := decl["directory"]; mixed {
			return entry, errors.Newf(errors.ErrConfigInvalid,
				"file declaration for %s also carries a 'directory' field", target)
		}
		if err := rejectUnknownKeys(decl, "file", "backup", "parent_directory"); err != nil {
			return entry, err
		}
		if err := fillPersistencePaths(&entry, persistDir, target); err != nil {
			return entry, err
		}
		entry.Backup = boolField(decl, "backup")
		if parent, ok := decl["parent_directory"]; ok {
			parentTable, ok := parent.(map[string]interface{})
			if !ok {
				return entry, errors.Newf(errors.ErrConfigInvalid,
					"parent_directory for %s must be a table", target)
			}
			if err := rejectUnknownKeys(parentTable, "mode"); err != nil {
				return entry, err
			}
			entry.CreateParents = true
			entry.Mode = stringField(parentTable, "mode")
		}
	default:
		return entry, errors.Newf(errors.ErrConfigInvalid,
			"file declaration must be a path or a table, got %T", raw)
	}

	return entry, nil
}

// normalizeLinkDecl handles one explicitly declared source/target pair.
func normalizeLinkDecl(decl config.LinkDecl) (types.LinkEntry, error) {
	entry := types.LinkEntry{
		Source:        decl.Source,
		Target:        decl.Target,
		Kind:          types.KindSymlink,
		CreateParents: decl.CreateParents,
		Backup:        decl.Backup,
		Owner:         decl.Owner,
		Group:         decl.Group,
		Mode:          decl.Mode,
	}
	if decl.Directory {
		entry.Kind = types.KindBindMount
	}

	if entry.Source == "" || entry.Target == "" {
		return entry, errors.New(errors.ErrConfigInvalid,
			"explicit link declarations need both source and target")
	}
	if !filepath.IsAbs(entry.Source) {
		return entry, errors.Newf(errors.ErrConfigInvalid,
			"link source must be an absolute path: %s", entry.Source).
			WithDetail("path", entry.Source)
	}
	if !filepath.IsAbs(entry.Target) {
		return entry, errors.Newf(errors.ErrConfigInvalid,
			"link target must be an absolute path: %s", entry.Target).
			WithDetail("path", entry.Target)
	}

	return entry, nil
}

// fillPersistencePaths sets the target and derives the source by
// re-rooting the target under the persistence directory.
func fillPersistencePaths(entry *types.LinkEntry, persistDir, target string) error {
	if !filepath.IsAbs(target) {
		return errors.Newf(errors.ErrConfigInvalid,
			"target must be an absolute path: %s", target).
			WithDetail("path", target)
	}
	entry.Target = filepath.Clean(target)
	entry.Source = filepath.Join(persistDir, strings.TrimPrefix(entry.Target, "/"))
	return nil
}

func checkDuplicateTargets(entries []types.LinkEntry) error {
	seen := make(map[string]int, len(entries))
	for i, entry := range entries {
		if prev, dup := seen[entry.Target]; dup {
			return errors.Newf(errors.ErrConfigInvalid,
				"target %s is declared more than once", entry.Target).
				WithDetail("target", entry.Target).
				WithDetail("first_index", prev).
				WithDetail("second_index", i)
		}
		seen[entry.Target] = i
	}
	return nil
}

// annotate attaches the declaration position to a normalization error
func annotate(err error, persistDir, list string, index int) error {
	var structured *errors.Error
	if e, ok := err.(*errors.Error); ok {
		structured = e
	} else {
		structured = errors.Wrap(err, errors.ErrConfigInvalid, "invalid declaration")
	}
	structured = structured.WithDetail("list", list).WithDetail("index", index)
	if persistDir != "" {
		structured = structured.WithDetail("persistence_dir", persistDir)
	}
	return structured
}

func requiredString(m map[string]interface{}, key string) (string, error) {
	value, ok := m[key]
	if !ok {
		return "", errors.Newf(errors.ErrConfigInvalid, "declaration table is missing the '%s' field", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", errors.Newf(errors.ErrConfigInvalid, "field '%s' must be a string, got %T", key, value)
	}
	return s, nil
}

func stringField(m map[string]interface{}, key string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return ""
}

func boolField(m map[string]interface{}, key string) bool {
	if value, ok := m[key].(bool); ok {
		return value
	}
	return false
}

func rejectUnknownKeys(m map[string]interface{}, allowed ...string) error {
	for key := range m {
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return errors.New(errors.ErrConfigInvalid,
				fmt.Sprintf("unknown field '%s' in declaration table", key))
		}
	}
	return nil
}
