package resolver

import (
	"testing"

	"github.com/arthur-debert/genlink/pkg/config"
	"github.com/arthur-debert/genlink/pkg/errors"
	"github.com/arthur-debert/genlink/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_PersistenceBlocks(t *testing.T) {
	tests := []struct {
		name     string
		doc      *config.Document
		expected []types.LinkEntry
		wantErr  bool
		wantCode errors.ErrorCode
	}{
		{
			name: "bare file becomes symlink with defaults",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist/home": {
						Files: []interface{}{"/home/user/.bashrc"},
					},
				},
			},
			expected: []types.LinkEntry{
				{
					Source: "/persist/home/home/user/.bashrc",
					Target: "/home/user/.bashrc",
					Kind:   types.KindSymlink,
				},
			},
		},
		{
			name: "bare directory becomes bind mount",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist": {
						Directories: []interface{}{"/var/lib/postgresql"},
					},
				},
			},
			expected: []types.LinkEntry{
				{
					Source: "/persist/var/lib/postgresql",
					Target: "/var/lib/postgresql",
					Kind:   types.KindBindMount,
				},
			},
		},
		{
			name: "detailed directory carries flags and metadata",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist": {
						Directories: []interface{}{
							map[string]interface{}{
								"directory":      "/etc/nixos",
								"create_parents": true,
								"backup":         true,
								"user":           "root",
								"group":          "wheel",
								"mode":           "0755",
							},
						},
					},
				},
			},
			expected: []types.LinkEntry{
				{
					Source:        "/persist/etc/nixos",
					Target:        "/etc/nixos",
					Kind:          types.KindBindMount,
					CreateParents: true,
					Backup:        true,
					Owner:         "root",
					Group:         "wheel",
					Mode:          "0755",
				},
			},
		},
		{
			name: "file with parent_directory implies create_parents",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist": {
						Files: []interface{}{
							map[string]interface{}{
								"file": "/etc/ssh/ssh_host_ed25519_key",
								"parent_directory": map[string]interface{}{
									"mode": "0700",
								},
							},
						},
					},
				},
			},
			expected: []types.LinkEntry{
				{
					Source:        "/persist/etc/ssh/ssh_host_ed25519_key",
					Target:        "/etc/ssh/ssh_host_ed25519_key",
					Kind:          types.KindSymlink,
					CreateParents: true,
					Mode:          "0700",
				},
			},
		},
		{
			name: "relative target is rejected",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist": {
						Files: []interface{}{".bashrc"},
					},
				},
			},
			wantErr:  true,
			wantCode: errors.ErrConfigInvalid,
		},
		{
			name: "relative persistence directory is rejected",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"persist": {
						Files: []interface{}{"/home/user/.bashrc"},
					},
				},
			},
			wantErr:  true,
			wantCode: errors.ErrConfigInvalid,
		},
		{
			name: "directory declaration with file field is rejected",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist": {
						Directories: []interface{}{
							map[string]interface{}{
								"directory": "/etc/nixos",
								"file":      "/etc/machine-id",
							},
						},
					},
				},
			},
			wantErr:  true,
			wantCode: errors.ErrConfigInvalid,
		},
		{
			name: "unknown field in declaration table is rejected",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist": {
						Files: []interface{}{
							map[string]interface{}{
								"file":    "/etc/machine-id",
								"symlink": true,
							},
						},
					},
				},
			},
			wantErr:  true,
			wantCode: errors.ErrConfigInvalid,
		},
		{
			name: "duplicate target across blocks is rejected",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist/a": {
						Files: []interface{}{"/etc/machine-id"},
					},
					"/persist/b": {
						Files: []interface{}{"/etc/machine-id"},
					},
				},
			},
			wantErr:  true,
			wantCode: errors.ErrConfigInvalid,
		},
		{
			name: "declaration of unexpected type is rejected",
			doc: &config.Document{
				Persistence: map[string]config.PersistenceBlock{
					"/persist": {
						Files: []interface{}{42},
					},
				},
			},
			wantErr:  true,
			wantCode: errors.ErrConfigInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Resolve(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, tt.wantCode),
					"expected code %s, got %v", tt.wantCode, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, entries)
		})
	}
}

func TestResolve_ExplicitLinks(t *testing.T) {
	doc := &config.Document{
		Links: []config.LinkDecl{
			{
				Source:        "/persist/opt/data",
				Target:        "/opt/data",
				Directory:     true,
				CreateParents: true,
			},
			{
				Source: "/persist/etc/hostname",
				Target: "/etc/hostname",
				Backup: true,
			},
		},
	}

	entries, err := Resolve(doc)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, types.KindBindMount, entries[0].Kind)
	assert.True(t, entries[0].CreateParents)
	assert.Equal(t, types.KindSymlink, entries[1].Kind)
	assert.True(t, entries[1].Backup)
}

func TestResolve_ExplicitLinkValidation(t *testing.T) {
	tests := []struct {
		name string
		decl config.LinkDecl
	}{
		{"missing source", config.LinkDecl{Target: "/etc/hostname"}},
		{"missing target", config.LinkDecl{Source: "/persist/etc/hostname"}},
		{"relative source", config.LinkDecl{Source: "persist/x", Target: "/etc/x"}},
		{"relative target", config.LinkDecl{Source: "/persist/x", Target: "etc/x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(&config.Document{Links: []config.LinkDecl{tt.decl}})
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfigInvalid))
		})
	}
}

func TestResolve_Ordering(t *testing.T) {
	doc := &config.Document{
		Persistence: map[string]config.PersistenceBlock{
			"/persist/b": {
				Directories: []interface{}{"/srv/b-dir"},
				Files:       []interface{}{"/srv/b-file"},
			},
			"/persist/a": {
				Directories: []interface{}{"/srv/a-dir"},
				Files:       []interface{}{"/srv/a-file"},
			},
		},
		Links: []config.LinkDecl{
			{Source: "/persist/extra", Target: "/srv/extra"},
		},
	}

	entries, err := Resolve(doc)
	require.NoError(t, err)

	var targets []string
	for _, entry := range entries {
		targets = append(targets, entry.Target)
	}

	// Blocks sorted by persistence dir, directories before files within
	// a block, explicit links last
	assert.Equal(t, []string{
		"/srv/a-dir",
		"/srv/a-file",
		"/srv/b-dir",
		"/srv/b-file",
		"/srv/extra",
	}, targets)
}

func TestResolve_Deterministic(t *testing.T) {
	doc := &config.Document{
		Persistence: map[string]config.PersistenceBlock{
			"/persist/home":  {Files: []interface{}{"/home/user/.bashrc", "/home/user/.gitconfig"}},
			"/persist/state": {Directories: []interface{}{"/var/lib/tailscale"}},
			"/persist/etc":   {Files: []interface{}{"/etc/machine-id"}},
		},
	}

	first, err := Resolve(doc)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Resolve(doc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolve_EmptyDocument(t *testing.T) {
	entries, err := Resolve(&config.Document{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
