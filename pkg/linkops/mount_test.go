package linkops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMountInfoLine(t *testing.T) {
	tests := []struct {
		name           string
		line           string
		wantRoot       string
		wantMountpoint string
		wantOk         bool
	}{
		{
			name:           "plain bind mount",
			line:           "512 29 8:1 /persist/var/lib/data /var/lib/data rw,relatime shared:1 - ext4 /dev/sda1 rw",
			wantRoot:       "/persist/var/lib/data",
			wantMountpoint: "/var/lib/data",
			wantOk:         true,
		},
		{
			name:           "root filesystem",
			line:           "29 1 8:1 / / rw,relatime shared:1 - ext4 /dev/sda1 rw",
			wantRoot:       "/",
			wantMountpoint: "/",
			wantOk:         true,
		},
		{
			name:           "escaped space in mountpoint",
			line:           `513 29 8:1 /persist/docs /home/user/My\040Documents rw - ext4 /dev/sda1 rw`,
			wantRoot:       "/persist/docs",
			wantMountpoint: "/home/user/My Documents",
			wantOk:         true,
		},
		{
			name:   "truncated line",
			line:   "512 29 8:1 /persist",
			wantOk: false,
		},
		{
			name:   "empty line",
			line:   "",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := parseMountInfoLine(tt.line)
			require.Equal(t, tt.wantOk, ok)
			if !tt.wantOk {
				return
			}
			assert.Equal(t, tt.wantRoot, record.root)
			assert.Equal(t, tt.wantMountpoint, record.mountpoint)
		})
	}
}

func TestUnescapeMountPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/var/lib/data", "/var/lib/data"},
		{`/home/user/My\040Documents`, "/home/user/My Documents"},
		{`/tmp/tab\011here`, "/tmp/tab\there"},
		{`/odd\134slash`, `/odd\slash`},
		{`/trailing\04`, `/trailing\04`},
		{`/not\999octal`, `/not\999octal`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, unescapeMountPath(tt.in), "input %q", tt.in)
	}
}
