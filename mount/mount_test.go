package mount

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMountPointRoot(t *testing.T) {
	mounted, err := IsMountPoint("/")
	require.NoError(t, err)
	require.True(t, mounted)
}

func TestIsMountPointPlainDirectory(t *testing.T) {
	dir := t.TempDir()

	mounted, err := IsMountPoint(dir)
	require.NoError(t, err)
	require.False(t, mounted)
}

func TestIsMountPointMissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	mounted, err := IsMountPoint(missing)
	require.NoError(t, err)
	require.False(t, mounted)
}
