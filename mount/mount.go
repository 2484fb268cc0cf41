package mount

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// IsMountPoint reports whether path is the root of an active mount. A path
// counts as a mount point when its device differs from its parent directory,
// or when it is its own parent (the filesystem root). Missing paths and
// symlinks are not mount points.
func IsMountPoint(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		if err == unix.ENOENT || err == unix.ENOTDIR {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}

	if st.Mode&unix.S_IFMT == unix.S_IFLNK {
		return false, nil
	}

	parent := filepath.Join(path, "..")
	var parentSt unix.Stat_t
	if err := unix.Lstat(parent, &parentSt); err != nil {
		return false, fmt.Errorf("stat %s: %w", parent, err)
	}

	if st.Dev != parentSt.Dev {
		return true, nil
	}
	return st.Ino == parentSt.Ino, nil
}
