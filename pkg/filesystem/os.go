package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/arthur-debert/gonda/pkg/types"
)

// osFS implements types.FS using the OS filesystem
type osFS struct{}

// NewOS creates a new OS filesystem implementation
func NewOS() types.FS {
	return &osFS{}
}

func (o *osFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (o *osFS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

func (o *osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (o *osFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (o *osFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (o *osFS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (o *osFS) Remove(name string) error {
	return os.Remove(name)
}

func (o *osFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (o *osFS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (o *osFS) Hardlink(oldname, newname string) error {
	return os.Link(oldname, newname)
}

func (o *osFS) Reflink(src, dst string) error {
	return reflink(src, dst)
}

// SupportsHardlink probes whether src and dst live on the same device, the
// precondition for a hard link.
func (o *osFS) SupportsHardlink(src, dst string) bool {
	return sameDevice(src, dst)
}

// SupportsReflink probes whether the platform and filesystem pair can clone
// file extents.
func (o *osFS) SupportsReflink(src, dst string) bool {
	return reflinkSupported() && sameDevice(src, dst)
}

// sameDevice compares the device IDs of src and dst's parent directory.
// dst usually does not exist yet, so its directory stands in for it.
func sameDevice(src, dst string) bool {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false
	}
	dstInfo, err := os.Stat(filepath.Dir(dst))
	if err != nil {
		return false
	}
	srcSys, ok := srcInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	dstSys, ok := dstInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return srcSys.Dev == dstSys.Dev
}
