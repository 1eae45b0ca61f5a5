package types

import "io/fs"

// FS abstracts the filesystem operations the engine performs, so tests can
// run against an in-memory filesystem and the linker can probe capabilities
// instead of fault-driving through failed syscalls.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error

	// Link placement primitives. Hardlink and Reflink return an error when
	// the filesystem pair cannot support the operation; the capability
	// probes let the linker short-circuit the fallback chain instead.
	Hardlink(oldname, newname string) error
	Reflink(src, dst string) error
	SupportsHardlink(src, dst string) bool
	SupportsReflink(src, dst string) bool
}

// RecordSource produces package records for the solver's pool. The repodata
// gateway is one implementation; the engine does not care how records were
// fetched, cached or verified.
type RecordSource interface {
	// RecordsByName returns every known record for the given package name.
	RecordsByName(name string) ([]*PackageRecord, error)

	// AllRecords returns every known record.
	AllRecords() ([]*PackageRecord, error)
}
