// Package testutil provides shared test fixtures: record builders, an
// in-memory record source and package-cache staging over the in-memory
// filesystem. Test data is defined inline; nothing here touches the real
// filesystem.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/gonda/pkg/types"
	"github.com/arthur-debert/gonda/pkg/version"
)

// Record builds a package record with the given dependency specs. The
// version string must be valid; builders panic instead of returning errors
// to keep fixture tables compact.
func Record(name, ver, build string, depends ...string) *types.PackageRecord {
	return &types.PackageRecord{
		Name:    name,
		Version: version.MustParse(ver),
		Build:   build,
		Depends: depends,
	}
}

// SliceSource is a RecordSource over a fixed record slice.
type SliceSource struct {
	Records []*types.PackageRecord
}

// NewSliceSource wraps records in a RecordSource.
func NewSliceSource(records ...*types.PackageRecord) *SliceSource {
	return &SliceSource{Records: records}
}

func (s *SliceSource) RecordsByName(name string) ([]*types.PackageRecord, error) {
	var out []*types.PackageRecord
	for _, rec := range s.Records {
		if rec.Name == name {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *SliceSource) AllRecords() ([]*types.PackageRecord, error) {
	return s.Records, nil
}

// StagePackage writes the given files into the package cache layout under
// cacheDir and fills rec.Paths to match, so the linker can place them.
func StagePackage(t *testing.T, fsys types.FS, cacheDir string, rec *types.PackageRecord, files map[string]string) {
	t.Helper()
	dir := filepath.Join(cacheDir, rec.Name+"-"+rec.Version.String()+"-"+rec.Build)
	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	for relPath, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(relPath))
		require.NoError(t, fsys.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, fsys.WriteFile(full, []byte(content), 0o644))
		rec.Paths = append(rec.Paths, types.PathEntry{RelPath: relPath})
	}
}
