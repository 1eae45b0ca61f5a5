// pkg/prefix/prefix_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None (in-memory filesystem)
// PURPOSE: Test conda-meta record persistence and installed-state loading

package prefix_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/filesystem"
	"github.com/arthur-debert/gonda/pkg/prefix"
	"github.com/arthur-debert/gonda/pkg/types"
	"github.com/arthur-debert/gonda/pkg/version"
)

const testPrefix = "/opt/envs/test"

func makeRecord(name, ver, build string) *types.PrefixRecord {
	return &types.PrefixRecord{
		PackageRecord: types.PackageRecord{
			Name:    name,
			Version: version.MustParse(ver),
			Build:   build,
		},
		Files: []types.PlacedFile{
			{RelPath: "bin/" + name},
		},
		TransactionID: "txn-1",
	}
}

func TestWriteLoadRoundTrip(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := prefix.NewStore(fsys, testPrefix)

	require.NoError(t, store.Write(makeRecord("python", "3.11.4", "h123_0")))
	require.NoError(t, store.Write(makeRecord("numpy", "1.26.0", "py311_0")))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"numpy", "python"}, state.Names())

	py := state.Get("python")
	require.NotNil(t, py)
	assert.Equal(t, "3.11.4", py.Version.String())
	assert.Equal(t, "h123_0", py.Build)
	assert.Equal(t, "txn-1", py.TransactionID)
	require.Len(t, py.Files, 1)
	assert.Equal(t, "bin/python", py.Files[0].RelPath)
}

func TestLoadEmptyPrefix(t *testing.T) {
	store := prefix.NewStore(filesystem.NewMemory(), testPrefix)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Len())
}

func TestWriteReplacesOldVersion(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := prefix.NewStore(fsys, testPrefix)

	require.NoError(t, store.Write(makeRecord("app", "1.0", "0")))
	require.NoError(t, store.Write(makeRecord("app", "2.0", "0")))

	state, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, 1, state.Len())
	assert.Equal(t, "2.0", state.Get("app").Version.String())

	// Only one record file remains.
	entries, err := fsys.ReadDir(filepath.Join(testPrefix, "conda-meta"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDelete(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := prefix.NewStore(fsys, testPrefix)

	require.NoError(t, store.Write(makeRecord("app", "1.0", "0")))
	require.NoError(t, store.Delete("app"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Len())

	// Deleting a missing package is fine.
	assert.NoError(t, store.Delete("app"))
}

func TestDashedNamesDoNotCollide(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := prefix.NewStore(fsys, testPrefix)

	require.NoError(t, store.Write(makeRecord("py", "1.0", "0")))
	require.NoError(t, store.Write(makeRecord("py-tools", "1.0", "0")))

	// "py-tools-1.0-0.json" starts with "py-" but belongs to py-tools.
	require.NoError(t, store.Delete("py"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"py-tools"}, state.Names())
}

func TestLoadIgnoresForeignFiles(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := prefix.NewStore(fsys, testPrefix)

	require.NoError(t, store.Write(makeRecord("app", "1.0", "0")))
	metaDir := filepath.Join(testPrefix, "conda-meta")
	require.NoError(t, fsys.WriteFile(filepath.Join(metaDir, "history"), []byte("=> install\n"), 0o644))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, state.Names())
}

func TestLoadCorruptRecordFails(t *testing.T) {
	fsys := filesystem.NewMemory()
	store := prefix.NewStore(fsys, testPrefix)

	metaDir := filepath.Join(testPrefix, "conda-meta")
	require.NoError(t, fsys.MkdirAll(metaDir, 0o755))
	require.NoError(t, fsys.WriteFile(filepath.Join(metaDir, "bad-1.0-0.json"), []byte("{not json"), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrPrefixRead, errors.GetErrorCode(err))
}
