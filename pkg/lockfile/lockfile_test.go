// pkg/lockfile/lockfile_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None (in-memory filesystem)
// PURPOSE: Test lock file round-tripping and validation

package lockfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/filesystem"
	"github.com/arthur-debert/gonda/pkg/lockfile"
	"github.com/arthur-debert/gonda/pkg/types"
	"github.com/arthur-debert/gonda/pkg/version"
)

func sampleSolution() *types.Solution {
	return types.NewSolution(map[string]*types.PackageRecord{
		"app": {
			Name:        "app",
			Version:     version.MustParse("2.0"),
			Build:       "py311_0",
			BuildNumber: 0,
			Channel:     "conda-forge",
			Subdir:      "linux-64",
			Depends:     []string{"lib >=1.0,<2.0"},
			SHA256:      "abc123",
			Size:        2048,
		},
		"lib": {
			Name:    "lib",
			Version: version.MustParse("1.5"),
			Build:   "0",
			Channel: "conda-forge",
		},
	})
}

func TestRoundTrip(t *testing.T) {
	data, err := lockfile.Marshal(sampleSolution())
	require.NoError(t, err)

	got, err := lockfile.Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, []string{"app", "lib"}, got.Names())

	app := got.Get("app")
	assert.Equal(t, "2.0", app.Version.String())
	assert.Equal(t, "py311_0", app.Build)
	assert.Equal(t, "conda-forge", app.Channel)
	assert.Equal(t, []string{"lib >=1.0,<2.0"}, app.Depends)
	assert.Equal(t, "abc123", app.SHA256)
	assert.Equal(t, int64(2048), app.Size)
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := lockfile.Marshal(sampleSolution())
	require.NoError(t, err)
	second, err := lockfile.Marshal(sampleSolution())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWriteRead(t *testing.T) {
	fsys := filesystem.NewMemory()
	require.NoError(t, lockfile.Write(fsys, "/env/gonda.lock", sampleSolution()))

	got, err := lockfile.Read(fsys, "/env/gonda.lock")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestUnsupportedVersion(t *testing.T) {
	_, err := lockfile.Unmarshal([]byte("version: 99\npackages: []\n"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrLockfile, errors.GetErrorCode(err))
}

func TestDuplicatePackage(t *testing.T) {
	doc := `version: 1
packages:
  - name: app
    version: "1.0"
    build: "0"
  - name: app
    version: "2.0"
    build: "0"
`
	_, err := lockfile.Unmarshal([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestMissingName(t *testing.T) {
	doc := `version: 1
packages:
  - version: "1.0"
    build: "0"
`
	_, err := lockfile.Unmarshal([]byte(doc))
	require.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := lockfile.Read(filesystem.NewMemory(), "/nope.lock")
	require.Error(t, err)
	assert.Equal(t, errors.ErrLockfile, errors.GetErrorCode(err))
}
