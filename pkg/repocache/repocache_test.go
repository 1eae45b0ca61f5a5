// pkg/repocache/repocache_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None (temporary sqlite database)
// PURPOSE: Test repodata ingestion and record queries against the cache DB

package repocache_test

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/gonda/pkg/repocache"
	"github.com/arthur-debert/gonda/pkg/types"
)

const sampleRepodata = `{
  "info": {"subdir": "linux-64"},
  "packages": {
    "app-1.0-0.tar.bz2": {
      "name": "app",
      "version": "1.0",
      "build": "0",
      "build_number": 0,
      "depends": ["lib >=1.0"]
    },
    "lib-1.0-0.tar.bz2": {
      "name": "lib",
      "version": "1.0",
      "build": "0",
      "build_number": 0
    }
  },
  "packages.conda": {
    "app-2.0-0.conda": {
      "name": "app",
      "version": "2.0",
      "build": "0",
      "build_number": 0,
      "depends": ["lib >=2.0"]
    }
  }
}`

func openCache(t *testing.T) *repocache.Cache {
	t.Helper()
	cache, err := repocache.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestLoadRepodataAndQuery(t *testing.T) {
	cache := openCache(t)
	require.NoError(t, cache.LoadRepodata("conda-forge", []byte(sampleRepodata)))

	count, err := cache.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	apps, err := cache.RecordsByName("app")
	require.NoError(t, err)
	require.Len(t, apps, 2)

	versions := []string{apps[0].Version.String(), apps[1].Version.String()}
	sort.Strings(versions)
	assert.Equal(t, []string{"1.0", "2.0"}, versions)

	for _, rec := range apps {
		assert.Equal(t, "conda-forge", rec.Channel)
		assert.Equal(t, "linux-64", rec.Subdir)
	}

	missing, err := cache.RecordsByName("nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestReingestReplaces(t *testing.T) {
	cache := openCache(t)
	require.NoError(t, cache.LoadRepodata("conda-forge", []byte(sampleRepodata)))
	require.NoError(t, cache.LoadRepodata("conda-forge", []byte(sampleRepodata)))

	count, err := cache.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, count, "re-ingesting the same snapshot must not duplicate records")
}

func TestAllRecords(t *testing.T) {
	cache := openCache(t)
	require.NoError(t, cache.LoadRepodata("conda-forge", []byte(sampleRepodata)))

	all, err := cache.AllRecords()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecordSourceInterface(t *testing.T) {
	var _ types.RecordSource = openCache(t)
}

func TestBadRepodata(t *testing.T) {
	cache := openCache(t)
	assert.Error(t, cache.LoadRepodata("conda-forge", []byte("{not json")))
	assert.Error(t, cache.LoadRepodata("conda-forge", []byte(`{"packages": {"x-1.0-0.tar.bz2": {"version": "1.0"}}}`)))
}
