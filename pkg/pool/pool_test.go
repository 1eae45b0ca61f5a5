// pkg/pool/pool_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test candidate indexing and preference ordering

package pool_test

import (
	"testing"

	"github.com/arthur-debert/gonda/pkg/matchspec"
	"github.com/arthur-debert/gonda/pkg/pool"
	"github.com/arthur-debert/gonda/pkg/types"
	"github.com/arthur-debert/gonda/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(name, ver string, buildNumber uint64, features ...string) *types.PackageRecord {
	return &types.PackageRecord{
		Name:          name,
		Version:       version.MustParse(ver),
		Build:         "0",
		BuildNumber:   buildNumber,
		TrackFeatures: features,
	}
}

func TestPreferenceOrder(t *testing.T) {
	p := pool.New()
	tracked := rec("foo", "2.1", 0, "feature")
	older := rec("foo", "1.0", 0)
	newer := rec("foo", "2.0", 0)
	rebuilt := rec("foo", "2.0", 3)
	p.AddAll([]*types.PackageRecord{tracked, older, newer, rebuilt})

	got := p.Candidates("foo")
	require.Len(t, got, 4)

	// Highest version and build number first; the tracked 2.1 sorts last
	// even though its version is highest.
	assert.Same(t, rebuilt, got[0])
	assert.Same(t, newer, got[1])
	assert.Same(t, older, got[2])
	assert.Same(t, tracked, got[3])
}

func TestRegistrationOrderTieBreak(t *testing.T) {
	p := pool.New()
	first := rec("foo", "1.0", 0)
	second := rec("foo", "1.0", 0)
	p.AddAll([]*types.PackageRecord{first, second})

	got := p.Candidates("foo")
	require.Len(t, got, 2)
	assert.Same(t, first, got[0])
	assert.Same(t, second, got[1])
}

func TestFindCandidates(t *testing.T) {
	p := pool.New()
	p.AddAll([]*types.PackageRecord{
		rec("foo", "1.0", 0),
		rec("foo", "1.5", 0),
		rec("foo", "2.0", 0),
		rec("bar", "1.5", 0),
	})

	got := p.FindCandidates(matchspec.MustParse("foo >=1.0,<2.0"))
	require.Len(t, got, 2)
	assert.Equal(t, "1.5", got[0].Version.String())
	assert.Equal(t, "1.0", got[1].Version.String())

	assert.Empty(t, p.FindCandidates(matchspec.MustParse("baz")))
}

func TestNameOrder(t *testing.T) {
	p := pool.New()
	p.Add(rec("foo", "1.0", 0))
	p.Add(rec("bar", "1.0", 0))
	p.Add(rec("foo", "2.0", 0))

	assert.Equal(t, 0, p.NameOrder("foo"))
	assert.Equal(t, 1, p.NameOrder("bar"))
	assert.Equal(t, 2, p.NameOrder("unknown"))
	assert.Equal(t, []string{"foo", "bar"}, p.Names())
}
