// pkg/matchspec/matchspec_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test match spec parsing and record matching

package matchspec_test

import (
	"testing"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/matchspec"
	"github.com/arthur-debert/gonda/pkg/types"
	"github.com/arthur-debert/gonda/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name, ver, build string) *types.PackageRecord {
	return &types.PackageRecord{
		Name:    name,
		Version: version.MustParse(ver),
		Build:   build,
	}
}

func TestParseNameOnly(t *testing.T) {
	spec, err := matchspec.Parse("foo")
	require.NoError(t, err)
	assert.Equal(t, "foo", spec.Name)
	assert.True(t, spec.Version.IsAny())
	assert.Empty(t, spec.Build)
}

func TestParseChannel(t *testing.T) {
	spec, err := matchspec.Parse("conda-forge::foo >=1.2")
	require.NoError(t, err)
	assert.Equal(t, "conda-forge", spec.Channel)
	assert.Equal(t, "foo", spec.Name)

	spec, err = matchspec.Parse("conda-forge/linux-64::foo")
	require.NoError(t, err)
	assert.Equal(t, "conda-forge", spec.Channel)
	assert.Equal(t, "linux-64", spec.Subdir)
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "   ", ">=1.0", "foo$bar", "foo ==", "foo >=1.0,|2"} {
		_, err := matchspec.Parse(input)
		require.Error(t, err, "input %q should not parse", input)
		assert.True(t, errors.IsParseError(err))
	}
}

func TestVersionRanges(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"foo >=1.2,<2.0", "1.5", true},
		{"foo >=1.2,<2.0", "2.0", false},
		{"foo >=1.2,<2.0", "1.1", false},
		{"foo ==1.0", "1.0.0", true},
		{"foo !=1.0", "1.0", false},
		{"foo ~=1.5", "1.6", true},
		{"foo ~=1.5", "2.0", false},
		{"foo 1.2.*", "1.2.3", true},
		{"foo 1.2.*", "1.23", false},
		{"foo=1.2", "1.2.9", true},
		{"foo=1.2", "1.3", false},
		{"foo ==1.0|>=2.0", "1.0", true},
		{"foo ==1.0|>=2.0", "2.5", true},
		{"foo ==1.0|>=2.0", "1.5", false},
		{"foo", "0.0.1", true},
		{"foo >1.0", "1.0", false},
		{"foo <=1.0", "1.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+tt.version, func(t *testing.T) {
			spec := matchspec.MustParse(tt.spec)
			got := spec.Matches(record("foo", tt.version, "0"))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildGlob(t *testing.T) {
	spec := matchspec.MustParse("foo 1.2 py37*")
	assert.True(t, spec.Matches(record("foo", "1.2", "py37_0")))
	assert.False(t, spec.Matches(record("foo", "1.2", "py38_0")))

	spec = matchspec.MustParse("foo=1.2=py37_0")
	assert.True(t, spec.Matches(record("foo", "1.2.1", "py37_0")))
	assert.False(t, spec.Matches(record("foo", "1.2.1", "py37_1")))
}

func TestNameMismatch(t *testing.T) {
	spec := matchspec.MustParse("foo >=1.0")
	assert.False(t, spec.Matches(record("bar", "1.5", "0")))
	assert.False(t, spec.Matches(nil))
}

func TestChannelRestriction(t *testing.T) {
	spec := matchspec.MustParse("conda-forge::foo")
	rec := record("foo", "1.0", "0")
	assert.False(t, spec.Matches(rec))
	rec.Channel = "conda-forge"
	assert.True(t, spec.Matches(rec))
}

func TestIsExact(t *testing.T) {
	assert.True(t, matchspec.MustParse("foo ==1.0 py37_0").IsExact())
	assert.False(t, matchspec.MustParse("foo ==1.0").IsExact())
	assert.False(t, matchspec.MustParse("foo ==1.0 py37*").IsExact())
	assert.False(t, matchspec.MustParse("foo >=1.0 py37_0").IsExact())
}
