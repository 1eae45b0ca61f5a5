// pkg/link/registry_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test clobber registry ownership, conflicts, and concurrent claims

package link_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/gonda/pkg/link"
)

func TestClaimFirstOwner(t *testing.T) {
	r := link.NewClobberRegistry()

	prev, clobbered := r.Claim("bin/tool", "a")
	assert.Empty(t, prev)
	assert.False(t, clobbered)

	owner, ok := r.Owner("bin/tool")
	require.True(t, ok)
	assert.Equal(t, "a", owner)
	assert.Empty(t, r.Conflicts())
}

func TestClaimSamePackageIsIdempotent(t *testing.T) {
	r := link.NewClobberRegistry()
	r.Claim("bin/tool", "a")

	prev, clobbered := r.Claim("bin/tool", "a")
	assert.Empty(t, prev)
	assert.False(t, clobbered)
	assert.Empty(t, r.Conflicts())
}

func TestClaimLastWins(t *testing.T) {
	r := link.NewClobberRegistry()
	r.Claim("bin/tool", "a")

	prev, clobbered := r.Claim("bin/tool", "b")
	assert.Equal(t, "a", prev)
	assert.True(t, clobbered)

	prev, clobbered = r.Claim("bin/tool", "c")
	assert.Equal(t, "b", prev)
	assert.True(t, clobbered)

	owner, _ := r.Owner("bin/tool")
	assert.Equal(t, "c", owner)

	conflicts := r.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "c", conflicts[0].Winner)
	assert.Equal(t, []string{"a", "b"}, conflicts[0].Superseded)
}

func TestConflictsSortedByPath(t *testing.T) {
	r := link.NewClobberRegistry()
	for _, path := range []string{"z/file", "a/file", "m/file"} {
		r.Claim(path, "first")
		r.Claim(path, "second")
	}

	conflicts := r.Conflicts()
	require.Len(t, conflicts, 3)
	assert.Equal(t, "a/file", conflicts[0].Path)
	assert.Equal(t, "m/file", conflicts[1].Path)
	assert.Equal(t, "z/file", conflicts[2].Path)
}

func TestConcurrentClaimsDistinctPaths(t *testing.T) {
	r := link.NewClobberRegistry()

	const workers = 16
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				path := fmt.Sprintf("pkg%d/file%d", w, i)
				_, clobbered := r.Claim(path, fmt.Sprintf("pkg%d", w))
				assert.False(t, clobbered)
			}
		}(w)
	}
	wg.Wait()

	assert.Empty(t, r.Conflicts())
	owner, ok := r.Owner("pkg3/file42")
	require.True(t, ok)
	assert.Equal(t, "pkg3", owner)
}

func TestConcurrentClaimsSamePath(t *testing.T) {
	r := link.NewClobberRegistry()

	const workers = 8
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			r.Claim("shared/file", fmt.Sprintf("pkg%d", w))
		}(w)
	}
	wg.Wait()

	// One winner, everyone else recorded as superseded.
	conflicts := r.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Len(t, conflicts[0].Superseded, workers-1)

	owner, ok := r.Owner("shared/file")
	require.True(t, ok)
	assert.NotContains(t, conflicts[0].Superseded, owner)
}
