// pkg/plan/plan_test.go
// TEST TYPE: Unit Test
// DEPENDENCIES: None
// PURPOSE: Test transaction planning: diffing, ordering, and completeness

package plan_test

import (
	"testing"

	"github.com/arthur-debert/gonda/pkg/plan"
	"github.com/arthur-debert/gonda/pkg/types"
	"github.com/arthur-debert/gonda/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(name, ver, build string) *types.PackageRecord {
	return &types.PackageRecord{
		Name:    name,
		Version: version.MustParse(ver),
		Build:   build,
	}
}

func installed(records ...*types.PackageRecord) *types.InstalledState {
	state := types.NewInstalledState()
	for _, r := range records {
		state.Set(&types.PrefixRecord{PackageRecord: *r})
	}
	return state
}

func solution(records ...*types.PackageRecord) *types.Solution {
	m := make(map[string]*types.PackageRecord)
	for _, r := range records {
		m[r.Name] = r
	}
	return types.NewSolution(m)
}

func TestPlanDiff(t *testing.T) {
	txn := plan.Plan(
		installed(rec("gone", "1.0", "0"), rec("kept", "1.0", "0"), rec("bumped", "1.0", "0")),
		solution(rec("kept", "1.0", "0"), rec("bumped", "2.0", "0"), rec("fresh", "1.0", "0")),
	)

	require.Len(t, txn.Operations, 3)
	assert.NotEmpty(t, txn.ID)

	removes, installs, changes := txn.Counts()
	assert.Equal(t, 1, removes)
	assert.Equal(t, 1, installs)
	assert.Equal(t, 1, changes)

	// Removals sort before changes, changes before installs.
	assert.Equal(t, types.OperationRemove, txn.Operations[0].Type)
	assert.Equal(t, "gone", txn.Operations[0].Name)
	assert.Equal(t, types.OperationChange, txn.Operations[1].Type)
	assert.Equal(t, "bumped", txn.Operations[1].Name)
	assert.Equal(t, types.OperationInstall, txn.Operations[2].Type)
	assert.Equal(t, "fresh", txn.Operations[2].Name)
}

func TestPlanCompleteness(t *testing.T) {
	// The operation targets must cover exactly the symmetric difference
	// plus changed names, each name appearing once.
	inst := installed(rec("a", "1.0", "0"), rec("b", "1.0", "0"), rec("c", "1.0", "0"))
	sol := solution(rec("b", "1.0", "0"), rec("c", "2.0", "0"), rec("d", "1.0", "0"))

	txn := plan.Plan(inst, sol)

	seen := make(map[string]int)
	for _, op := range txn.Operations {
		seen[op.Name]++
	}
	assert.Equal(t, map[string]int{"a": 1, "c": 1, "d": 1}, seen)
}

func TestPlanNoop(t *testing.T) {
	same := rec("a", "1.0", "0")
	txn := plan.Plan(installed(same), solution(same))
	assert.True(t, txn.Empty())
	assert.Equal(t, "nothing to do", plan.Summary(txn))
}

func TestPlanBuildChangeIsChange(t *testing.T) {
	txn := plan.Plan(
		installed(rec("a", "1.0", "py37_0")),
		solution(rec("a", "1.0", "py37_1")),
	)
	require.Len(t, txn.Operations, 1)
	assert.Equal(t, types.OperationChange, txn.Operations[0].Type)
}

func TestSummary(t *testing.T) {
	fresh := rec("fresh", "1.0", "0")
	fresh.Size = 2 << 20
	txn := plan.Plan(installed(rec("gone", "1.0", "0")), solution(fresh))

	out := plan.Summary(txn)
	assert.Contains(t, out, "remove   gone=1.0=0")
	assert.Contains(t, out, "install  fresh=1.0=0")
	assert.Contains(t, out, "MB")
}
