// Package plan diffs the installed state of a prefix against a solver
// solution, producing the ordered transaction the linker executes.
//
// The planner only orders, it never touches the filesystem.
package plan

import (
	"sort"

	"github.com/google/uuid"

	"github.com/arthur-debert/gonda/pkg/logging"
	"github.com/arthur-debert/gonda/pkg/types"
)

// NewTransactionID mints an identifier for a transaction built outside the
// planner, such as a bare removal.
func NewTransactionID() string {
	return uuid.NewString()
}

// Plan computes the operations moving a prefix from installed to solution.
// Packages present in both with identical record identity are omitted.
//
// Removals are listed first, then changes, then installs; the executor
// additionally runs every removal, including the remove half of each
// change, before any install, so a stale file can never clobber a fresh
// one. Within each class operations are ordered by package name, which
// makes planning deterministic for identical inputs.
func Plan(installed *types.InstalledState, solution *types.Solution) *types.Transaction {
	logger := logging.GetLogger("plan")

	var removes, changes, installs []types.Operation

	for _, name := range installed.Names() {
		old := installed.Get(name)
		next := solution.Get(name)
		switch {
		case next == nil:
			removes = append(removes, types.Operation{
				Type: types.OperationRemove,
				Name: name,
				Old:  old,
			})
		case !old.SameRecord(next):
			changes = append(changes, types.Operation{
				Type: types.OperationChange,
				Name: name,
				Old:  old,
				New:  next,
			})
		}
	}

	for _, name := range solution.Names() {
		if installed.Get(name) == nil {
			installs = append(installs, types.Operation{
				Type: types.OperationInstall,
				Name: name,
				New:  solution.Get(name),
			})
		}
	}

	byName := func(ops []types.Operation) {
		sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	}
	byName(removes)
	byName(changes)
	byName(installs)

	ops := make([]types.Operation, 0, len(removes)+len(changes)+len(installs))
	ops = append(ops, removes...)
	ops = append(ops, changes...)
	ops = append(ops, installs...)

	txn := &types.Transaction{
		ID:         NewTransactionID(),
		Operations: ops,
	}

	r, i, c := len(removes), len(installs), len(changes)
	logger.Debug().
		Str("transaction", txn.ID).
		Int("removes", r).
		Int("installs", i).
		Int("changes", c).
		Msg("Transaction planned")

	return txn
}
