package link

import (
	"context"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/logging"
	"github.com/arthur-debert/gonda/pkg/types"
)

// Store persists prefix records as operations complete, so a crash mid
// transaction leaves the prefix describing exactly the operations that were
// applied.
type Store interface {
	// Write inserts or replaces the prefix record for its package name.
	Write(rec *types.PrefixRecord) error

	// Delete removes the prefix record for name.
	Delete(name string) error
}

// SourceResolver locates the extracted package contents for a record, for
// example in a package cache.
type SourceResolver interface {
	SourceDir(rec *types.PackageRecord) (string, error)
}

// Result summarizes one executed transaction.
type Result struct {
	TransactionID string

	// Removed, Installed and Changed list the affected package names in the
	// order their operations ran.
	Removed   []string
	Installed []string
	Changed   []string

	// Conflicts lists every path clobbered during the transaction, ordered
	// by path.
	Conflicts []Conflict
}

// Executor applies a planned transaction to a prefix. Every removal runs
// before any install, including the two halves of a change, so one
// operation's removal can never delete a file another operation already
// placed. Within an operation the linker places files concurrently.
type Executor struct {
	linker  *Linker
	store   Store
	sources SourceResolver
	state   *types.InstalledState

	// RequestedSpecs maps package names to the root spec that asked for
	// them, recorded on their prefix records. Optional.
	RequestedSpecs map[string]string
}

// NewExecutor creates an executor over the given linker, record store,
// source resolver and installed state. The state is mutated as operations
// complete so it always mirrors what the store holds.
func NewExecutor(linker *Linker, store Store, sources SourceResolver, state *types.InstalledState) *Executor {
	return &Executor{
		linker:  linker,
		store:   store,
		sources: sources,
		state:   state,
	}
}

// Execute applies txn in two phases: removals first, then installs, each
// phase in transaction order. The first failure aborts the remaining
// operations; already-applied operations stay applied and persisted.
// Cancellation between operations returns a CANCELLED error the same way.
func (e *Executor) Execute(ctx context.Context, txn *types.Transaction) (*Result, error) {
	logger := logging.GetLogger("link")
	removes, installs, changes := txn.Counts()
	logger.Info().
		Str("transaction", txn.ID).
		Int("removes", removes).
		Int("installs", installs).
		Int("changes", changes).
		Msg("executing transaction")

	result := &Result{TransactionID: txn.ID}
	var sweep []string

	// Removal phase: plain removes plus the remove half of every change.
	// A path handed from one package's old version to another package's
	// new version must be gone before any install touches it.
	for _, op := range txn.Operations {
		if op.Type == types.OperationInstall {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, errors.Wrapf(err, errors.ErrCancelled,
				"transaction %s interrupted before removing %s", txn.ID, op.Name)
		}
		dirs, err := e.removeOne(ctx, op.Old)
		if err != nil {
			return result, err
		}
		sweep = append(sweep, dirs...)
		if op.Type == types.OperationRemove {
			result.Removed = append(result.Removed, op.Name)
		}
	}

	// Install phase: plain installs plus the install half of every change.
	for _, op := range txn.Operations {
		if op.Type == types.OperationRemove {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, errors.Wrapf(err, errors.ErrCancelled,
				"transaction %s interrupted before installing %s", txn.ID, op.Name)
		}
		if err := e.installOne(ctx, op.New, txn.ID); err != nil {
			return result, err
		}
		if op.Type == types.OperationInstall {
			result.Installed = append(result.Installed, op.Name)
		} else {
			result.Changed = append(result.Changed, op.Name)
		}
	}

	result.Conflicts = e.linker.Registry().Conflicts()
	if err := e.recordClobbers(result.Conflicts); err != nil {
		return result, err
	}

	e.linker.SweepEmptyDirs(sweep)

	logger.Info().
		Str("transaction", txn.ID).
		Int("conflicts", len(result.Conflicts)).
		Msg("transaction complete")
	return result, nil
}

func (e *Executor) removeOne(ctx context.Context, rec *types.PrefixRecord) ([]string, error) {
	dirs, err := e.linker.Remove(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := e.store.Delete(rec.Name); err != nil {
		return nil, err
	}
	e.state.Delete(rec.Name)
	return dirs, nil
}

func (e *Executor) installOne(ctx context.Context, rec *types.PackageRecord, txnID string) error {
	sourceDir, err := e.sources.SourceDir(rec)
	if err != nil {
		return errors.Wrapf(err, errors.ErrRecordSource,
			"locating package contents for %s", rec.Identity())
	}

	placed, err := e.linker.Install(ctx, rec, sourceDir)
	if err != nil {
		return err
	}

	prefRec := &types.PrefixRecord{
		PackageRecord: *rec,
		Files:         placed,
		RequestedSpec: e.RequestedSpecs[rec.Name],
		TransactionID: txnID,
	}
	if err := e.store.Write(prefRec); err != nil {
		return err
	}
	e.state.Set(prefRec)
	return nil
}

// recordClobbers marks each superseded package's placed files so their
// eventual removal leaves the winner's file alone, and re-persists the
// touched records.
func (e *Executor) recordClobbers(conflicts []Conflict) error {
	logger := logging.GetLogger("link")
	touched := make(map[string]*types.PrefixRecord)

	for _, conflict := range conflicts {
		logger.Warn().
			Str("path", conflict.Path).
			Str("winner", conflict.Winner).
			Strs("superseded", conflict.Superseded).
			Msg("path clobbered")

		for _, loser := range conflict.Superseded {
			rec := e.state.Get(loser)
			if rec == nil {
				continue
			}
			for i := range rec.Files {
				if rec.Files[i].RelPath == conflict.Path {
					rec.Files[i].ClobberedBy = conflict.Winner
				}
			}
			touched[loser] = rec
		}
	}

	for _, rec := range touched {
		if err := e.store.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
