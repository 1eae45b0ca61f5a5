// Package commands implements the operations the CLI exposes: solving,
// planning, installing, removing and listing. The CLI layer stays thin;
// everything testable lives here.
package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/arthur-debert/gonda/pkg/config"
	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/link"
	"github.com/arthur-debert/gonda/pkg/lockfile"
	"github.com/arthur-debert/gonda/pkg/matchspec"
	"github.com/arthur-debert/gonda/pkg/plan"
	"github.com/arthur-debert/gonda/pkg/pool"
	"github.com/arthur-debert/gonda/pkg/prefix"
	"github.com/arthur-debert/gonda/pkg/solver"
	"github.com/arthur-debert/gonda/pkg/types"
)

// Env carries everything a command needs. Tests build one over the
// in-memory filesystem and a fixture record source.
type Env struct {
	Config *config.Config
	FS     types.FS
	Source types.RecordSource

	// Prefix is the environment root the command operates on.
	Prefix string
}

// ParseSpecs parses the command-line spec arguments.
func ParseSpecs(args []string) ([]matchspec.MatchSpec, error) {
	if len(args) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no package specs given")
	}
	specs := make([]matchspec.MatchSpec, 0, len(args))
	for _, arg := range args {
		spec, err := matchspec.Parse(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Solve resolves the given specs against the record source. The prefix is
// not consulted: the spec list fully describes the target environment.
func Solve(ctx context.Context, env *Env, specArgs []string) (*types.Solution, error) {
	specs, err := ParseSpecs(specArgs)
	if err != nil {
		return nil, err
	}

	p, err := pool.FromSource(env.Source)
	if err != nil {
		return nil, err
	}

	s := solver.New(p, solver.Options{Timeout: env.Config.Solver.Timeout()})
	return s.Solve(ctx, specs)
}

// PlanTransaction solves the specs and diffs the result against the
// prefix's installed state, without touching the prefix.
func PlanTransaction(ctx context.Context, env *Env, specArgs []string) (*types.Transaction, error) {
	solution, err := Solve(ctx, env, specArgs)
	if err != nil {
		return nil, err
	}
	return planAgainstPrefix(env, solution)
}

// Install solves the specs and applies the resulting transaction to the
// prefix.
func Install(ctx context.Context, env *Env, specArgs []string) (*link.Result, error) {
	specs, err := ParseSpecs(specArgs)
	if err != nil {
		return nil, err
	}
	solution, err := Solve(ctx, env, specArgs)
	if err != nil {
		return nil, err
	}
	return apply(ctx, env, solution, requestedByName(specs))
}

// InstallLocked applies a previously written lock file to the prefix,
// skipping the solver entirely.
func InstallLocked(ctx context.Context, env *Env, lockPath string) (*link.Result, error) {
	solution, err := lockfile.Read(env.FS, lockPath)
	if err != nil {
		return nil, err
	}
	return apply(ctx, env, solution, nil)
}

// Remove deletes the named packages from the prefix. An unknown name is an
// error before anything is touched.
func Remove(ctx context.Context, env *Env, names []string) (*link.Result, error) {
	if len(names) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no package names given")
	}

	store := prefix.NewStore(env.FS, env.Prefix)
	state, err := store.Load()
	if err != nil {
		return nil, err
	}

	txn := &types.Transaction{ID: plan.NewTransactionID()}
	for _, name := range names {
		rec := state.Get(name)
		if rec == nil {
			return nil, errors.Newf(errors.ErrNotFound, "package %s is not installed", name)
		}
		txn.Operations = append(txn.Operations, types.Operation{
			Type: types.OperationRemove,
			Name: name,
			Old:  rec,
		})
	}

	return execute(ctx, env, store, state, txn, nil)
}

// List returns the installed records ordered by name.
func List(env *Env) ([]*types.PrefixRecord, error) {
	state, err := prefix.NewStore(env.FS, env.Prefix).Load()
	if err != nil {
		return nil, err
	}
	out := make([]*types.PrefixRecord, 0, state.Len())
	for _, name := range state.Names() {
		out = append(out, state.Get(name))
	}
	return out, nil
}

func planAgainstPrefix(env *Env, solution *types.Solution) (*types.Transaction, error) {
	state, err := prefix.NewStore(env.FS, env.Prefix).Load()
	if err != nil {
		return nil, err
	}
	return plan.Plan(state, solution), nil
}

func apply(ctx context.Context, env *Env, solution *types.Solution, requested map[string]string) (*link.Result, error) {
	store := prefix.NewStore(env.FS, env.Prefix)
	state, err := store.Load()
	if err != nil {
		return nil, err
	}
	txn := plan.Plan(state, solution)
	return execute(ctx, env, store, state, txn, requested)
}

func execute(ctx context.Context, env *Env, store *prefix.Store, state *types.InstalledState, txn *types.Transaction, requested map[string]string) (*link.Result, error) {
	linker := link.NewLinker(env.FS, env.Prefix, env.Config.Link.Concurrency)
	resolver := &cacheResolver{fs: env.FS, base: env.Config.Cache.PackagesDir()}
	exec := link.NewExecutor(linker, store, resolver, state)
	exec.RequestedSpecs = requested
	return exec.Execute(ctx, txn)
}

func requestedByName(specs []matchspec.MatchSpec) map[string]string {
	out := make(map[string]string, len(specs))
	for _, spec := range specs {
		out[spec.Name] = spec.String()
	}
	return out
}

// cacheResolver locates extracted package contents in the package cache,
// laid out as <base>/<name>-<version>-<build>/.
type cacheResolver struct {
	fs   types.FS
	base string
}

func (r *cacheResolver) SourceDir(rec *types.PackageRecord) (string, error) {
	dir := filepath.Join(r.base, fmt.Sprintf("%s-%s-%s", rec.Name, rec.Version.String(), rec.Build))
	if _, err := r.fs.Stat(dir); err != nil {
		return "", errors.Newf(errors.ErrRecordSource,
			"package %s is not extracted in the cache (%s)", rec.Identity(), dir)
	}
	return dir, nil
}
