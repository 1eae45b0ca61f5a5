// Package solver turns root requirements plus a candidate pool into a
// consistent selection of exactly one record per package name.
//
// The search is a backtracking constraint solve over an explicit decision
// stack, so depth is bounded by the dependency graph and not by the native
// call stack. Conflicts learn a nogood (a minimal conflicting assignment
// subset) that prunes any branch revisiting the same inconsistency.
//
// The solve is a single synchronous computation. Independent solves may run
// in parallel against distinct pools; nothing here is shared.
package solver

import (
	"context"
	"time"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/logging"
	"github.com/arthur-debert/gonda/pkg/matchspec"
	"github.com/arthur-debert/gonda/pkg/pool"
	"github.com/arthur-debert/gonda/pkg/types"
)

// Options tunes one solver instance.
type Options struct {
	// Timeout is the wall-clock budget for one solve. Zero means no
	// budget. Exceeding it yields a TIMED_OUT error, which is distinct
	// from UNSATISFIABLE: callers must not conflate "no solution exists"
	// with "ran out of time".
	Timeout time.Duration
}

// Solver resolves match specs against a candidate pool.
type Solver struct {
	pool *pool.Pool
	opts Options
}

// New creates a solver over the given pool.
func New(p *pool.Pool, opts Options) *Solver {
	return &Solver{pool: p, opts: opts}
}

// Solve resolves the root specs into a Solution, or fails with an
// UNSATISFIABLE explanation trace, a TIMED_OUT error when the budget runs
// out, or a CANCELLED error when ctx is done.
func (s *Solver) Solve(ctx context.Context, roots []matchspec.MatchSpec) (*types.Solution, error) {
	logger := logging.GetLogger("solver").With().
		Int("roots", len(roots)).
		Logger()

	st := newState(s.pool)
	for _, root := range roots {
		st.addRoot(root)
	}

	var deadline time.Time
	if s.opts.Timeout > 0 {
		deadline = time.Now().Add(s.opts.Timeout)
	}

	start := time.Now()
	iterations := 0

	for {
		iterations++
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCancelled, "solve cancelled")
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			logger.Warn().Dur("budget", s.opts.Timeout).Msg("Solver budget exhausted")
			return nil, errors.Newf(errors.ErrTimedOut,
				"solve exceeded its %s budget after %d iterations", s.opts.Timeout, iterations).
				WithDetail("iterations", iterations)
		}

		name, ok := st.pickNext()
		if !ok {
			solution := st.solution()
			logger.Debug().
				Int("packages", solution.Len()).
				Int("iterations", iterations).
				Dur("elapsed", time.Since(start)).
				Msg("Solve succeeded")
			return solution, nil
		}

		if st.tryAssign(name) {
			continue
		}

		// The chosen name has no viable candidate. Learn the conflict and
		// walk back up the decision stack until a decision has an untried
		// candidate left.
		st.learnConflict(name)
		if !st.backtrack() {
			logger.Debug().
				Int("iterations", iterations).
				Msg("Search space exhausted")
			return nil, st.unsatisfiable()
		}
	}
}
