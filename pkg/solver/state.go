package solver

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/matchspec"
	"github.com/arthur-debert/gonda/pkg/pool"
	"github.com/arthur-debert/gonda/pkg/types"
)

type constraintKind int

const (
	// kindRequirement means the constrained name must end up assigned.
	kindRequirement constraintKind = iota

	// kindRestriction narrows a name's candidates without requiring it
	// to be installed (a record's "constrains" entry).
	kindRestriction
)

// constraint is one active clause on a package name.
type constraint struct {
	spec   matchspec.MatchSpec
	origin *types.PackageRecord // nil for root requirements
	kind   constraintKind
}

// decision is one entry of the explicit search stack: a name, the domain it
// had when the decision was created, and the candidates tried so far.
type decision struct {
	name     string
	record   *types.PackageRecord
	domain   []*types.PackageRecord
	next     int
	filtered map[string]string // assignment contributors that narrowed the domain

	addedCounts map[string]int // constraints added per name by this assignment
	pendingSnap int            // pendingOrder length before this assignment
}

// state is the full mutable solve state. It lives for one Solve call.
type state struct {
	pool        *pool.Pool
	constraints map[string][]constraint
	assigned    map[string]*types.PackageRecord
	stack       []*decision

	// pendingOrder lists names in the order they first became required;
	// assigned names stay in place and are skipped.
	pendingOrder []string
	inPending    map[string]bool

	// nogoods are learned conflicting assignment subsets, keyed
	// name -> record identity. A candidate is blocked when a nogood's
	// other members are all currently assigned.
	nogoods []map[string]string

	specCache  map[string]matchspec.MatchSpec
	firstTrace string
	lastFailed *decision
}

func newState(p *pool.Pool) *state {
	return &state{
		pool:        p,
		constraints: make(map[string][]constraint),
		assigned:    make(map[string]*types.PackageRecord),
		inPending:   make(map[string]bool),
		specCache:   make(map[string]matchspec.MatchSpec),
	}
}

func (st *state) parseSpec(text string) (matchspec.MatchSpec, error) {
	if spec, ok := st.specCache[text]; ok {
		return spec, nil
	}
	spec, err := matchspec.Parse(text)
	if err != nil {
		return matchspec.MatchSpec{}, err
	}
	st.specCache[text] = spec
	return spec, nil
}

// addRoot seeds the search with an explicit root requirement.
func (st *state) addRoot(spec matchspec.MatchSpec) {
	st.addClause(constraint{spec: spec, kind: kindRequirement}, nil)
}

// addClause appends a clause, tracking per-decision bookkeeping in dec when
// the clause comes from an assignment.
func (st *state) addClause(c constraint, dec *decision) {
	name := c.spec.Name
	st.constraints[name] = append(st.constraints[name], c)
	if dec != nil {
		dec.addedCounts[name]++
	}
	if c.kind == kindRequirement && !st.inPending[name] {
		st.inPending[name] = true
		st.pendingOrder = append(st.pendingOrder, name)
	}
}

// pickNext chooses the unassigned required name with the fewest remaining
// candidates, tie-broken by pool registration order. Returns false when
// every required name is assigned.
func (st *state) pickNext() (string, bool) {
	best := ""
	bestSize := -1
	bestRank := -1

	for _, name := range st.pendingOrder {
		if _, done := st.assigned[name]; done {
			continue
		}
		domain, _ := st.filteredDomain(name)
		size := len(domain)
		rank := st.pool.NameOrder(name)
		if bestSize < 0 || size < bestSize || (size == bestSize && rank < bestRank) {
			best, bestSize, bestRank = name, size, rank
		}
	}
	return best, best != ""
}

// filteredDomain returns the candidates for name satisfying every active
// clause, plus the assignments whose clauses excluded anything (the
// contributors to a potential conflict).
func (st *state) filteredDomain(name string) ([]*types.PackageRecord, map[string]string) {
	contributors := make(map[string]string)
	var domain []*types.PackageRecord

candidates:
	for _, rec := range st.pool.Candidates(name) {
		for _, c := range st.constraints[name] {
			if !c.spec.Matches(rec) {
				if c.origin != nil {
					contributors[c.origin.Name] = c.origin.Identity()
				}
				continue candidates
			}
		}
		domain = append(domain, rec)
	}
	return domain, contributors
}

// tryAssign attempts to assign name to its most preferred viable candidate,
// pushing a new decision. Returns false when no candidate is viable.
func (st *state) tryAssign(name string) bool {
	domain, contributors := st.filteredDomain(name)
	dec := &decision{
		name:     name,
		domain:   domain,
		filtered: contributors,
	}
	st.stack = append(st.stack, dec)
	if st.advance(dec) {
		return true
	}
	st.stack = st.stack[:len(st.stack)-1]
	st.lastFailed = dec
	return false
}

// advance tries dec's remaining candidates in preference order. Each failed
// candidate records its blockers in dec.filtered so a learned conflict
// covers everything that mattered.
func (st *state) advance(dec *decision) bool {
	for dec.next < len(dec.domain) {
		rec := dec.domain[dec.next]
		dec.next++

		if blocker, blocked := st.blockedByNogood(dec.name, rec); blocked {
			for k, v := range blocker {
				dec.filtered[k] = v
			}
			continue
		}

		partner := st.apply(dec, rec)
		if partner == nil {
			return true
		}
		// The candidate's own clauses contradict an already-selected
		// record: the pair itself is a nogood.
		st.learnNogood(map[string]string{
			dec.name:     rec.Identity(),
			partner.Name: partner.Identity(),
		})
		dec.filtered[partner.Name] = partner.Identity()
	}
	return false
}

// blockedByNogood reports whether selecting rec for name completes a
// learned nogood under the current assignment. The returned map holds the
// nogood's other members.
func (st *state) blockedByNogood(name string, rec *types.PackageRecord) (map[string]string, bool) {
	ident := rec.Identity()
	for _, ng := range st.nogoods {
		if ng[name] != ident {
			continue
		}
		complete := true
		others := make(map[string]string, len(ng)-1)
		for k, v := range ng {
			if k == name {
				continue
			}
			got, ok := st.assigned[k]
			if !ok || got.Identity() != v {
				complete = false
				break
			}
			others[k] = v
		}
		if complete {
			return others, true
		}
	}
	return nil, false
}

// apply assigns rec to dec and installs its clauses. On contradiction with
// an assigned record the assignment is rolled back and the partner record
// is returned.
func (st *state) apply(dec *decision, rec *types.PackageRecord) *types.PackageRecord {
	dec.record = rec
	dec.addedCounts = make(map[string]int)
	dec.pendingSnap = len(st.pendingOrder)
	st.assigned[dec.name] = rec

	install := func(text string, kind constraintKind) (*types.PackageRecord, error) {
		spec, err := st.parseSpec(text)
		if err != nil {
			return nil, err
		}
		st.addClause(constraint{spec: spec, origin: rec, kind: kind}, dec)
		if got, ok := st.assigned[spec.Name]; ok && !spec.Matches(got) {
			return got, nil
		}
		return nil, nil
	}

	for _, dep := range rec.Depends {
		partner, err := install(dep, kindRequirement)
		if err != nil || partner != nil {
			st.unapply(dec)
			return st.partnerOrSelf(partner, rec)
		}
	}
	for _, con := range rec.Constrains {
		partner, err := install(con, kindRestriction)
		if err != nil || partner != nil {
			st.unapply(dec)
			return st.partnerOrSelf(partner, rec)
		}
	}
	return nil
}

// partnerOrSelf turns a malformed dependency string into a self-conflict so
// the record is simply skipped rather than aborting the whole solve.
func (st *state) partnerOrSelf(partner, self *types.PackageRecord) *types.PackageRecord {
	if partner != nil {
		return partner
	}
	return self
}

// unapply removes everything apply installed for dec's current record.
func (st *state) unapply(dec *decision) {
	for name, count := range dec.addedCounts {
		clauses := st.constraints[name]
		st.constraints[name] = clauses[:len(clauses)-count]
	}
	for _, name := range st.pendingOrder[dec.pendingSnap:] {
		delete(st.inPending, name)
	}
	st.pendingOrder = st.pendingOrder[:dec.pendingSnap]
	delete(st.assigned, dec.name)
	dec.addedCounts = nil
	dec.record = nil
}

// backtrack pops the most recent decision and retries it with its next
// candidate. Returns false when the stack is exhausted.
func (st *state) backtrack() bool {
	for len(st.stack) > 0 {
		dec := st.stack[len(st.stack)-1]
		st.unapply(dec)
		if st.advance(dec) {
			return true
		}
		st.stack = st.stack[:len(st.stack)-1]
		st.lastFailed = dec
		st.learnConflict(dec.name)
	}
	return false
}

// learnConflict records the assignment subset responsible for name having
// no viable candidate, and captures the first human-readable trace.
func (st *state) learnConflict(name string) {
	_, contributors := st.filteredDomain(name)

	// Fold in blockers noted while candidates were being tried.
	if st.lastFailed != nil && st.lastFailed.name == name {
		for k, v := range st.lastFailed.filtered {
			contributors[k] = v
		}
	}

	// The conflict only exists while name is required, so the records
	// whose requirement clauses pulled it in are part of the learned set.
	// Without them a restriction-driven conflict would poison its origin
	// in branches that never require name at all. Root requirements hold
	// in every branch and add nothing.
	for _, c := range st.constraints[name] {
		if c.kind == kindRequirement && c.origin != nil {
			contributors[c.origin.Name] = c.origin.Identity()
		}
	}
	delete(contributors, name)

	if len(contributors) > 0 {
		st.learnNogood(contributors)
	}
	if st.firstTrace == "" {
		st.firstTrace = st.explain(name)
	}
}

func (st *state) learnNogood(ng map[string]string) {
	st.nogoods = append(st.nogoods, ng)
}

// solution freezes the current assignment.
func (st *state) solution() *types.Solution {
	return types.NewSolution(st.assigned)
}

// unsatisfiable renders the search failure with the first conflict's
// explanation trace.
func (st *state) unsatisfiable() error {
	trace := st.firstTrace
	if trace == "" {
		trace = "no candidates satisfy the root requirements"
	}
	return errors.Newf(errors.ErrUnsatisfiable, "no solution exists:\n%s", trace).
		WithDetail("trace", trace)
}

// explain renders the chain of specs that make name unresolvable, walking
// each clause's origin back to a root requirement.
func (st *state) explain(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot resolve %q: no candidate satisfies all of:", name)
	clauses := st.constraints[name]
	if len(clauses) == 0 {
		fmt.Fprintf(&b, "\n  (no record named %q is available)", name)
		return b.String()
	}
	for _, c := range clauses {
		fmt.Fprintf(&b, "\n  - %s%s", c.spec, st.originChain(c.origin, 0))
	}
	return b.String()
}

// originChain renders "(required by X, selected for Y, ...)" up to the
// root requirement.
func (st *state) originChain(origin *types.PackageRecord, depth int) string {
	if origin == nil {
		return " (root requirement)"
	}
	if depth > 8 {
		return ""
	}
	cause := st.causeOf(origin.Name)
	return fmt.Sprintf(" (required by %s, selected to satisfy %s%s)",
		origin.Identity(), cause.spec, st.originChain(cause.origin, depth+1))
}

// causeOf returns the earliest requirement clause on name.
func (st *state) causeOf(name string) constraint {
	for _, c := range st.constraints[name] {
		if c.kind == kindRequirement {
			return c
		}
	}
	return constraint{spec: matchspec.MustParse(name)}
}
