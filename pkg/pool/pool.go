// Package pool indexes every package record known to one solve: a mapping
// from package name to the records available for it, in the solver's
// preference order.
//
// A pool is rebuilt per solve invocation and is append-only while a solve
// runs. It only holds shared references to records it did not create.
package pool

import (
	"sort"

	"github.com/arthur-debert/gonda/pkg/matchspec"
	"github.com/arthur-debert/gonda/pkg/types"
)

// entry pairs a record with its registration index, which is the final
// tie-break for candidate ordering and keeps resolution deterministic.
type entry struct {
	record *types.PackageRecord
	index  int
}

// Pool indexes candidate records by package name.
type Pool struct {
	byName    map[string][]entry
	nameOrder map[string]int
	names     []string
	count     int
	sorted    bool
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{
		byName:    make(map[string][]entry),
		nameOrder: make(map[string]int),
	}
}

// FromSource builds a pool holding every record the source knows.
func FromSource(src types.RecordSource) (*Pool, error) {
	records, err := src.AllRecords()
	if err != nil {
		return nil, err
	}
	p := New()
	p.AddAll(records)
	return p, nil
}

// Add registers a record with the pool.
func (p *Pool) Add(rec *types.PackageRecord) {
	if rec == nil {
		return
	}
	if _, seen := p.nameOrder[rec.Name]; !seen {
		p.nameOrder[rec.Name] = len(p.names)
		p.names = append(p.names, rec.Name)
	}
	p.byName[rec.Name] = append(p.byName[rec.Name], entry{record: rec, index: p.count})
	p.count++
	p.sorted = false
}

// AddAll registers records in order.
func (p *Pool) AddAll(records []*types.PackageRecord) {
	for _, rec := range records {
		p.Add(rec)
	}
}

// Names returns the package names in registration order.
func (p *Pool) Names() []string {
	return p.names
}

// NameOrder returns the registration rank of a package name, used by the
// solver to break ties between equally constrained names. Unknown names
// rank last.
func (p *Pool) NameOrder(name string) int {
	if idx, ok := p.nameOrder[name]; ok {
		return idx
	}
	return len(p.names)
}

// Candidates returns every record for name in preference order: records
// without track features first, then higher versions, then higher build
// numbers, then registration order. The records themselves are shared;
// callers must not mutate them.
func (p *Pool) Candidates(name string) []*types.PackageRecord {
	p.ensureSorted()
	entries := p.byName[name]
	records := make([]*types.PackageRecord, len(entries))
	for i, e := range entries {
		records[i] = e.record
	}
	return records
}

// FindCandidates returns the records satisfying the spec, in preference
// order.
func (p *Pool) FindCandidates(spec matchspec.MatchSpec) []*types.PackageRecord {
	p.ensureSorted()
	var out []*types.PackageRecord
	for _, e := range p.byName[spec.Name] {
		if spec.Matches(e.record) {
			out = append(out, e.record)
		}
	}
	return out
}

func (p *Pool) ensureSorted() {
	if p.sorted {
		return
	}
	for name := range p.byName {
		entries := p.byName[name]
		sort.SliceStable(entries, func(i, j int) bool {
			return preferCandidate(entries[i], entries[j])
		})
	}
	p.sorted = true
}

// preferCandidate implements the candidate preference order used by conda.
func preferCandidate(a, b entry) bool {
	// Records with track features sort below records without.
	at, bt := a.record.HasTrackFeatures(), b.record.HasTrackFeatures()
	if at != bt {
		return !at
	}

	// Higher version first.
	if c := a.record.Version.Compare(b.record.Version); c != 0 {
		return c > 0
	}

	// Higher build number first.
	if a.record.BuildNumber != b.record.BuildNumber {
		return a.record.BuildNumber > b.record.BuildNumber
	}

	// Registration order last, for determinism.
	return a.index < b.index
}
