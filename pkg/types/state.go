package types

import "sort"

// Solution is one resolver output: exactly one record per resolved name,
// dependency-consistent. Immutable after the solver returns it.
type Solution struct {
	records map[string]*PackageRecord
}

// NewSolution builds a Solution from a name-to-record mapping. The map is
// copied; callers keep ownership of theirs.
func NewSolution(records map[string]*PackageRecord) *Solution {
	m := make(map[string]*PackageRecord, len(records))
	for name, rec := range records {
		m[name] = rec
	}
	return &Solution{records: m}
}

// Get returns the selected record for name, or nil.
func (s *Solution) Get(name string) *PackageRecord {
	return s.records[name]
}

// Names returns the resolved package names in sorted order.
func (s *Solution) Names() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Records returns the selected records ordered by name.
func (s *Solution) Records() []*PackageRecord {
	names := s.Names()
	recs := make([]*PackageRecord, 0, len(names))
	for _, name := range names {
		recs = append(recs, s.records[name])
	}
	return recs
}

// Len returns the number of resolved packages.
func (s *Solution) Len() int {
	return len(s.records)
}

// PlacedFile records one file a package actually wrote into the prefix,
// together with clobber bookkeeping.
type PlacedFile struct {
	// RelPath is the destination path relative to the prefix root.
	RelPath string `json:"_path"`

	// SHA256 of the placed content, when computed.
	SHA256 string `json:"sha256,omitempty"`

	// ClobberedBy names the package whose file superseded this one on
	// disk. The owning package still claims the path logically so its
	// removal bookkeeping stays correct, but it must not delete the file.
	ClobberedBy string `json:"clobbered_by,omitempty"`
}

// PrefixRecord is the installed-state entry for one package: the record it
// was installed from plus the files it placed.
type PrefixRecord struct {
	PackageRecord

	// Files lists every path this package placed, with clobber metadata.
	Files []PlacedFile `json:"files"`

	// RequestedSpec is the root spec that caused this install, empty for
	// packages pulled in as dependencies.
	RequestedSpec string `json:"requested_spec,omitempty"`

	// TransactionID identifies the transaction that installed the package.
	TransactionID string `json:"transaction_id,omitempty"`
}

// InstalledState is the set of packages currently installed in a prefix,
// keyed by package name. The linker mutates it as operations complete.
type InstalledState struct {
	records map[string]*PrefixRecord
}

// NewInstalledState creates an empty installed state.
func NewInstalledState() *InstalledState {
	return &InstalledState{records: make(map[string]*PrefixRecord)}
}

// Get returns the prefix record for name, or nil.
func (s *InstalledState) Get(name string) *PrefixRecord {
	return s.records[name]
}

// Set inserts or replaces the prefix record for its package name.
func (s *InstalledState) Set(rec *PrefixRecord) {
	s.records[rec.Name] = rec
}

// Delete removes the prefix record for name.
func (s *InstalledState) Delete(name string) {
	delete(s.records, name)
}

// Names returns the installed package names in sorted order.
func (s *InstalledState) Names() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of installed packages.
func (s *InstalledState) Len() int {
	return len(s.records)
}
