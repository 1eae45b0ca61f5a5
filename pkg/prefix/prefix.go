// Package prefix persists installed-package state inside the prefix itself,
// one JSON document per package under conda-meta/. The directory is the
// source of truth for what a prefix contains; loading it reconstructs the
// installed state after a restart or a crash mid transaction.
package prefix

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/logging"
	"github.com/arthur-debert/gonda/pkg/types"
)

const metaDirName = "conda-meta"

// Store reads and writes prefix records under <prefix>/conda-meta.
type Store struct {
	fs     types.FS
	prefix string
}

// NewStore creates a store for the given prefix root.
func NewStore(fsys types.FS, prefix string) *Store {
	return &Store{fs: fsys, prefix: prefix}
}

// Prefix returns the prefix root this store serves.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) metaDir() string {
	return filepath.Join(s.prefix, metaDirName)
}

func recordFileName(rec *types.PrefixRecord) string {
	return fmt.Sprintf("%s-%s-%s.json", rec.Name, rec.Version.String(), rec.Build)
}

// Load scans conda-meta and reconstructs the installed state. A missing
// directory is an empty prefix, not an error.
func (s *Store) Load() (*types.InstalledState, error) {
	logger := logging.GetLogger("prefix")
	state := types.NewInstalledState()

	entries, err := s.fs.ReadDir(s.metaDir())
	if err != nil {
		logger.Debug().Str("prefix", s.prefix).Msg("no conda-meta directory, empty prefix")
		return state, nil
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.metaDir(), entry.Name())
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPrefixRead, "reading %s", path)
		}
		var rec types.PrefixRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, errors.Wrapf(err, errors.ErrPrefixRead, "parsing %s", path)
		}
		if rec.Name == "" {
			return nil, errors.Newf(errors.ErrPrefixRead, "record %s has no package name", path)
		}
		state.Set(&rec)
	}

	logger.Debug().
		Str("prefix", s.prefix).
		Int("packages", state.Len()).
		Msg("loaded installed state")
	return state, nil
}

// Write persists rec, replacing any record file the same package name wrote
// before, whatever version it was at.
func (s *Store) Write(rec *types.PrefixRecord) error {
	if err := s.fs.MkdirAll(s.metaDir(), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrPrefixWrite, "creating %s", s.metaDir())
	}

	want := recordFileName(rec)
	if err := s.removeRecordFiles(rec.Name, want); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrapf(err, errors.ErrPrefixWrite, "encoding record for %s", rec.Name)
	}
	data = append(data, '\n')

	path := filepath.Join(s.metaDir(), want)
	if err := s.fs.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrPrefixWrite, "writing %s", path)
	}
	return nil
}

// Delete removes the record file for name. Removing a package that has no
// record is not an error.
func (s *Store) Delete(name string) error {
	return s.removeRecordFiles(name, "")
}

// removeRecordFiles deletes every record file belonging to name, except the
// one called keep. Matching is by the record's own name field, since package
// names may themselves contain dashes.
func (s *Store) removeRecordFiles(name, keep string) error {
	entries, err := s.fs.ReadDir(s.metaDir())
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || entry.Name() == keep {
			continue
		}
		if !strings.HasPrefix(entry.Name(), name+"-") {
			continue
		}
		path := filepath.Join(s.metaDir(), entry.Name())
		data, err := s.fs.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrPrefixRead, "reading %s", path)
		}
		var probe struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &probe); err != nil || probe.Name != name {
			continue
		}
		if err := s.fs.Remove(path); err != nil {
			return errors.Wrapf(err, errors.ErrPrefixWrite, "removing %s", path)
		}
	}
	return nil
}
