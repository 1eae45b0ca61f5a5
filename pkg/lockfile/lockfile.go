// Package lockfile reads and writes solution lock files. A lock file pins
// every record of a solved environment so a later install can reproduce it
// exactly, without running the solver again.
package lockfile

import (
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/types"
	"github.com/arthur-debert/gonda/pkg/version"
)

// FormatVersion is bumped whenever the lock file layout changes
// incompatibly.
const FormatVersion = 1

// lockedPackage is one pinned record in the lock file.
type lockedPackage struct {
	Name        string          `yaml:"name"`
	Version     version.Version `yaml:"version"`
	Build       string          `yaml:"build"`
	BuildNumber uint64          `yaml:"build_number"`
	Channel     string          `yaml:"channel,omitempty"`
	Subdir      string          `yaml:"subdir,omitempty"`
	Depends     []string        `yaml:"depends,omitempty"`
	Constrains  []string        `yaml:"constrains,omitempty"`
	SHA256      string          `yaml:"sha256,omitempty"`
	MD5         string          `yaml:"md5,omitempty"`
	Size        int64           `yaml:"size,omitempty"`
}

// lockFile is the document layout.
type lockFile struct {
	Version  int             `yaml:"version"`
	Packages []lockedPackage `yaml:"packages"`
}

// Marshal encodes a solution as a lock file document. Packages are ordered
// by name so the output is stable across runs.
func Marshal(solution *types.Solution) ([]byte, error) {
	doc := lockFile{Version: FormatVersion}
	for _, rec := range solution.Records() {
		doc.Packages = append(doc.Packages, lockedPackage{
			Name:        rec.Name,
			Version:     rec.Version,
			Build:       rec.Build,
			BuildNumber: rec.BuildNumber,
			Channel:     rec.Channel,
			Subdir:      rec.Subdir,
			Depends:     rec.Depends,
			Constrains:  rec.Constrains,
			SHA256:      rec.SHA256,
			MD5:         rec.MD5,
			Size:        rec.Size,
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrLockfile, "encoding lock file")
	}
	return data, nil
}

// Unmarshal parses a lock file document back into a solution.
func Unmarshal(data []byte) (*types.Solution, error) {
	var doc lockFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrLockfile, "parsing lock file")
	}
	if doc.Version != FormatVersion {
		return nil, errors.Newf(errors.ErrLockfile,
			"unsupported lock file version %d (expected %d)", doc.Version, FormatVersion)
	}

	records := make(map[string]*types.PackageRecord, len(doc.Packages))
	for i, pkg := range doc.Packages {
		if pkg.Name == "" {
			return nil, errors.Newf(errors.ErrLockfile, "package %d has no name", i)
		}
		if _, dup := records[pkg.Name]; dup {
			return nil, errors.Newf(errors.ErrLockfile,
				"package %s appears more than once", pkg.Name)
		}
		records[pkg.Name] = &types.PackageRecord{
			Name:        pkg.Name,
			Version:     pkg.Version,
			Build:       pkg.Build,
			BuildNumber: pkg.BuildNumber,
			Channel:     pkg.Channel,
			Subdir:      pkg.Subdir,
			Depends:     pkg.Depends,
			Constrains:  pkg.Constrains,
			SHA256:      pkg.SHA256,
			MD5:         pkg.MD5,
			Size:        pkg.Size,
		}
	}
	return types.NewSolution(records), nil
}

// Write marshals solution and writes it to path.
func Write(fsys types.FS, path string, solution *types.Solution) error {
	data, err := Marshal(solution)
	if err != nil {
		return err
	}
	if err := fsys.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrLockfile, "writing %s", path)
	}
	return nil
}

// Read loads and parses the lock file at path.
func Read(fsys types.FS, path string) (*types.Solution, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrLockfile, "reading %s", path)
	}
	return Unmarshal(data)
}
