package types

import (
	"fmt"

	"github.com/arthur-debert/gonda/pkg/version"
)

// FileMode describes how a packaged file's contents are interpreted when a
// prefix placeholder has to be rewritten after placement.
type FileMode string

const (
	// FileModeText means the placeholder is replaced with a plain string
	// substitution; the file may grow or shrink.
	FileModeText FileMode = "text"

	// FileModeBinary means the placeholder is embedded in a fixed-size
	// C-string; the replacement is padded with NULs to preserve offsets.
	FileModeBinary FileMode = "binary"
)

// PathEntry describes a single file a package places into the prefix.
type PathEntry struct {
	// RelPath is the destination path relative to the prefix root, using
	// forward slashes.
	RelPath string `json:"_path"`

	// SHA256 is the content hash of the packaged file, if known.
	SHA256 string `json:"sha256,omitempty"`

	// SizeInBytes is the size of the packaged file.
	SizeInBytes int64 `json:"size_in_bytes,omitempty"`

	// PrefixPlaceholder is the absolute build-time prefix baked into the
	// file, empty when the file needs no rewriting.
	PrefixPlaceholder string `json:"prefix_placeholder,omitempty"`

	// FileMode selects text or binary placeholder rewriting. Only
	// meaningful when PrefixPlaceholder is set.
	FileMode FileMode `json:"file_mode,omitempty"`

	// NoLink forces a full copy even when the filesystem could hardlink.
	NoLink bool `json:"no_link,omitempty"`
}

// PackageRecord is the metadata of one concrete package artifact. Records
// are immutable once constructed and shared by reference between the pool,
// solutions and installed state; name+version+build+channel+hash is a
// stable identity.
type PackageRecord struct {
	Name        string          `json:"name"`
	Version     version.Version `json:"version"`
	Build       string          `json:"build"`
	BuildNumber uint64          `json:"build_number"`

	Channel string `json:"channel,omitempty"`
	Subdir  string `json:"subdir,omitempty"`

	// Depends holds the dependency match specs in their textual form.
	Depends []string `json:"depends,omitempty"`

	// Constrains holds optional constraints: specs that restrict a name's
	// candidates without requiring the name to be installed.
	Constrains []string `json:"constrains,omitempty"`

	// TrackFeatures deprioritizes this record during candidate ordering.
	TrackFeatures []string `json:"track_features,omitempty"`

	SHA256 string `json:"sha256,omitempty"`
	MD5    string `json:"md5,omitempty"`
	Size   int64  `json:"size,omitempty"`

	// Paths lists the files this package places into the prefix. Filled by
	// the record source; may be empty for solve-only uses.
	Paths []PathEntry `json:"paths,omitempty"`
}

// Identity returns the stable identity string of the record.
func (r *PackageRecord) Identity() string {
	return fmt.Sprintf("%s=%s=%s", r.Name, r.Version.String(), r.Build)
}

// SameRecord reports whether two records refer to the same artifact.
func (r *PackageRecord) SameRecord(other *PackageRecord) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.Name == other.Name &&
		r.Version.Compare(other.Version) == 0 &&
		r.Build == other.Build &&
		r.Channel == other.Channel &&
		r.SHA256 == other.SHA256
}

// HasTrackFeatures reports whether the record carries any track features.
func (r *PackageRecord) HasTrackFeatures() bool {
	return len(r.TrackFeatures) > 0
}

func (r *PackageRecord) String() string {
	return r.Identity()
}
