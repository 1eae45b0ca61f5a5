package link

import (
	"bytes"
	"fmt"
	iofs "io/fs"
	"path/filepath"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/types"
)

// placeFile puts one packaged file at dst, trying hardlink, then reflink,
// then a full copy. Each step is only attempted when the filesystem pair
// supports it; failures fall through to the next step and an error is
// returned only once every fallback is exhausted.
//
// Files that need placeholder rewriting are always copied: a hard-linked
// file shares storage with the package cache, and rewriting it in place
// would corrupt the shared source.
func placeFile(fsys types.FS, src, dst, prefix string, entry types.PathEntry) error {
	if err := fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrIoFailure, "creating directory for %s", dst)
	}

	// An existing file at dst is a clobber overwrite or a leftover; the
	// link primitives require the destination to not exist.
	if _, err := fsys.Lstat(dst); err == nil {
		if err := fsys.Remove(dst); err != nil {
			return errors.Wrapf(err, errors.ErrIoFailure, "clearing %s", dst)
		}
	}

	needsCopy := entry.NoLink || entry.PrefixPlaceholder != ""

	var attempts []string
	if !needsCopy {
		if fsys.SupportsHardlink(src, dst) {
			if err := fsys.Hardlink(src, dst); err == nil {
				return nil
			} else {
				attempts = append(attempts, fmt.Sprintf("hardlink: %v", err))
			}
		}
		if fsys.SupportsReflink(src, dst) {
			if err := fsys.Reflink(src, dst); err == nil {
				return nil
			} else {
				attempts = append(attempts, fmt.Sprintf("reflink: %v", err))
			}
		}
	}

	if err := copyFile(fsys, src, dst, prefix, entry); err != nil {
		attempts = append(attempts, fmt.Sprintf("copy: %v", err))
		return errors.Newf(errors.ErrIoFailure,
			"placing %s failed after all fallbacks (%s)", dst, joinAttempts(attempts))
	}
	return nil
}

func joinAttempts(attempts []string) string {
	out := ""
	for i, a := range attempts {
		if i > 0 {
			out += "; "
		}
		out += a
	}
	return out
}

// copyFile fully copies src to dst, applying placeholder rewriting on the
// private copy when the entry is flagged.
func copyFile(fsys types.FS, src, dst, prefix string, entry types.PathEntry) error {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}

	if entry.PrefixPlaceholder != "" {
		data, err = rewritePlaceholder(data, entry.PrefixPlaceholder, prefix, entry.FileMode)
		if err != nil {
			return err
		}
	}

	perm := iofs.FileMode(defaultFilePerm)
	if info, err := fsys.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	return fsys.WriteFile(dst, data, perm)
}

// rewritePlaceholder replaces the build-time prefix baked into the file
// with the install prefix.
func rewritePlaceholder(data []byte, placeholder, prefix string, mode types.FileMode) ([]byte, error) {
	switch mode {
	case types.FileModeBinary:
		return rewriteBinary(data, []byte(placeholder), []byte(prefix))
	default:
		return bytes.ReplaceAll(data, []byte(placeholder), []byte(prefix)), nil
	}
}

// rewriteBinary rewrites NUL-terminated strings containing the placeholder,
// padding with NULs so every byte offset after the string is preserved. The
// install prefix must not be longer than the placeholder, which is why
// build prefixes are traditionally padded to absurd lengths.
func rewriteBinary(data, placeholder, prefix []byte) ([]byte, error) {
	if len(prefix) > len(placeholder) {
		return nil, errors.Newf(errors.ErrIoFailure,
			"install prefix is longer than the placeholder (%d > %d bytes)",
			len(prefix), len(placeholder))
	}

	out := make([]byte, 0, len(data))
	rest := data
	for {
		idx := bytes.Index(rest, placeholder)
		if idx < 0 {
			out = append(out, rest...)
			return out, nil
		}
		out = append(out, rest[:idx]...)

		// The rewritten unit is the whole NUL-terminated string.
		end := bytes.IndexByte(rest[idx:], 0)
		if end < 0 {
			end = len(rest) - idx
		}
		chunk := rest[idx : idx+end]

		replaced := append(append([]byte{}, prefix...), chunk[len(placeholder):]...)
		if len(replaced) > len(chunk) {
			return nil, errors.Newf(errors.ErrIoFailure,
				"rewritten path does not fit in its binary slot")
		}
		out = append(out, replaced...)
		for i := len(replaced); i < len(chunk); i++ {
			out = append(out, 0)
		}
		rest = rest[idx+end:]
	}
}

const defaultFilePerm = 0o644
