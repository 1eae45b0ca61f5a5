package link

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arthur-debert/gonda/pkg/errors"
	"github.com/arthur-debert/gonda/pkg/logging"
	"github.com/arthur-debert/gonda/pkg/types"
)

// DefaultConcurrency bounds the per-package file placement workers when the
// caller does not choose a limit.
const DefaultConcurrency = 8

// Linker materializes packages into a single prefix. One Linker serves one
// transaction: its clobber registry accumulates path ownership across every
// package the transaction touches.
type Linker struct {
	fs          types.FS
	prefix      string
	registry    *ClobberRegistry
	concurrency int
}

// NewLinker creates a linker for the given prefix. concurrency bounds the
// number of files placed in parallel per package; values below one fall back
// to DefaultConcurrency.
func NewLinker(fsys types.FS, prefix string, concurrency int) *Linker {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Linker{
		fs:          fsys,
		prefix:      prefix,
		registry:    NewClobberRegistry(),
		concurrency: concurrency,
	}
}

// Registry exposes the transaction's clobber registry so callers can collect
// conflicts after all packages are placed.
func (l *Linker) Registry() *ClobberRegistry {
	return l.registry
}

// Install places every file of rec from sourceDir into the prefix and
// returns the placed-file manifest in the same order as rec.Paths. Files are
// placed concurrently; the first failure cancels the remaining workers.
func (l *Linker) Install(ctx context.Context, rec *types.PackageRecord, sourceDir string) ([]types.PlacedFile, error) {
	logger := logging.GetLogger("link")
	logger.Debug().
		Str("package", rec.Identity()).
		Int("files", len(rec.Paths)).
		Msg("placing package files")

	placed := make([]types.PlacedFile, len(rec.Paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, entry := range rec.Paths {
		i, entry := i, entry
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrapf(err, errors.ErrCancelled,
					"placing %s interrupted", rec.Name)
			}

			l.registry.Claim(entry.RelPath, rec.Name)

			src := filepath.Join(sourceDir, filepath.FromSlash(entry.RelPath))
			dst := filepath.Join(l.prefix, filepath.FromSlash(entry.RelPath))
			if err := placeFile(l.fs, src, dst, l.prefix, entry); err != nil {
				return err
			}
			placed[i] = types.PlacedFile{RelPath: entry.RelPath, SHA256: entry.SHA256}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return placed, nil
}

// Remove deletes the files rec placed into the prefix, skipping any file a
// later package clobbered (the clobbering package owns it on disk now). It
// returns the prefix-relative directories that held removed files so the
// caller can sweep the empty ones once the transaction settles.
func (l *Linker) Remove(ctx context.Context, rec *types.PrefixRecord) ([]string, error) {
	logger := logging.GetLogger("link")
	logger.Debug().
		Str("package", rec.Identity()).
		Int("files", len(rec.Files)).
		Msg("removing package files")

	dirs := make(map[string]struct{})
	for _, file := range rec.Files {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCancelled,
				"removing %s interrupted", rec.Name)
		}

		for _, dir := range parentDirs(file.RelPath) {
			dirs[dir] = struct{}{}
		}

		if file.ClobberedBy != "" {
			logger.Debug().
				Str("path", file.RelPath).
				Str("owner", file.ClobberedBy).
				Msg("skipping clobbered file")
			continue
		}

		dst := filepath.Join(l.prefix, filepath.FromSlash(file.RelPath))
		if err := l.fs.Remove(dst); err != nil {
			if _, statErr := l.fs.Lstat(dst); statErr != nil {
				// Already gone; removal is idempotent.
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrIoFailure, "removing %s", dst)
		}
	}

	out := make([]string, 0, len(dirs))
	for dir := range dirs {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out, nil
}

// SweepEmptyDirs removes the given prefix-relative directories when they are
// empty, deepest first so emptied parents are caught in the same pass.
// Non-empty directories are silently kept; files from other packages or the
// user may still live there.
func (l *Linker) SweepEmptyDirs(dirs []string) {
	sorted := make([]string, len(dirs))
	copy(sorted, dirs)
	sort.Slice(sorted, func(i, j int) bool {
		di := strings.Count(sorted[i], "/")
		dj := strings.Count(sorted[j], "/")
		if di != dj {
			return di > dj
		}
		return sorted[i] > sorted[j]
	})

	for _, dir := range sorted {
		full := filepath.Join(l.prefix, filepath.FromSlash(dir))
		entries, err := l.fs.ReadDir(full)
		if err != nil || len(entries) > 0 {
			continue
		}
		_ = l.fs.Remove(full)
	}
}

// parentDirs returns every ancestor directory of a prefix-relative path,
// nearest last ("a/b/c.txt" gives ["a", "a/b"]).
func parentDirs(relPath string) []string {
	var dirs []string
	dir := relPath
	for {
		idx := strings.LastIndexByte(dir, '/')
		if idx <= 0 {
			break
		}
		dir = dir[:idx]
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}
