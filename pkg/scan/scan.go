// Package scan walks a directory tree and yields the entries the rest
// of the pipeline plans against. The walk is iterative (explicit work
// queue, no recursion), deterministic, and never mutates the tree.
package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Kind distinguishes files from directories. Symlinks that are not
// followed surface as files so their names stay renameable.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// String returns a string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// Entry is one discovered filesystem object. Path is rooted at the
// scan root; Depth counts path components below the root (a direct
// child has depth 1).
type Entry struct {
	Path  string
	Kind  Kind
	Depth int
}

// AccessError records a subtree that could not be read. The walk skips
// it and continues.
type AccessError struct {
	Path string
	Err  error
}

func (e AccessError) Error() string {
	return "access " + e.Path + ": " + e.Err.Error()
}

// Options controls a walk.
type Options struct {
	Root           string
	Include        []string // doublestar globs; empty means everything
	Exclude        []string // doublestar globs; exclude wins over include
	MaxDepth       int      // 0 = unlimited
	FollowSymlinks bool
	IncludeHidden  bool
}

// Result is the flat, ordered outcome of one walk. Root is the cleaned
// root every entry path descends from.
type Result struct {
	Root    string
	Entries []Entry
	Errors  []AccessError
}

// pending is one directory waiting in the work queue.
type pending struct {
	path  string
	depth int
}

// Walk discovers every entry under opts.Root honoring the filters.
// Unreadable directories are recorded, not fatal. Two walks over an
// unchanged tree produce identical results.
func Walk(ctx context.Context, opts Options) (*Result, error) {
	logger := zerolog.Ctx(ctx)

	root := filepath.Clean(opts.Root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Errorf("stating root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("root %q is not a directory", root)
	}

	res := &Result{Root: root}
	queue := []pending{{path: root, depth: 0}}

	// Guards against symlink cycles when following links. Keyed by
	// resolved path; the root is always present.
	visited := map[string]struct{}{}
	if opts.FollowSymlinks {
		if resolved, err := filepath.EvalSymlinks(root); err == nil {
			visited[resolved] = struct{}{}
		}
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("walk cancelled: %w", err)
		}

		dir := queue[0]
		queue = queue[1:]

		dirents, err := os.ReadDir(dir.path)
		if err != nil {
			logger.Debug().Str("path", dir.path).Err(err).Msg("skipping unreadable directory")
			res.Errors = append(res.Errors, AccessError{Path: dir.path, Err: err})
			continue
		}

		// os.ReadDir returns entries sorted by name, which is what keeps
		// the plan deterministic.
		for _, dirent := range dirents {
			name := dirent.Name()
			path := filepath.Join(dir.path, name)
			depth := dir.depth + 1

			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}

			kind, descend, aerr := resolveKind(dirent, path, opts.FollowSymlinks)
			if aerr != nil {
				res.Errors = append(res.Errors, *aerr)
				continue
			}

			rel := relPath(root, path)
			if kind == KindDir && matchesAny(opts.Exclude, rel, name) {
				// An excluded directory prunes its whole subtree.
				continue
			}

			if includeEntry(opts, rel, name) {
				res.Entries = append(res.Entries, Entry{Path: path, Kind: kind, Depth: depth})
			}

			if kind == KindDir && descend && withinDepth(opts.MaxDepth, depth) {
				if opts.FollowSymlinks {
					resolved, err := filepath.EvalSymlinks(path)
					if err != nil {
						res.Errors = append(res.Errors, AccessError{Path: path, Err: err})
						continue
					}
					if _, seen := visited[resolved]; seen {
						logger.Debug().Str("path", path).Msg("skipping symlink cycle")
						continue
					}
					visited[resolved] = struct{}{}
				}
				queue = append(queue, pending{path: path, depth: depth})
			}
		}
	}

	return res, nil
}

// resolveKind classifies a directory entry. An unfollowed symlink is a
// leaf file regardless of what it points to.
func resolveKind(dirent fs.DirEntry, path string, follow bool) (Kind, bool, *AccessError) {
	if dirent.Type()&fs.ModeSymlink != 0 {
		if !follow {
			return KindFile, false, nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return KindFile, false, &AccessError{Path: path, Err: err}
		}
		if info.IsDir() {
			return KindDir, true, nil
		}
		return KindFile, false, nil
	}

	if dirent.IsDir() {
		return KindDir, true, nil
	}
	return KindFile, false, nil
}

// includeEntry applies include then exclude filters; exclude wins.
func includeEntry(opts Options, rel, name string) bool {
	if len(opts.Include) > 0 && !matchesAny(opts.Include, rel, name) {
		return false
	}
	return !matchesAny(opts.Exclude, rel, name)
}

// matchesAny matches patterns against both the root-relative path and
// the bare name, so "*.txt" and "vendor/**" both behave as expected.
func matchesAny(patterns []string, rel, name string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func withinDepth(maxDepth, depth int) bool {
	return maxDepth == 0 || depth < maxDepth
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
