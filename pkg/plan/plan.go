// Package plan computes what a rename/replace run would do, without
// touching the filesystem. Dry-run and apply both consume the same Plan,
// which is what guarantees the preview matches the mutation.
package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/retree/pkg/binary"
	"github.com/walteh/retree/pkg/match"
	"github.com/walteh/retree/pkg/scan"
)

// 🎛️ Mode gates which entry kinds are renamed and whether content is edited.
type Mode int

const (
	ModeFull Mode = iota
	ModeNamesOnly
	ModeContentOnly
	ModeFilesOnly
	ModeDirsOnly
)

// String returns a string representation of Mode
func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeNamesOnly:
		return "names-only"
	case ModeContentOnly:
		return "content-only"
	case ModeFilesOnly:
		return "files-only"
	case ModeDirsOnly:
		return "dirs-only"
	default:
		return "unknown"
	}
}

// RenamesFiles reports whether file names are rewritten in this mode.
func (m Mode) RenamesFiles() bool {
	return m == ModeFull || m == ModeNamesOnly || m == ModeFilesOnly
}

// RenamesDirs reports whether directory names are rewritten in this mode.
func (m Mode) RenamesDirs() bool {
	return m == ModeFull || m == ModeNamesOnly || m == ModeDirsOnly
}

// EditsContent reports whether file bodies are rewritten in this mode.
func (m Mode) EditsContent() bool {
	return m == ModeFull || m == ModeContentOnly || m == ModeFilesOnly
}

// 📄 ContentOp is a file whose body matches and will be rewritten.
type ContentOp struct {
	Path        string
	Occurrences int
}

// 🔀 RenameOp renames one entry; only the final path component changes.
type RenameOp struct {
	FromPath string
	ToPath   string
	Kind     scan.Kind
}

// Depth counts the path components of FromPath. Every op in a plan
// shares the same root prefix, so component count orders ancestors
// before descendants.
func (op RenameOp) Depth() int {
	return strings.Count(filepath.ToSlash(filepath.Clean(op.FromPath)), "/")
}

// 📋 Plan is the complete description of a run: content edits, renames,
// collisions that would make applying unsafe, and non-fatal errors hit
// while planning. A Plan with collisions must never reach the executor.
type Plan struct {
	ContentOps   []ContentOp
	RenameOps    []RenameOp
	Collisions   []Collision
	AccessErrors []scan.AccessError
}

// HasChanges reports whether applying the plan would do anything.
func (p *Plan) HasChanges() bool {
	return len(p.ContentOps) > 0 || len(p.RenameOps) > 0
}

// FileRenames counts rename ops for files.
func (p *Plan) FileRenames() int {
	n := 0
	for _, op := range p.RenameOps {
		if op.Kind == scan.KindFile {
			n++
		}
	}
	return n
}

// DirRenames counts rename ops for directories.
func (p *Plan) DirRenames() int {
	return len(p.RenameOps) - p.FileRenames()
}

// 🏗️ Builder turns discovered entries into a Plan.
type Builder struct {
	matcher    match.Matcher
	classifier *binary.Classifier
	mode       Mode
}

// NewBuilder creates a plan builder. The matcher and classifier are
// shared, read-only, for the whole run.
func NewBuilder(m match.Matcher, c *binary.Classifier, mode Mode) *Builder {
	return &Builder{matcher: m, classifier: c, mode: mode}
}

// Build computes the plan for the given discovery result. It reads file
// contents (to count occurrences and classify binaries) but never
// mutates anything, so building twice yields identical plans.
func (b *Builder) Build(ctx context.Context, scanned *scan.Result) *Plan {
	logger := zerolog.Ctx(ctx)

	p := &Plan{AccessErrors: scanned.Errors}

	for _, entry := range scanned.Entries {
		if op, ok := b.renameFor(entry); ok {
			p.RenameOps = append(p.RenameOps, op)
		}

		if b.mode.EditsContent() && entry.Kind == scan.KindFile {
			b.contentFor(ctx, logger, p, entry)
		}
	}

	// Collision checks run against an unfiltered view of the tree, not
	// the filtered discovery entries: a hidden or excluded path is just
	// as real a rename target as a discovered one.
	p.Collisions = Detect(p.RenameOps, ExistingPaths(scanned.Root))
	return p
}

// renameFor emits a rename op when the mode allows the entry's kind and
// its final path component matches. The parent path is preserved as
// discovered; ordering later makes it valid at execution time.
func (b *Builder) renameFor(entry scan.Entry) (RenameOp, bool) {
	switch entry.Kind {
	case scan.KindFile:
		if !b.mode.RenamesFiles() {
			return RenameOp{}, false
		}
	case scan.KindDir:
		if !b.mode.RenamesDirs() {
			return RenameOp{}, false
		}
	}

	name := filepath.Base(entry.Path)
	if !b.matcher.Matches(name) {
		return RenameOp{}, false
	}

	newName := b.matcher.Replace(name)
	if newName == name || newName == "" || strings.ContainsAny(newName, `/\`) {
		// No-op renames and names that would escape the parent directory
		// are dropped here rather than surfacing as collisions.
		return RenameOp{}, false
	}

	return RenameOp{
		FromPath: entry.Path,
		ToPath:   filepath.Join(filepath.Dir(entry.Path), newName),
		Kind:     entry.Kind,
	}, true
}

// contentFor emits a content op for text files whose body matches.
// Classification or read failures skip the file, they never abort the scan.
func (b *Builder) contentFor(ctx context.Context, logger *zerolog.Logger, p *Plan, entry scan.Entry) {
	isText, err := b.classifier.IsText(entry.Path)
	if err != nil {
		logger.Debug().Str("path", entry.Path).Err(err).Msg("classification failed, treating as binary")
		p.AccessErrors = append(p.AccessErrors, scan.AccessError{Path: entry.Path, Err: err})
		return
	}
	if !isText {
		logger.Trace().Str("path", entry.Path).Msg("skipping binary file")
		return
	}

	content, err := os.ReadFile(entry.Path)
	if err != nil {
		logger.Debug().Str("path", entry.Path).Err(err).Msg("skipping unreadable file")
		p.AccessErrors = append(p.AccessErrors, scan.AccessError{Path: entry.Path, Err: err})
		return
	}

	if n := b.matcher.Count(string(content)); n > 0 {
		p.ContentOps = append(p.ContentOps, ContentOp{Path: entry.Path, Occurrences: n})
	}
}
