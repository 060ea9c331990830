// Package execute applies a validated plan to the filesystem: content
// edits in parallel, renames sequentially in dependency-safe order.
// Failures are recorded per operation; the run always finishes and
// reports what succeeded versus what did not.
package execute

import (
	"context"
	"io"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/retree/pkg/match"
	"github.com/walteh/retree/pkg/plan"
)

// ErrCollisions is returned when a plan with unresolved collisions
// reaches the executor. Validation belongs to the caller; this is the
// last line of defense.
var ErrCollisions = errors.New("plan has naming collisions")

// BackupSuffix is appended to the original path for content backups.
const BackupSuffix = ".bak"

// tmpSuffix marks the sibling temp file used for atomic replacement.
const tmpSuffix = ".retree-tmp"

// Options configures a run.
type Options struct {
	// Workers bounds content-phase parallelism. 0 means available
	// parallelism.
	Workers int
	// Backup copies each file to <path>.bak before editing it.
	Backup bool
	// Progress, when set, is called after every completed operation.
	// It must be safe to call from multiple goroutines.
	Progress func(done, total int)
}

// 🏃 Executor applies plans. It never re-validates collisions beyond
// the ErrCollisions guard; a plan accepted by the detector is
// authoritative for the duration of one run.
type Executor struct {
	matcher match.Matcher
	opts    Options
}

// New creates an executor sharing the run's matcher.
func New(m match.Matcher, opts Options) *Executor {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Executor{matcher: m, opts: opts}
}

// Apply runs the content phase then the rename phase and returns the
// accumulated report. The returned error is non-nil only for run-level
// failures (collisions, cancellation); per-operation failures land in
// the report.
func (e *Executor) Apply(ctx context.Context, p *plan.Plan) (*Report, error) {
	if len(p.Collisions) > 0 {
		return nil, errors.Errorf("%d collision(s) detected: %w", len(p.Collisions), ErrCollisions)
	}

	report := NewReport()
	total := len(p.ContentOps) + len(p.RenameOps)

	if err := e.applyContent(ctx, p.ContentOps, report, total); err != nil {
		return report, err
	}
	if err := e.applyRenames(ctx, p.RenameOps, report, total); err != nil {
		return report, err
	}
	return report, nil
}

// applyContent rewrites file bodies with a bounded worker pool. Files
// are mutually independent so completion order does not matter.
func (e *Executor) applyContent(ctx context.Context, ops []plan.ContentOp, report *Report, total int) error {
	logger := zerolog.Ctx(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, op := range ops {
		op := op
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return errors.Errorf("content phase cancelled: %w", err)
			}

			if err := e.rewriteFile(op.Path); err != nil {
				logger.Debug().Str("path", op.Path).Err(err).Msg("content edit failed")
				report.addError(OperationError{Path: op.Path, Op: OpContent, Err: err})
			} else {
				report.incContent()
			}
			e.progress(report, total)
			return nil
		})
	}

	return g.Wait()
}

// rewriteFile reads, substitutes, and atomically replaces one file,
// preserving its permissions. The backup, when enabled, is written
// before anything else; if it fails the original is left untouched.
func (e *Executor) rewriteFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Errorf("stating file: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Errorf("reading file: %w", err)
	}

	if e.opts.Backup {
		if err := copyFile(path, path+BackupSuffix, info.Mode().Perm()); err != nil {
			return errors.Errorf("writing backup: %w", err)
		}
	}

	replaced := e.matcher.Replace(string(content))

	tmpPath := path + tmpSuffix
	if err := os.WriteFile(tmpPath, []byte(replaced), info.Mode().Perm()); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("replacing file: %w", err)
	}
	return nil
}

// applyRenames walks the ops in execution order, one at a time. A
// failed rename never invalidates later ops: ordering already
// guarantees no later op depends on this one having succeeded.
func (e *Executor) applyRenames(ctx context.Context, ops []plan.RenameOp, report *Report, total int) error {
	logger := zerolog.Ctx(ctx)

	for _, op := range plan.Order(ops) {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("rename phase cancelled: %w", err)
		}

		if err := e.renameOne(op); err != nil {
			logger.Debug().Str("from", op.FromPath).Str("to", op.ToPath).Err(err).Msg("rename failed")
			report.addError(OperationError{Path: op.FromPath, Op: OpRename, Err: err})
		} else {
			report.incRename(op.Kind)
		}
		e.progress(report, total)
	}
	return nil
}

func (e *Executor) renameOne(op plan.RenameOp) error {
	// Defensive re-check: the entry may have vanished since planning.
	if _, err := os.Lstat(op.FromPath); err != nil {
		return errors.Errorf("source disappeared: %w", err)
	}
	if err := os.Rename(op.FromPath, op.ToPath); err != nil {
		return errors.Errorf("renaming: %w", err)
	}
	return nil
}

func (e *Executor) progress(report *Report, total int) {
	if e.opts.Progress != nil {
		e.opts.Progress(report.done(), total)
	}
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return errors.Errorf("creating destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Errorf("copying: %w", err)
	}
	return out.Close()
}
