// Package engine is the façade the CLI layer talks to: Plan computes
// what a run would do, Apply executes a validated plan. Both share the
// exact same planning pipeline, so a dry-run preview and a real run can
// never disagree.
package engine

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/binary"
	"github.com/walteh/retree/pkg/execute"
	"github.com/walteh/retree/pkg/match"
	"github.com/walteh/retree/pkg/plan"
	"github.com/walteh/retree/pkg/scan"
)

// Config carries everything one invocation needs. It is assembled by
// the CLI layer from flags and the optional config file.
type Config struct {
	Root        string
	Pattern     string
	Replacement string

	Mode          plan.Mode
	MatcherKind   match.Kind
	CaseSensitive bool

	IncludeGlobs   []string
	ExcludeGlobs   []string
	MaxDepth       int
	FollowSymlinks bool
	IncludeHidden  bool

	Threads int
	Backup  bool
	DryRun  bool

	// Progress, when set, receives (done, total) after each applied
	// operation. Must be goroutine-safe.
	Progress func(done, total int)
}

// Validate fails fast, before discovery runs, on anything that would
// make the run meaningless.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root directory is required")
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return errors.Errorf("root directory %q: %w", c.Root, err)
	}
	if !info.IsDir() {
		return errors.Errorf("root path %q is not a directory", c.Root)
	}

	if c.Pattern == "" {
		return errors.New("pattern must not be empty")
	}
	if strings.ContainsAny(c.Replacement, `/\`) && c.MatcherKind == match.KindLiteral {
		return errors.New("replacement must not contain path separators")
	}
	if c.Threads < 0 {
		return errors.Errorf("thread count must not be negative, got %d", c.Threads)
	}
	if c.MaxDepth < 0 {
		return errors.Errorf("max depth must not be negative, got %d", c.MaxDepth)
	}

	// Compiling here surfaces bad regexes as config errors.
	if _, err := c.matcher(); err != nil {
		return err
	}
	return nil
}

func (c *Config) matcher() (match.Matcher, error) {
	return match.New(match.Options{
		Pattern:       c.Pattern,
		Replacement:   c.Replacement,
		Kind:          c.MatcherKind,
		CaseSensitive: c.CaseSensitive,
	})
}

// Plan discovers the tree and computes the full plan, including any
// collisions. It never mutates the filesystem.
func Plan(ctx context.Context, cfg *Config) (*plan.Plan, error) {
	logger := zerolog.Ctx(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid config: %w", err)
	}

	matcher, err := cfg.matcher()
	if err != nil {
		return nil, err
	}

	scanned, err := scan.Walk(ctx, scan.Options{
		Root:           cfg.Root,
		Include:        cfg.IncludeGlobs,
		Exclude:        cfg.ExcludeGlobs,
		MaxDepth:       cfg.MaxDepth,
		FollowSymlinks: cfg.FollowSymlinks,
		IncludeHidden:  cfg.IncludeHidden,
	})
	if err != nil {
		return nil, errors.Errorf("discovering entries: %w", err)
	}

	logger.Debug().
		Int("entries", len(scanned.Entries)).
		Int("access_errors", len(scanned.Errors)).
		Msg("discovery complete")

	p := plan.NewBuilder(matcher, binary.NewClassifier(), cfg.Mode).Build(ctx, scanned)

	logger.Debug().
		Int("content_ops", len(p.ContentOps)).
		Int("rename_ops", len(p.RenameOps)).
		Int("collisions", len(p.Collisions)).
		Msg("plan built")

	return p, nil
}

// Apply executes a plan produced by Plan with the same config. Plans
// with collisions are refused; DryRun configs never reach the executor.
func Apply(ctx context.Context, cfg *Config, p *plan.Plan) (*execute.Report, error) {
	if cfg.DryRun {
		return nil, errors.New("refusing to apply in dry-run mode")
	}

	matcher, err := cfg.matcher()
	if err != nil {
		return nil, err
	}

	executor := execute.New(matcher, execute.Options{
		Workers:  cfg.Threads,
		Backup:   cfg.Backup,
		Progress: cfg.Progress,
	})
	return executor.Apply(ctx, p)
}
