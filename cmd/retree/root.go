package main

import (
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/config"
	"github.com/walteh/retree/pkg/engine"
	"github.com/walteh/retree/pkg/match"
	"github.com/walteh/retree/pkg/plan"
)

// rootFlags holds every flag of the main rename command.
type rootFlags struct {
	dryRun         bool
	force          bool
	verbose        bool
	debug          bool
	backup         bool
	followSymlinks bool
	includeHidden  bool
	ignoreCase     bool
	regex          bool

	filesOnly   bool
	dirsOnly    bool
	namesOnly   bool
	contentOnly bool

	maxDepth   int
	threads    int
	include    []string
	exclude    []string
	format     string
	progress   string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "retree ROOT OLD NEW",
		Short: "Recursively rename files, directories and file contents",
		Long: `retree walks a directory tree and replaces every occurrence of OLD
with NEW: in file names, directory names and text file contents.
Binary files are left untouched. Nothing is changed until the full
plan has been checked for naming collisions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				return usageErr(errors.Errorf("expected ROOT OLD NEW, got %d arguments", len(args)))
			}
			return nil
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if flags.verbose {
				level = zerolog.InfoLevel
			}
			if flags.debug {
				level = zerolog.DebugLevel
			}
			logger := zerolog.Ctx(cmd.Context()).Level(level)
			zerolog.DefaultContextLogger = &logger
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(cmd, flags, args[0], args[1], args[2])
		},
	}

	fs := cmd.Flags()
	fs.BoolVarP(&flags.dryRun, "dry-run", "n", false, "show the plan without changing anything")
	fs.BoolVarP(&flags.force, "force", "f", false, "apply without asking for confirmation")
	fs.BoolVar(&flags.backup, "backup", false, "write a .bak copy before editing file contents")
	fs.BoolVar(&flags.followSymlinks, "follow-symlinks", false, "descend into symlinked directories")
	fs.BoolVar(&flags.includeHidden, "hidden", false, "include hidden files and directories")
	fs.BoolVarP(&flags.ignoreCase, "ignore-case", "i", false, "match the pattern case-insensitively")
	fs.BoolVarP(&flags.regex, "regex", "r", false, "treat OLD as a regular expression")
	fs.BoolVar(&flags.filesOnly, "files-only", false, "rename files and edit contents, leave directories alone")
	fs.BoolVar(&flags.dirsOnly, "dirs-only", false, "rename directories only")
	fs.BoolVar(&flags.namesOnly, "names-only", false, "rename files and directories, leave contents alone")
	fs.BoolVar(&flags.contentOnly, "content-only", false, "edit file contents only, rename nothing")
	fs.IntVar(&flags.maxDepth, "max-depth", 0, "limit recursion depth (0 means unlimited)")
	fs.IntVarP(&flags.threads, "threads", "t", 0, "content edit workers (0 means one per CPU)")
	fs.StringSliceVar(&flags.include, "include", nil, "glob patterns an entry must match to be touched")
	fs.StringSliceVar(&flags.exclude, "exclude", nil, "glob patterns that exempt entries (wins over --include)")
	fs.StringVar(&flags.format, "format", "human", "output format: human, json or plain")
	fs.StringVar(&flags.progress, "progress", "auto", "progress display: auto, never or always")
	fs.StringVarP(&flags.configPath, "config", "c", "", "defaults file (default: .retree.{yaml,json,hcl} in ROOT)")

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable informational logging")
	pf.BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	cmd.MarkFlagsMutuallyExclusive("files-only", "dirs-only", "names-only", "content-only")

	cmd.AddCommand(
		newScrapCmd(),
		newUnscrapCmd(),
		newVerbumpCmd(),
		newDiffCmd(),
	)

	return cmd
}

// resolveMode maps the mutually-exclusive mode flags to a plan mode.
func (f *rootFlags) resolveMode() plan.Mode {
	switch {
	case f.filesOnly:
		return plan.ModeFilesOnly
	case f.dirsOnly:
		return plan.ModeDirsOnly
	case f.namesOnly:
		return plan.ModeNamesOnly
	case f.contentOnly:
		return plan.ModeContentOnly
	default:
		return plan.ModeFull
	}
}

// loadDefaults merges the optional config file into the flag values.
// Flags the user set explicitly always win.
func (f *rootFlags) loadDefaults(cmd *cobra.Command, root string) error {
	path := f.configPath
	if path == "" {
		path = config.Discover(root)
	}
	if path == "" {
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return usageErr(err)
	}

	fs := cmd.Flags()
	if !fs.Changed("include") && len(cfg.Include) > 0 {
		f.include = cfg.Include
	}
	if !fs.Changed("exclude") && len(cfg.Exclude) > 0 {
		f.exclude = cfg.Exclude
	}
	if !fs.Changed("threads") && cfg.Threads > 0 {
		f.threads = cfg.Threads
	}
	if !fs.Changed("max-depth") && cfg.MaxDepth > 0 {
		f.maxDepth = cfg.MaxDepth
	}
	if !fs.Changed("backup") && cfg.Backup {
		f.backup = true
	}
	if !fs.Changed("hidden") && cfg.IncludeHidden {
		f.includeHidden = true
	}
	if !fs.Changed("progress") && cfg.Progress != "" {
		f.progress = cfg.Progress
	}
	return nil
}

// engineConfig assembles the engine config from flags and arguments.
func (f *rootFlags) engineConfig(root, oldPattern, newPattern string) *engine.Config {
	kind := match.KindLiteral
	if f.regex {
		kind = match.KindRegex
	}
	return &engine.Config{
		Root:           root,
		Pattern:        oldPattern,
		Replacement:    newPattern,
		Mode:           f.resolveMode(),
		MatcherKind:    kind,
		CaseSensitive:  !f.ignoreCase,
		IncludeGlobs:   f.include,
		ExcludeGlobs:   f.exclude,
		MaxDepth:       f.maxDepth,
		FollowSymlinks: f.followSymlinks,
		IncludeHidden:  f.includeHidden,
		Threads:        f.threads,
		Backup:         f.backup,
		DryRun:         f.dryRun,
	}
}

// showProgress decides whether a progress bar is drawn.
func (f *rootFlags) showProgress() bool {
	switch f.progress {
	case "always":
		return true
	case "never":
		return false
	default:
		return f.format == "human" && isatty.IsTerminal(os.Stderr.Fd())
	}
}

func validFormat(format string) bool {
	switch format {
	case "human", "json", "plain":
		return true
	}
	return false
}

func absRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Errorf("resolving root path: %w", err)
	}
	return abs, nil
}
