package main

import (
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/engine"
	"github.com/walteh/retree/pkg/execute"
)

// runRename is the main command: plan the whole tree, refuse on
// collisions, then apply unless this is a dry run.
func runRename(cmd *cobra.Command, flags *rootFlags, root, oldPattern, newPattern string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	if !validFormat(flags.format) {
		return usageErr(errors.Errorf("unknown format %q, want human, json or plain", flags.format))
	}
	if err := flags.loadDefaults(cmd, root); err != nil {
		return err
	}

	absolute, err := absRoot(root)
	if err != nil {
		return usageErr(err)
	}

	cfg := flags.engineConfig(absolute, oldPattern, newPattern)
	if err := cfg.Validate(); err != nil {
		return usageErr(err)
	}

	p, err := engine.Plan(ctx, cfg)
	if err != nil {
		return err
	}

	renderer := newRenderer(flags.format, cmd.OutOrStdout(), *logger)
	renderer.Plan(absolute, p, flags.dryRun)

	if len(p.Collisions) > 0 {
		return &codedError{code: exitCollisions, err: execute.ErrCollisions}
	}
	if flags.dryRun || !p.HasChanges() {
		return nil
	}

	if !flags.force && flags.format == "human" {
		ok, err := pterm.DefaultInteractiveConfirm.
			WithDefaultText("Apply these changes?").
			Show()
		if err != nil || !ok {
			logger.Info().Msg("aborted by user")
			return nil
		}
	}

	var bar *pterm.ProgressbarPrinter
	if flags.showProgress() {
		total := len(p.ContentOps) + len(p.RenameOps)
		bar, _ = pterm.DefaultProgressbar.WithTotal(total).WithTitle("applying").Start()
		// The callback fires from the content-phase workers and the
		// progress bar is not documented as goroutine-safe.
		var barMu sync.Mutex
		cfg.Progress = func(done, total int) {
			barMu.Lock()
			bar.Increment()
			barMu.Unlock()
		}
	}

	report, err := engine.Apply(ctx, cfg, p)
	if bar != nil {
		_, _ = bar.Stop()
	}
	if err != nil {
		return err
	}

	renderer.Report(report)

	switch {
	case report.PermissionDenied():
		return &codedError{code: exitPermissions, err: errors.New("some changes failed with permission denied")}
	case report.HasErrors():
		return errors.Errorf("%d operations failed", len(report.Errors))
	}
	return nil
}
