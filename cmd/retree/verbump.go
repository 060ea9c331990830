package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/verbump"
)

// newVerbumpCmd derives a version from git history and writes it out.
func newVerbumpCmd() *cobra.Command {
	var (
		show        bool
		installHook bool
	)

	cmd := &cobra.Command{
		Use:   "verbump",
		Short: "Derive a version number from git history",
		Long: `Verbump computes MAJOR.MINOR.PATCH from the repository: MAJOR is the
newest tag, MINOR the commit count since it, PATCH the total line
churn across history. The result is written to the version file and
staged, so a pre-commit hook keeps it current.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			calc := verbump.NewCalculator(mustWorkDir())

			if !calc.IsRepository(ctx) {
				return errors.New("not inside a git repository")
			}

			if installHook {
				if err := calc.InstallHook(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "pre-commit hook installed")
				return nil
			}

			root, err := calc.Root(ctx)
			if err != nil {
				return err
			}
			cfg, err := verbump.LoadConfig(root)
			if err != nil {
				return err
			}

			info, err := calc.Calculate(ctx)
			if err != nil {
				return err
			}

			if show {
				fmt.Fprintln(cmd.OutOrStdout(), info.Full)
				return nil
			}
			if !cfg.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "verbump is disabled in "+verbump.ConfigFileName)
				return nil
			}

			if err := calc.WriteVersionFile(ctx, info, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %s written to %s\n", info.Full, cfg.VersionFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the version without writing anything")
	cmd.Flags().BoolVar(&installHook, "install-hook", false, "install a pre-commit hook running verbump")
	return cmd
}
