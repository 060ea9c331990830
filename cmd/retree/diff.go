package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walteh/retree/pkg/diffline"
)

// newDiffCmd prints a line diff of two files.
func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff FILE_A FILE_B",
		Short: "Show a line diff between two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := diffline.CompareFiles(args[0], args[1])
			if err != nil {
				return err
			}
			if !res.HasChanges() {
				fmt.Fprintln(cmd.OutOrStdout(), "files are identical")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Render())
			return &codedError{code: exitError, err: errDiffers}
		},
	}
	return cmd
}

var errDiffers = fmt.Errorf("files differ")
