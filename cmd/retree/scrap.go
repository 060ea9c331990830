package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/retree/pkg/trash"
)

// newScrapCmd moves paths into the .scrap folder and manages it.
func newScrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrap PATH...",
		Short: "Move files or directories into the .scrap folder",
		Long: `Scrap moves paths into a .scrap folder in the current directory
instead of deleting them, so they can be restored later with unscrap.
The folder is added to .gitignore when one exists.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := trash.NewStore(mustWorkDir())
			for _, path := range args {
				name, err := store.Scrap(cmd.Context(), path)
				if err != nil {
					return errors.Errorf("scrapping %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
					color.GreenString("scrapped"), path, color.New(color.FgCyan).Sprint("->"), name)
			}
			return nil
		},
	}

	cmd.AddCommand(
		newScrapListCmd(),
		newScrapCleanCmd(),
		newScrapPurgeCmd(),
		newScrapFindCmd(),
	)
	return cmd
}

func newScrapListCmd() *cobra.Command {
	var sortBy string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scrapped items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := trash.NewStore(mustWorkDir()).List(cmd.Context(), trash.SortKey(sortBy))
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "scrap folder is empty")
				return nil
			}
			for _, item := range items {
				kind := " "
				if item.IsDir {
					kind = "d"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %9d  %s  %s\n",
					kind, item.Size, item.ScrappedAt.Format("2006-01-02 15:04"), item.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "date", "sort key: date, name or size")
	return cmd
}

func newScrapCleanCmd() *cobra.Command {
	var (
		olderThan time.Duration
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete scrapped items older than a cutoff",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := trash.NewStore(mustWorkDir()).Clean(cmd.Context(), olderThan, dryRun)
			if err != nil {
				return err
			}
			verb := "removed"
			if dryRun {
				verb = "would remove"
			}
			for _, name := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, name)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age cutoff for deletion")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be deleted")
	return cmd
}

func newScrapPurgeCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete the entire .scrap folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return usageErr(errors.New("purge is destructive, pass --force to confirm"))
			}
			return trash.NewStore(mustWorkDir()).Purge(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm permanent deletion")
	return cmd
}

func newScrapFindCmd() *cobra.Command {
	var searchContent bool

	cmd := &cobra.Command{
		Use:   "find PATTERN",
		Short: "Search scrapped items by name or content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := trash.NewStore(mustWorkDir()).Find(cmd.Context(), args[0], searchContent)
			if err != nil {
				return err
			}
			for _, name := range matches {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&searchContent, "content", false, "also search inside text files")
	return cmd
}

// newUnscrapCmd restores items from the .scrap folder.
func newUnscrapCmd() *cobra.Command {
	var (
		destDir string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "unscrap [NAME]",
		Short: "Restore a scrapped item to its original location",
		Long: `Unscrap moves an item out of the .scrap folder, back to where it was
scrapped from. Without a name the most recently scrapped item is
restored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := trash.NewStore(mustWorkDir())

			var (
				restored string
				err      error
			)
			if len(args) == 0 {
				restored, err = store.RestoreLatest(cmd.Context(), force)
			} else {
				restored, err = store.Restore(cmd.Context(), args[0], destDir, force)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("restored"), restored)
			return nil
		},
	}

	cmd.Flags().StringVar(&destDir, "to", "", "restore into this directory instead of the origin")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file at the destination")
	return cmd
}

func mustWorkDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}
