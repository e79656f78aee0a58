package cmd

import (
	"context"
	"fmt"

	"github.com/nfrund/causal/internal/app"
	"github.com/nfrund/causal/internal/backup"
	"github.com/nfrund/causal/internal/storage"
	"github.com/spf13/cobra"
)

// newFileStore is swapped for an in-memory filesystem in tests.
var newFileStore = func() storage.Store { return storage.NewOSStore() }

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every topic to a JSON file",
		Long: `Write every topic to a JSON document of the form
{"version":1,"exported_at":"...","topics":[...]}. The file is replaced atomically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				n, err := backup.NewService(deps.Repo, newFileStore()).Export(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d topics to %s\n", n, args[0])
				return nil
			})
		},
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create topics from a JSON file",
		Long: `Create a new topic for every record in an export document or a bare JSON
array of topics. Ids in the file are ignored and new ones are assigned.
Records whose tags are a comma-joined string, as older exports stored them,
are split on commas. Invalid records are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				res, err := backup.NewService(deps.Repo, newFileStore()).Import(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range res.Skipped {
					fmt.Fprintf(out, "Skipped record %d (%q): %s\n", s.Index, s.Title, s.Reason)
				}
				fmt.Fprintf(out, "Imported %d topics (%d with legacy tags), skipped %d\n",
					len(res.Created), res.Legacy, len(res.Skipped))
				return nil
			})
		},
	}
}
