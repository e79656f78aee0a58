package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nfrund/causal/cmd/causal/internal/format"
	"github.com/nfrund/causal/internal/app"
	"github.com/spf13/cobra"
)

func newTopicsCmd() *cobra.Command {
	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Inspect and delete stored topics",
		Long: `The topics command works directly on the configured store.

Examples:
  # List all topics as a table
  causal topics list

  # Show one topic as JSON
  causal topics get 1 --output json

  # Delete a topic
  causal topics delete 1`,
	}
	topicsCmd.AddCommand(newTopicsListCmd(), newTopicsGetCmd(), newTopicsDeleteCmd())
	return topicsCmd
}

func newTopicsListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				topics, err := deps.Repo.List(ctx)
				if err != nil {
					return err
				}
				return format.Topics(cmd.OutOrStdout(), output, topics)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", format.Table, "Output format (table, json)")
	return cmd
}

func newTopicsGetCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				t, err := deps.Repo.FindByID(ctx, id)
				if err != nil {
					return err
				}
				return format.Topic(cmd.OutOrStdout(), output, t)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", format.Table, "Output format (table, json)")
	return cmd
}

func newTopicsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a topic permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withDeps(cmd, func(ctx context.Context, deps *app.Dependencies) error {
				if err := deps.Repo.DeleteByID(ctx, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted topic %d\n", id)
				return nil
			})
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid topic id %q: must be a positive integer", raw)
	}
	return id, nil
}
