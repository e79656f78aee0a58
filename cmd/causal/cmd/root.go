package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nfrund/causal/internal/app"
	"github.com/spf13/cobra"
)

// loadDeps builds the dependencies for commands that touch the store.
// Tests replace it to point at a temporary store.
var loadDeps = func(ctx context.Context) (*app.Dependencies, error) {
	return app.LoadWithLogOutput(ctx, os.Stderr)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "causal",
		Short: "Causal inference topic service",
		Long: `causal runs the topic service and manages its data.

Available commands:
  serve     Run the HTTP API
  topics    Inspect and delete stored topics
  export    Write every topic to a JSON file
  import    Create topics from a JSON file
  watch     Print live topic events from a running server
  events    List the events the server publishes
  version   Print the version

The store is selected with DATABASE_URL, the same way the server does it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newTopicsCmd(),
		newExportCmd(),
		newImportCmd(),
		newWatchCmd(),
		newEventsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and reports errors on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// withDeps opens the store for the duration of fn.
func withDeps(cmd *cobra.Command, fn func(ctx context.Context, deps *app.Dependencies) error) error {
	ctx := cmd.Context()
	deps, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Repo.Close(context.Background())
	return fn(ctx, deps)
}
