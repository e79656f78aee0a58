package cmd

import (
	"github.com/nfrund/causal/cmd/causal/internal/format"
	"github.com/nfrund/causal/internal/pubsub"
	"github.com/spf13/cobra"

	// Registers the topic events in the catalog.
	_ "github.com/nfrund/causal/internal/topic"
)

func newEventsCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the events the server publishes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return format.Events(cmd.OutOrStdout(), output, pubsub.Events())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", format.Table, "Output format (table, json)")
	return cmd
}
