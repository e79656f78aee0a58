package cmd

import (
	"github.com/nfrund/causal/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the topic HTTP API on APP_ADDR until interrupted.

Routes:
  /topics, /api/topics   CRUD over topics
  /health                store health
  /metrics               Prometheus metrics (METRICS_ENABLED)
  /ws/topics             WebSocket stream of topic events`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := loadDeps(cmd.Context())
			if err != nil {
				return err
			}
			return app.Serve(cmd.Context(), deps)
		},
	}
}
