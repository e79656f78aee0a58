package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	ws "github.com/nfrund/causal/internal/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print live topic events from a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, _, err := websocket.Dial(ctx, url, nil)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", url, err)
			}
			defer conn.Close(websocket.StatusNormalClosure, "watch finished")

			out := cmd.OutOrStdout()
			for {
				frame, err := ws.ReadFrame(ctx, conn)
				if err != nil {
					if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1 {
						return nil
					}
					return err
				}
				if frame.Type == "subscribed" {
					fmt.Fprintf(out, "Watching %s\n", url)
					continue
				}
				if len(frame.Topic) > 0 {
					fmt.Fprintf(out, "%s\t%d\t%s\n", frame.Type, frame.TopicID, frame.Topic)
				} else {
					fmt.Fprintf(out, "%s\t%d\n", frame.Type, frame.TopicID)
				}
			}
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:5000/ws/topics", "Event stream URL")
	return cmd
}
