package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/driftware/vaultindex/internal/registry/application"
)

var (
	eventsLimit  int
	eventsFollow bool
)

// followInterval is how often --follow polls the durable log for rows
// appended by other processes.
const followInterval = 500 * time.Millisecond

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the registry's event log",
	Long: `Show the registry's durable event log, oldest first. With --follow,
stay attached and print events as other vaultindex invocations append
them.

Examples:
  vaultindex events
  vaultindex events --limit 20
  vaultindex events --follow`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		events, err := e.Service.Events(ctx, eventsLimit)
		if err != nil {
			return err
		}
		var lastID string
		for _, event := range events {
			printEvent(out, event)
			lastID = event.ID
		}

		if !eventsFollow {
			return nil
		}

		// Registrations happen in other vaultindex processes, so the
		// follower tails the shared durable log rather than this
		// process's broker.
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ticker := time.NewTicker(followInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fresh, err := e.Service.EventsSince(ctx, lastID)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				for _, event := range fresh {
					printEvent(out, event)
					lastID = event.ID
				}
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func printEvent(out io.Writer, event application.Event) {
	fmt.Fprintf(out, "%s  %-16s %s asset=%s api=%s\n",
		event.Timestamp.Format(time.RFC3339),
		event.Type,
		event.Payload.Address,
		event.Payload.Asset,
		event.Payload.APIVersion,
	)
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "cap the listing to the newest N events (0 = all)")
	eventsCmd.Flags().BoolVar(&eventsFollow, "follow", false, "stay attached and print new events")

	rootCmd.AddCommand(eventsCmd)
}
