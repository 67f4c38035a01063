package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/driftware/vaultindex/internal/log"
	"github.com/driftware/vaultindex/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload the manifest whenever the deployment tooling updates it",
	Long: `Watch the deployment manifest and reload the release table whenever
it changes. Reloads are debounced (see watch_debounce); a manifest that
fails validation is skipped and the previous state stays live.

Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		w, err := watcher.New(watcher.Config{
			Path:        cfg.ManifestPath,
			DebounceDur: cfg.WatchDebounce,
		})
		if err != nil {
			return fmt.Errorf("create manifest watcher: %w", err)
		}
		defer func() { _ = w.Stop() }()

		onChange, err := w.Start()
		if err != nil {
			return fmt.Errorf("start manifest watcher: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "watching %s (debounce %s)\n", cfg.ManifestPath, cfg.WatchDebounce)

		// With --debug, mirror log entries to stderr so a foreground watch
		// session shows what the reloads are doing.
		var logEvents <-chan log.LogEvent
		if cfg.Debug {
			logEvents = log.NewListener(ctx)
		}

		for {
			select {
			case entry, ok := <-logEvents:
				if !ok {
					logEvents = nil
					continue
				}
				fmt.Fprint(cmd.ErrOrStderr(), entry.Payload)
			case <-onChange:
				if err := e.Store.ReloadFromFile(cfg.ManifestPath); err != nil {
					log.ErrorErr(log.CatWatcher, "manifest reload failed", err, "path", cfg.ManifestPath)
					fmt.Fprintf(out, "reload failed, keeping previous state: %v\n", err)
					continue
				}
				releases := e.Store.Releases()
				fmt.Fprintf(out, "manifest reloaded: %d releases\n", len(releases))
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
