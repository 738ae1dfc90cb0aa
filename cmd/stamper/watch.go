package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/stamper/internal/config"
	"github.com/jackzampolin/stamper/internal/watcher"
)

var watchFlags batchFlags

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the batch whenever the manifest changes",
	Long: `Watch processes the manifest once, then again every time the manifest
file is saved, until interrupted. Config file changes are picked up on the
next run.

Examples:
  stamper watch --source ./invoices --dest ./stamped
  stamper watch --source ./in --dest ./out --manifest vouchers.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := watchFlags.validate(); err != nil {
			return err
		}

		e.cfg.OnChange(func(cfg *config.Config) {
			e.logger.Info("config changed, applies to the next run",
				"collision", cfg.Output.Collision,
				"validation", cfg.PDF.Validation,
			)
		})
		e.cfg.WatchConfig()

		path := watchFlags.manifestPath(e)
		e.logger.Info("watching manifest", "file", path)

		return watcher.Watch(cmd.Context(), path, watcher.Options{
			Debounce: e.cfg.Get().Watch.Debounce,
			Logger:   e.logger,
		}, func(ctx context.Context) error {
			sum, err := runBatch(ctx, cmd, e, &watchFlags)
			if sum != nil {
				if outErr := e.output(cmd, sum); outErr != nil {
					return outErr
				}
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	},
}

func init() {
	watchFlags.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}
