package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fractalizend/screener/internal/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var restoreList bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all pair state, archiving a snapshot first when configured",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		res, err := a.Admin.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d pairs\n", res.Deleted)
		if res.Snapshot != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot: %s\n", res.Snapshot)
		}
		return nil
	}),
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo pairs through the normal ingestion path",
	Args:  cobra.NoArgs,
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		results, err := a.Ingest.Seed(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s changed=%t notified=%t\n", r.Pair, r.Changed, r.Notified)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d pairs\n", len(results))
		return nil
	}),
}

var restoreCmd = &cobra.Command{
	Use:   "restore [snapshot-key]",
	Short: "Restore pairs from an archived snapshot (newest when no key is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
		if restoreList {
			keys, err := a.Admin.Snapshots(ctx)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No snapshots")
			}
			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		}

		var key string
		if len(args) == 1 {
			key = args[0]
		}
		n, err := a.Admin.Restore(ctx, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d pairs\n", n)
		return nil
	}),
}

func init() {
	restoreCmd.Flags().BoolVarP(&restoreList, "list", "l", false, "list snapshot keys instead of restoring")

	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(restoreCmd)
}

// withApp loads config, wires the application and runs fn with a bounded
// context.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(newLogger(nil))
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log := newLogger(cfg)
		defer log.Sync()

		a, err := app.New(cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn("closing application", zap.Error(err))
			}
		}()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		return fn(ctx, cmd, a, args)
	}
}
