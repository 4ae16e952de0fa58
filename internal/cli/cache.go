package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastygo/planbridge/internal/services"
)

var errCacheDisabled = errors.New("snapshot cache is disabled, use --cache bolt or --cache redis")

func (a *app) cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage document snapshots",
	}
	cmd.AddCommand(a.cacheWarmCmd())
	cmd.AddCommand(a.cacheDropCmd())
	return cmd
}

func (a *app) cacheWarmCmd() *cobra.Command {
	var every bool
	cmd := &cobra.Command{
		Use:   "warm [document...]",
		Short: "Load documents from the host and store their snapshots",
		Long: `Load documents from the host and store their snapshots.

Without arguments the documents listed in REFRESH_DOCUMENTS are refreshed,
or every open document when that is empty. With --every the refresh repeats
on REFRESH_INTERVAL until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			if !rt.projects.CacheEnabled() {
				return errCacheDisabled
			}
			documents := args
			if len(documents) == 0 {
				documents = rt.cfg.Refresh.Documents
			}
			refresher := services.NewSnapshotRefresher(rt.projects, rt.cleaner, rt.logger, services.RefresherConfig{
				Interval:  rt.cfg.Refresh.Interval,
				Documents: documents,
				Retention: rt.cfg.Cache.Retention,
			})

			if !every {
				ctx, cancel := rt.commandContext(cmd.Context())
				defer cancel()
				if err := refresher.RunOnce(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Snapshots refreshed.")
				return nil
			}

			ctx, cancel := rt.lifecycle.NotifyContext(cmd.Context())
			defer cancel()
			rt.lifecycle.Register("snapshot refresher", refresher.Stop)
			if err := refresher.RunOnce(ctx); err != nil {
				rt.logger.Sugar().Warnw("initial refresh incomplete", "error", err)
			}
			refresher.Start()
			fmt.Fprintf(cmd.OutOrStdout(), "Refreshing every %s, press Ctrl-C to stop.\n", rt.cfg.Refresh.Interval)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&every, "every", false, "Keep refreshing on the configured interval")
	return cmd
}

func (a *app) cacheDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <document>...",
		Short: "Delete stored snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			if !rt.projects.CacheEnabled() {
				return errCacheDisabled
			}
			ctx, cancel := rt.commandContext(cmd.Context())
			defer cancel()
			for _, name := range args {
				if err := rt.projects.Forget(ctx, name); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped %d snapshot(s).\n", len(args))
			return nil
		},
	}
}
