package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the host application and the snapshot cache respond",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := rt.commandContext(cmd.Context())
			defer cancel()

			status := rt.monitor.Check(ctx)
			out := cmd.OutOrStdout()
			st := newStyles(out)
			line := func(label, value string) {
				fmt.Fprintf(out, "%s%s\n", st.label.Render(label+":"), value)
			}
			mark := func(ok bool) string {
				if ok {
					return st.ok.Render("ok")
				}
				return st.dim.Render("unavailable")
			}

			line("host", fmt.Sprintf("%s (%d open)", mark(status.Host), status.OpenDocuments))
			line("cache", status.Cache)
			switch status.Cache {
			case "bolt":
				line("store", fmt.Sprintf("%s (%d snapshots)", mark(status.Store), status.Snapshots))
			case "redis":
				line("redis", mark(status.Redis))
			}
			for _, msg := range status.Errors {
				fmt.Fprintln(out, st.dim.Render(msg))
			}
			if !status.Healthy() {
				return errors.New("health check failed")
			}
			return nil
		},
	}
}
