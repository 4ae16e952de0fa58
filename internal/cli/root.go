package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags.
type globalOptions struct {
	document string
	cache    string
	verbose  bool
}

// app carries state shared by all commands of one invocation.
type app struct {
	factory runtimeFactory
	opts    globalOptions
	rt      *runtime
}

func newApp(factory runtimeFactory) *app {
	return &app{factory: factory}
}

// runtime builds the runtime on first use so that commands failing flag
// validation never touch the host.
func (a *app) runtime(ctx context.Context) (*runtime, error) {
	if a.rt != nil {
		return a.rt, nil
	}
	rt, err := a.factory(ctx, a.opts)
	if err != nil {
		return nil, err
	}
	a.rt = rt
	return rt, nil
}

func (a *app) close(ctx context.Context) error {
	if a.rt == nil {
		return nil
	}
	err := a.rt.lifecycle.Shutdown(ctx)
	a.rt = nil
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "planctl",
		Short: "Inspect and edit OmniPlan documents",
		Long: `planctl reads OmniPlan documents into a task tree and writes edits back
through AppleScript.

Documents are addressed by name (--doc) and default to the front window.
Snapshots of document data can be cached in BoltDB or Redis (--cache).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.opts.document, "doc", "d", "", "Document name (default: front window)")
	root.PersistentFlags().StringVar(&a.opts.cache, "cache", "", "Snapshot cache: none, bolt or redis (default from CACHE_BACKEND)")
	root.PersistentFlags().BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(a.docsCmd())
	root.AddCommand(a.treeCmd())
	root.AddCommand(a.showCmd())
	root.AddCommand(a.findCmd())
	root.AddCommand(a.setEffortCmd())
	root.AddCommand(a.setCustomCmd())
	root.AddCommand(a.assignCmd())
	root.AddCommand(a.addTaskCmd())
	root.AddCommand(a.cacheCmd())
	root.AddCommand(a.statusCmd())
	return root
}

// run executes the command tree with args and releases the runtime.
func (a *app) run(ctx context.Context, root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close(context.WithoutCancel(ctx)))
}

// Execute runs the planctl command line.
func Execute(version string) error {
	a := newApp(buildRuntime)
	root := a.rootCmd()
	root.Version = version
	if err := a.run(context.Background(), root, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
