package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/planbridge/domain"
)

// editTask loads the document live, applies edit to the task and commits.
// With dryRun set the script is printed instead of sent.
func (a *app) editTask(cmd *cobra.Command, rawID string, dryRun bool, edit func(*domain.Document, *domain.Task) (string, error)) error {
	id, err := parseTaskID(rawID)
	if err != nil {
		return err
	}
	rt, err := a.runtime(cmd.Context())
	if err != nil {
		return err
	}
	ctx, cancel := rt.commandContext(cmd.Context())
	defer cancel()

	doc, err := a.openLive(ctx, rt)
	if err != nil {
		return err
	}
	task, err := doc.TaskForID(id)
	if err != nil {
		return err
	}
	summary, err := edit(doc, task)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	script, err := task.Commit(ctx, dryRun)
	if err != nil {
		return err
	}
	if dryRun {
		fmt.Fprint(out, script)
		return nil
	}
	invalidate(ctx, rt, doc.Name())
	fmt.Fprintln(out, newStyles(out).ok.Render(summary))
	return nil
}

// invalidate drops the snapshot stored by openLive, which predates the
// edit just sent to the host. The edit itself already succeeded, so a
// failure here is only logged.
func invalidate(ctx context.Context, rt *runtime, document string) {
	if err := rt.projects.Forget(ctx, document); err != nil {
		rt.logger.Warn("stale snapshot kept after edit", zap.String("document", document), zap.Error(err))
	}
}

func (a *app) setEffortCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "set-effort <task-id> <workdays>",
		Short: "Set the planned effort of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.ParseFloat(args[1], 64)
			if err != nil || days < 0 {
				return fmt.Errorf("invalid effort %q", args[1])
			}
			return a.editTask(cmd, args[0], dryRun, func(_ *domain.Document, t *domain.Task) (string, error) {
				before := t.Effort()
				t.SetEffort(domain.Workdays(days))
				return fmt.Sprintf("%s: effort %s -> %s", t, before, t.Effort()), nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the script instead of running it")
	return cmd
}

func (a *app) setCustomCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "set-custom <task-id> <name> <value>",
		Short: "Set a custom data entry on a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editTask(cmd, args[0], dryRun, func(_ *domain.Document, t *domain.Task) (string, error) {
				t.SetCustomDataValue(args[1], args[2])
				return fmt.Sprintf("%s: %s = %s", t, args[1], args[2]), nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the script instead of running it")
	return cmd
}

func (a *app) assignCmd() *cobra.Command {
	var (
		dryRun bool
		units  float64
	)
	cmd := &cobra.Command{
		Use:   "assign <task-id> <resource-name>",
		Short: "Assign a resource to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if units <= 0 {
				return fmt.Errorf("units must be positive, got %v", units)
			}
			return a.editTask(cmd, args[0], dryRun, func(doc *domain.Document, t *domain.Task) (string, error) {
				r, err := doc.ResourceForName(args[1])
				if err != nil {
					return "", err
				}
				t.AssignResourceUnits(r, units)
				return fmt.Sprintf("%s assigned to %s", r, t), nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the script instead of running it")
	cmd.Flags().Float64Var(&units, "units", 1, "Assignment units")
	return cmd
}

func (a *app) addTaskCmd() *cobra.Command {
	var (
		parentID int64
		effort   float64
	)
	cmd := &cobra.Command{
		Use:   "add-task <name>",
		Short: "Create a task at the top level or below --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := rt.commandContext(cmd.Context())
			defer cancel()

			doc, err := a.openLive(ctx, rt)
			if err != nil {
				return err
			}
			var parent domain.TaskCollection = doc
			if parentID > 0 {
				if parent, err = doc.TaskForID(parentID); err != nil {
					return err
				}
			}
			props := domain.TaskProperties{"name": args[0]}
			if effort > 0 {
				props["effort"] = domain.Workdays(effort)
			}
			task, err := parent.CreateTask(ctx, props)
			if err != nil {
				return err
			}
			invalidate(ctx, rt, doc.Name())
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, newStyles(out).ok.Render("created "+task.String()))
			return nil
		},
	}
	cmd.Flags().Int64Var(&parentID, "parent", 0, "Id of the parent task")
	cmd.Flags().Float64Var(&effort, "effort", 0, "Planned effort in workdays")
	return cmd
}
