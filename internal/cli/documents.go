package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/planbridge/domain"
)

func (a *app) docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List open documents, front window first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := rt.commandContext(cmd.Context())
			defer cancel()

			names, err := rt.projects.DocumentNames(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No open documents.")
				return nil
			}
			for i, name := range names {
				fmt.Fprintf(out, "%d\t%s\n", i+1, name)
			}
			return nil
		},
	}
}

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the task outline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := rt.commandContext(cmd.Context())
			defer cancel()

			doc, err := a.open(ctx, rt)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, newStyles(out).title.Render(doc.Name()))
			return doc.PrintTree(out)
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show the properties and relations of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := rt.commandContext(cmd.Context())
			defer cancel()

			doc, err := a.open(ctx, rt)
			if err != nil {
				return err
			}
			task, err := doc.TaskForID(id)
			if err != nil {
				return err
			}
			writeTask(cmd.OutOrStdout(), task)
			return nil
		},
	}
}

func (a *app) findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <name> <value>",
		Short: "List tasks whose custom data entry name has the given value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime(cmd.Context())
			if err != nil {
				return err
			}
			ctx, cancel := rt.commandContext(cmd.Context())
			defer cancel()

			doc, err := a.open(ctx, rt)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tasks := doc.TasksForCustomDataValue(args[0], args[1])
			if len(tasks) == 0 {
				fmt.Fprintf(out, "No tasks with %s = %q.\n", args[0], args[1])
				return nil
			}
			for _, t := range tasks {
				fmt.Fprintf(out, "%d\t%s\t%s\n", t.ID(), t.OutlineNumber(), t.Name())
			}
			return nil
		},
	}
}

func writeTask(out io.Writer, t *domain.Task) {
	st := newStyles(out)
	line := func(label, value string) {
		fmt.Fprintf(out, "  %s%s\n", st.label.Render(label+":"), value)
	}

	fmt.Fprintln(out, st.title.Render(t.String()))
	line("outline", t.OutlineNumber())
	line("type", fmt.Sprintf("%s  status %s", t.TaskType(), t.TaskStatus()))
	line("effort", fmt.Sprintf("%s (completed %s, remaining %s)", t.Effort(), t.CompletedEffort(), t.RemainingEffort()))
	line("duration", t.Duration().String())
	line("start", formatDate(t.StartingDate()))
	line("end", formatDate(t.EndingDate()))
	if d := t.StartingConstraintDate(); d != nil {
		line("not before", formatDate(d))
	}
	if d := t.EndingConstraintDate(); d != nil {
		line("not after", formatDate(d))
	}
	line("priority", strconv.FormatInt(t.Priority(), 10))
	line("cost", strconv.FormatFloat(t.TotalCost(), 'f', 2, 64))

	custom := t.CustomData()
	for _, name := range slices.Sorted(maps.Keys(custom)) {
		line("custom", fmt.Sprintf("%s = %s", name, custom[name]))
	}
	for _, dep := range t.Prerequisites() {
		line("depends on", fmt.Sprintf("%s %s", dep.PrerequisiteTask(), st.dim.Render(string(dep.Type()))))
	}
	for _, dep := range t.Dependents() {
		line("blocks", dep.DependentTask().String())
	}
	for _, as := range t.Assignments() {
		line("resource", fmt.Sprintf("%s x%s", as.Resource().Name(), strconv.FormatFloat(as.Units(), 'f', -1, 64)))
	}
	if children := t.Children(); len(children) > 0 {
		names := make([]string, 0, len(children))
		for _, c := range children {
			names = append(names, strconv.FormatInt(c.ID(), 10))
		}
		line("subtasks", strings.Join(names, ", "))
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04 MST")
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}
