package root

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"studydash/internal/model"
	"studydash/internal/ui"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List, add and toggle tasks",
	}
	cmd.AddCommand(newTasksListCmd(opts), newTasksAddCmd(opts), newTasksToggleCmd(opts))
	return cmd
}

func newTasksListCmd(opts *rootOptions) *cobra.Command {
	var pendingOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			tasks := a.svc.Record(cmd.Context()).Tasks
			if pendingOnly {
				kept := tasks[:0]
				for _, t := range tasks {
					if !t.Completed {
						kept = append(kept, t)
					}
				}
				tasks = kept
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconTask, "Tasks"))
			fmt.Fprint(cmd.OutOrStdout(), ui.TaskList(tasks))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&pendingOnly, "pending", false, "Only show tasks that are not completed")
	return cmd
}

func newTasksAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task dated today",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("task text is required")
			}
			return nil
		},
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			task, err := a.svc.AddTask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s added %s %s\n", ui.IconTask, ui.Key.Render("["+task.ID+"]"), task.Text)
			return nil
		}),
	}
}

func newTasksToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a task between pending and completed",
		Args:  cobra.ExactArgs(1),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			task, err := a.svc.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.TaskList([]model.Task{task}))
			return nil
		}),
	}
}
