package root

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"studydash/internal/model"
	"studydash/internal/planner"
	"studydash/internal/ui"
)

func newSubjectsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Show and adjust subject progress",
	}
	cmd.AddCommand(newSubjectsListCmd(opts), newSubjectsStepCmd(opts), newSubjectsSetCmd(opts))
	return cmd
}

func newSubjectsListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List subjects with progress bars",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconBook, "Subjects"))
			fmt.Fprint(cmd.OutOrStdout(), ui.SubjectList(a.svc.Record(cmd.Context()).Subjects))
			return nil
		}),
	}
}

func newSubjectsStepCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "step <id> <delta>",
		Short: fmt.Sprintf("Move progress by one of %v", planner.ProgressSteps),
		Args:  cobra.ExactArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta %q: %w", args[1], planner.ErrInvalidInput)
			}
			sub, err := a.svc.StepSubjectProgress(cmd.Context(), args[0], delta)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.SubjectList([]model.Subject{sub}))
			return nil
		}),
	}
}

func newSubjectsSetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <progress>",
		Short: "Set progress (clamped to 0-100)",
		Args:  cobra.ExactArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			progress, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("progress %q: %w", args[1], planner.ErrInvalidInput)
			}
			sub, err := a.svc.SetSubjectProgress(cmd.Context(), args[0], progress)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.SubjectList([]model.Subject{sub}))
			return nil
		}),
	}
}
