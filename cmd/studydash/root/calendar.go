package root

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studydash/internal/calendar"
	"studydash/internal/model"
	"studydash/internal/ui"
)

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var month string
	var selected string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month grid with its events",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			today := a.svc.Today()

			anchor := today
			if month != "" {
				t, err := calendar.ParseMonth(month, a.loc)
				if err != nil {
					return err
				}
				anchor = t
			}

			var sel *time.Time
			if selected != "" {
				t, err := model.ParseDate(selected, a.loc)
				if err != nil {
					return fmt.Errorf("selected date %q: %w", selected, err)
				}
				sel = &t
			}

			view := calendar.NewView(anchor, sel, today, a.svc.Record(cmd.Context()).Events)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.MonthGrid(view))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to show (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVarP(&selected, "selected", "s", "", "Highlight a date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the month view as JSON")
	return cmd
}

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and rename calendar events",
	}
	cmd.AddCommand(newEventsListCmd(opts), newEventsRenameCmd(opts))
	return cmd
}

func newEventsListCmd(opts *rootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, optionally for one month",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			events := a.svc.Record(cmd.Context()).Events
			if month != "" {
				anchor, err := calendar.ParseMonth(month, a.loc)
				if err != nil {
					return err
				}
				events = calendar.MonthEvents(events, anchor)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("no events"))
				return nil
			}
			for _, ev := range events {
				fmt.Fprintf(out, "%s  %s %s\n", ui.Key.Render(ev.Date), ev.Title, ui.Muted.Render("("+ev.ID+")"))
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to list (YYYY-MM)")
	return cmd
}

func newEventsRenameCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Change an event's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ev, err := a.svc.RenameEvent(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s\n", ui.IconCalendar, ui.Key.Render(ev.Date), ev.Title)
			return nil
		}),
	}
}
