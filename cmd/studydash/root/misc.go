package root

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studydash/internal/config"
	"studydash/internal/ics"
	"studydash/internal/ui"
)

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the display name or avatar",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "name <name>",
			Short: "Set the display name",
			Args:  cobra.MinimumNArgs(1),
			RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app) error {
				return a.svc.SetName(cmd.Context(), strings.Join(args, " "))
			}),
		},
		&cobra.Command{
			Use:   "avatar <ref>",
			Short: "Set the avatar (path, URL or data URL)",
			Args:  cobra.ExactArgs(1),
			RunE: opts.withApp(func(cmd *cobra.Command, args []string, a *app) error {
				return a.svc.SetAvatar(cmd.Context(), args[0])
			}),
		},
	)
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task completion and subject progress",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			rec := a.svc.Record(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("Student", rec.Name))
			fmt.Fprint(cmd.OutOrStdout(), ui.StatsPanel(a.svc.Stats(cmd.Context())))
			return nil
		}),
	}
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import events from the configured ICS feeds once",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			reports, err := a.importer.Sync(cmd.Context())
			fmt.Fprint(cmd.OutOrStdout(), ui.SyncReport(reports))
			return err
		}),
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write events and tasks as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			body := ics.Export(a.svc.Record(cmd.Context()), a.svc.Now())
			if out == "" || out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if err := config.WriteFileAtomic(out, []byte(body), ".studydash-export-*.ics"); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, ui.Muted.Render("wrote "+out))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}
