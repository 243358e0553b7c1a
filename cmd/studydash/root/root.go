package root

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"studydash/internal/ui"
)

const Version = "0.1.0"

const defaultConfigPath = "./studydash.yaml"

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "studydash",
		Short:         "Student dashboard: tasks, subjects and a month calendar",
		Long:          "studydash keeps a single student's tasks, subject progress and calendar events, served as a JSON API or driven from the terminal.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newTasksCmd(opts),
		newSubjectsCmd(opts),
		newCalendarCmd(opts),
		newEventsCmd(opts),
		newProfileCmd(opts),
		newStatsCmd(opts),
		newSyncCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconWarn+" "+err.Error()))
		os.Exit(1)
	}
}
