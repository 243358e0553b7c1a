package root

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"studydash/internal/config"
	"studydash/internal/ics"
	appLog "studydash/internal/log"
	"studydash/internal/planner"
	"studydash/internal/store"
)

// app is the wired set of services one command runs against.
type app struct {
	cfg      *config.Config
	loc      *time.Location
	store    *store.Store
	svc      *planner.Service
	importer *ics.Importer
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	loc := resolveLocationOrLocal(cfg.Timezone)

	backend, err := store.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	st := store.New(backend)
	svc := planner.NewService(st, loc)

	appLog.Debug("effective config",
		"config_path", configPath,
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"storage", cfg.Storage.Backend,
		"ics_count", len(cfg.ICS),
		"sync_cron", cfg.Sync.Cron,
	)

	return &app{
		cfg:      cfg,
		loc:      loc,
		store:    st,
		svc:      svc,
		importer: ics.NewImporter(cfg, svc, nil),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		appLog.Error("failed to close store", err)
	}
}

// withApp opens the app for the duration of one command.
func (o *rootOptions) withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
			cmd.SetContext(ctx)
		}
		a, err := openApp(ctx, o.configPath)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
