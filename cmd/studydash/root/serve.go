package root

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "studydash/internal/log"
	"studydash/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API (and run scheduled calendar sync)",
		Args:  cobra.NoArgs,
		RunE: opts.withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			// --listen overrides config file listen if provided.
			if listen != "" {
				a.cfg.Listen = listen
			}

			appLog.Info("studydash starting", "version", Version, "listen", a.cfg.Listen, "timezone", a.loc.String())

			// Root context with cancellation on SIGINT/SIGTERM.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					appLog.Info("signal received, shutting down", "signal", sig.String())
					cancel()
				case <-ctx.Done():
				}
			}()

			var srv *web.Server
			if len(a.importer.Sources()) > 0 {
				srv = web.NewServer(a.cfg, a.svc, a.importer)
			} else {
				srv = web.NewServer(a.cfg, a.svc, nil)
			}

			if a.cfg.Sync.Cron != "" && len(a.importer.Sources()) > 0 {
				c, err := startSyncCron(ctx, a, srv)
				if err != nil {
					return err
				}
				defer func() { <-c.Stop().Done() }()
			}

			err := srv.ListenAndServe(ctx)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			appLog.Info("studydash exiting")
			return nil
		}),
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

// startSyncCron schedules the ICS import on cfg.Sync.Cron in the app's
// timezone. Overlapping runs are skipped.
func startSyncCron(ctx context.Context, a *app, srv *web.Server) (*cron.Cron, error) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(a.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(a.cfg.Sync.Cron, func() {
		reports, err := a.importer.Sync(ctx)
		srv.RecordSync(time.Now(), reports, err)
		if err != nil {
			appLog.Error("scheduled sync failed", err)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	appLog.Info("scheduled calendar sync", "cron", a.cfg.Sync.Cron, "sources", len(a.importer.Sources()))
	return c, nil
}

// cronLogger routes robfig/cron's logging into internal/log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
