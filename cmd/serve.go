package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kamusis/answerhub/internal/config"
	"github.com/kamusis/answerhub/internal/redeploy"
	"github.com/kamusis/answerhub/internal/server"
	"github.com/kamusis/answerhub/internal/upload"
)

var (
	flagServeListen      string
	flagServeKeepUploads bool
	flagServeWatch       bool
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question-answering HTTP API",
	Long: `Start the HTTP API:

  POST /          multipart form: question (required), file (optional)
  GET  /redeploy  ?password=<secret> runs the configured redeploy command
  GET  /healthz   catalog size and fingerprint
  GET  /metrics   Prometheus metrics

Send SIGHUP to reload the catalog without restarting, or pass --watch to
reload it whenever the file changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeListen, "listen", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&flagServeKeepUploads, "keep-uploads", false, "Keep uploaded files after answering")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", false, "Reload the catalog when its file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	listen := a.cfg.Listen
	if flagServeListen != "" {
		listen = flagServeListen
	}

	opts := server.Options{
		Answerer:    a.service,
		Uploads:     upload.NewStore(a.cfg.UploadDir),
		Metrics:     a.metrics.Handler(),
		KeepUploads: flagServeKeepUploads,
		Logger:      a.logger,
	}
	trigger, err := newTrigger(a)
	if err != nil {
		a.logger.Warn("redeploy disabled", "error", err)
	} else {
		opts.Deployer = trigger
	}
	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(listen)
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return srv.Shutdown(sctx)
	})
	g.Go(func() error {
		reloadOnHangup(ctx, a)
		return nil
	})
	if flagServeWatch {
		g.Go(func() error {
			return a.service.Watch(ctx, a.cfg.CatalogPath, 0)
		})
	}

	err = g.Wait()
	if trigger != nil {
		trigger.Wait()
	}
	return err
}

// newTrigger builds the redeploy trigger. The secret may be empty, in which
// case every request is refused.
func newTrigger(a *app) (*redeploy.Trigger, error) {
	secret, err := config.GetConfigValue(config.KeyRedeploySecret)
	if err != nil {
		return nil, err
	}
	if secret == "" {
		a.logger.Warn("redeploy secret not set, /redeploy will refuse every request", "key", config.KeyRedeploySecret)
	}
	return redeploy.New(redeploy.Options{
		Secret:   secret,
		Command:  a.cfg.Redeploy.Command,
		LockPath: a.cfg.Redeploy.LockPath,
		PerHour:  a.cfg.Redeploy.PerHour,
		Logger:   a.logger,
	})
}

// reloadOnHangup reloads the catalog on every SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, a *app) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			changed, err := a.service.Reload(a.cfg.CatalogPath)
			switch {
			case err != nil:
				a.logger.Error("catalog reload failed, keeping current catalog", "error", err)
			case !changed:
				a.logger.Info("catalog unchanged", "path", a.cfg.CatalogPath)
			}
		}
	}
}
