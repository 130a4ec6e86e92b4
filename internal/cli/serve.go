package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/beetree/internal/metrics"
	"github.com/matzehuels/beetree/pkg/server"
)

const shutdownTimeout = 10 * time.Second

// serveFlags holds the flags of the serve command.
type serveFlags struct {
	addr    string
	rebuild bool
	metrics bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dataset and hierarchy over HTTP",
		Long: `Serve the dataset, the breeding hierarchy and lineage queries as a JSON
API. The dataset is read from the output directory, or built first when the
directory is empty or --rebuild is set.

Prometheus metrics for builds, cache and requests are exposed on /metrics.`,
		Example: `  beetree serve
  beetree serve --addr :9000 --rebuild`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&flags.rebuild, "rebuild", false, "rebuild the dataset instead of reading the output directory")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", true, "expose Prometheus metrics on /metrics")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, flags serveFlags) error {
	ctx := cmd.Context()

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.addr != "" {
		cfg.Server.Addr = flags.addr
	}

	var opts server.Options
	opts.Logger = c.Logger
	if flags.metrics {
		m := metrics.New()
		m.Install()
		opts.Metrics = m.Handler()
	}

	snap, err := c.loadSnapshot(ctx, cfg, flags.rebuild)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(snap, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	printSuccess("Serving %d species on %s", len(snap.Dataset.Bees), StyleLink.Render(cfg.Server.Addr))
	c.Logger.Info("server started", "addr", cfg.Server.Addr, "metrics", flags.metrics)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}
