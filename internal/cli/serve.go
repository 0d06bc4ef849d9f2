package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blik/internal/server"
	"github.com/matzehuels/blik/pkg/pipeline"
)

const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command, which feeds layers to a viewer.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags loadFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve <file>...",
		Short: "Serve depicted layers over HTTP",
		Long: `Read and depict the files, then serve the layers as JSON until
interrupted. POST /reload re-reads the files after they change.

Routes:
  GET  /volumes
  GET  /layers
  GET  /volumes/{volume}/layers
  GET  /dataset?mode=nested
  POST /reload`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), c.options(cmd, args, &flags), addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, addr string) error {
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv := server.New(runner, opts, c.Logger)
	res, err := srv.Reload(ctx)
	if err != nil {
		return err
	}
	printFailures(res)
	fmt.Println(statsLine(res.Stats, res.CacheInfo))

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()
	printInfo("Serving layers on http://%s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	c.Logger.Info("server stopped")
	return nil
}
