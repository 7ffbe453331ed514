package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/filtereditor/internal/logger"
	"github.com/matthewbaird/filtereditor/internal/server"
)

func newServeCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	c.Flags().String("host", "", "listen host (default 0.0.0.0)")
	c.Flags().Int("port", 0, "listen port (default 8080)")
	return c
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv, err := server.New(server.Config{
		Addr:      e.cfg.Server.Addr(),
		Schema:    e.schema,
		RootModel: e.cfg.Server.RootModel,
		Session:   e.cfg.Session,
		Events:    e.cfg.Events,
		Logger:    e.log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e.log.Info("starting filterd", "version", Version, "addr", e.cfg.Server.Addr())
	return srv.Run(ctx)
}
