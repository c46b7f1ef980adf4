package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/billcraft/internal/container"
	httpapi "github.com/garyjia/billcraft/internal/interfaces/http"
	"github.com/garyjia/billcraft/pkg/utils"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve invoice PDFs over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ccfg, err := cfg.ToContainerConfig()
			if err != nil {
				return err
			}
			c, err := container.NewContainer(ccfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := c.Start(ctx); err != nil {
				return err
			}
			defer func() {
				if err := c.Close(); err != nil {
					logger.Error("Failed to close container", zap.Error(err))
				}
			}()

			logger.Info("Starting billcraft",
				zap.String("version", version),
				zap.Int("port", cfg.Server.Port))

			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				Version:      version,
			}, c.ExportService(), c, utils.NewServiceLogger(logger))

			return server.Start(ctx)
		},
	}
}
