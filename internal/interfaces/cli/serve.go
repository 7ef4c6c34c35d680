package cli

import (
	"github.com/spf13/cobra"

	"github.com/turtacn/rostertag/internal/bootstrap"
	"github.com/turtacn/rostertag/internal/infrastructure/monitoring/logging"
)

func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP extraction API",
		Long:  "Serves POST /api/v1/extract and /api/v1/patterns with the configured cache,\nrun store and metrics until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cfg := *cliCtx.Config
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			api, err := bootstrap.NewAPIServer(cmd.Context(), &cfg, Version, cliCtx.Logger)
			if err != nil {
				return err
			}
			cliCtx.Logger.Info("starting rostertag API server",
				logging.String("version", Version),
				logging.String("addr", cfg.Server.Addr()))
			return api.Run(cmd.Context(), cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

//Personal.AI order the ending
