package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/wheelpeek/internal/server"
	"github.com/matzehuels/wheelpeek/pkg/observability"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction API over HTTP",
		Long: `Serve the extraction API over HTTP.

  POST /v1/extract  {"refs": ["requests", "numpy==1.26.4"]}
  GET  /healthz

Set cache.redis_url (or WHEELPEEK_REDIS_URL) to share listings between
several instances.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			runner, err := c.newRunner(cmd.Context(), cfg, observability.Hooks{})
			if err != nil {
				return err
			}
			defer runner.Close()

			return server.New(runner, c.Logger).ListenAndServe(cmd.Context(), cfg.Serve.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 127.0.0.1:8080)")

	return cmd
}
