package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"futureweaver/internal/container"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port, opsPort string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the analytics API server",
		Long:  `Start the /api dispatcher and, when enabled, the ops listener serving /healthz, /metrics and /debug/pprof.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.LoadConfig()
			if err != nil {
				return err
			}
			// Override config from flags
			if port != "" {
				cfg.Server.Port = port
			}
			if opsPort != "" {
				cfg.Ops.Port = opsPort
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			if err := c.Init(ctx); err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				c.Shutdown(shutdownCtx)
			}()

			return c.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "API port (overrides config)")
	cmd.Flags().StringVar(&opsPort, "ops-port", "", "ops listener port (overrides config)")
	return cmd
}
