// Package serve runs the Data Tap HTTP listener.
package serve

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/app"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/server"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Listen for Data Tap packets over HTTP",
		Example: `  # Listen on the configured address
  hubbridge serve --config hubbridge.yaml

  # Point at LocalStack
  HUBBRIDGE_ENDPOINT_URL=http://localhost:4566 hubbridge serve --listen :9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			return run(cmd.Context(), configFile, listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides server.listen_addr)")
	return cmd
}

func run(ctx context.Context, configFile, listenAddr string) error {
	log := logger.GetGlobalLogger()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("Bridge ready",
		"region", cfg.AWS.Region,
		"account_id", a.AccountID,
		"product_arn", a.Builder.ProductARN(),
		"auth_disabled", a.Auth.Disabled(),
	)

	srv := server.New(a.Processor, a.Auth, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
