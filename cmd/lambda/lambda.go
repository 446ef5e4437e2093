// Package lambda runs the bridge inside AWS Lambda behind API Gateway.
package lambda

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/app"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/lambdahandler"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// NewLambdaCommand creates the lambda command.
func NewLambdaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve API Gateway proxy events from the Lambda runtime",
		Long: `Start the Lambda runtime loop. Configuration comes from the
environment; credentials are resolved once per cold start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			log := logger.GetGlobalLogger()
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}

			lambdahandler.New(a.Processor, a.Auth, log).Start()
			return nil
		},
	}
}
