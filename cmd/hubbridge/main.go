// Package main is the entry point for hubbridge, which forwards Chef Automate
// compliance reports received over Data Tap to AWS Security Hub.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/cmd/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/cmd/ingest"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/cmd/lambda"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/cmd/serve"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		debug     bool
		logFormat string
	)

	root := &cobra.Command{
		Use:   "hubbridge",
		Short: "Forward Chef Automate compliance reports to AWS Security Hub",
		Long: `hubbridge receives Chef Automate Data Tap packets and imports one
Security Hub finding per InSpec control, resolving findings for controls
that pass and reopening those that fail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.SetupLogger(debug, logFormat)
		},
	}

	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
	root.PersistentFlags().StringP("config", "c", "", "Path to config file (environment only when omitted)")

	root.AddCommand(
		serve.NewServeCommand(),
		lambda.NewLambdaCommand(),
		ingest.NewIngestCommand(),
		config.NewConfigCommand(),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hubbridge version %s (built %s)\n", version, buildTime)
		},
	}
}
