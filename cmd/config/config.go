// Package config implements the config command.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Width(16)
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// NewConfigCommand creates the config command and its subcommands.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect bridge configuration",
	}
	cmd.AddCommand(newValidateCommand())
	return cmd
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file and the environment",
		Example: `  hubbridge config validate --config hubbridge.yaml
  AWS_REGION=eu-west-2 HUBBRIDGE_AUTH_SECRET_ID=datatap hubbridge config validate`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")

			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("configuration is invalid: %w", err)
			}

			PrintValidationResults(cmd.OutOrStdout(), cfg)
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("\nConfiguration is valid"))
			return nil
		},
	}
}

// PrintValidationResults describes the effective configuration.
func PrintValidationResults(w io.Writer, cfg *config.Config) {
	title := cases.Title(language.English)

	section(w, "aws")
	field(w, title.String("region"), cfg.AWS.Region)
	field(w, title.String("partition"), cfg.AWS.Partition)
	if cfg.AWS.AccountID != "" {
		field(w, title.String("account"), cfg.AWS.AccountID)
		field(w, title.String("product arn"), models.ProductARN(cfg.AWS.Partition, cfg.AWS.Region, cfg.AWS.AccountID))
	} else {
		field(w, title.String("account"), "resolved via STS at startup")
	}
	if cfg.AWS.EndpointURL != "" {
		field(w, title.String("endpoint"), cfg.AWS.EndpointURL)
	}

	section(w, "server")
	field(w, title.String("listen address"), cfg.Server.ListenAddr)

	section(w, "auth")
	switch {
	case cfg.Auth.Disabled:
		field(w, title.String("mode"), "disabled")
	case cfg.Auth.SecretID != "":
		field(w, title.String("mode"), "secrets manager")
		field(w, title.String("secret"), cfg.Auth.SecretID)
	default:
		field(w, title.String("mode"), "static")
		field(w, title.String("username"), cfg.Auth.Username)
	}

	section(w, "findings")
	field(w, title.String("batch limit"), fmt.Sprint(cfg.Findings.BatchLimit))
	field(w, title.String("types"), strings.Join(cfg.Findings.Types, ", "))
}

func section(w io.Writer, name string) {
	fmt.Fprintln(w, sectionStyle.Render("\n"+strings.ToUpper(name)))
}

func field(w io.Writer, label, value string) {
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render(label), value))
}
