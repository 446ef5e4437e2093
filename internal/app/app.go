// Package app wires configuration, AWS clients and the compliance pipeline
// into the components served by the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/cloud"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/compliance"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/datatap"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/hub"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/secrets"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// DryRunAccountID stands in for the account when no AWS call may be made.
const DryRunAccountID = "000000000000"

// App holds the assembled pipeline.
type App struct {
	Config    *config.Config
	Builder   *compliance.Builder
	Walker    *compliance.Walker
	Processor *datatap.Processor
	Auth      *datatap.Authenticator
	AccountID string
}

// New resolves AWS settings and assembles a pipeline submitting to Security Hub.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	awsCfg, err := cloud.LoadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	accountID, err := cloud.ResolveAccountID(ctx, cfg.AWS.AccountID, cloud.NewSTSClient(awsCfg, cfg.AWS.EndpointURL))
	if err != nil {
		return nil, err
	}

	var secretsAPI secrets.API
	if cfg.Auth.SecretID != "" {
		secretsAPI = secrets.NewClient(awsCfg, cfg.AWS.EndpointURL)
	}
	auth, err := datatap.NewAuthenticator(ctx, cfg.Auth, secretsAPI)
	if err != nil {
		return nil, fmt.Errorf("configuring authentication: %w", err)
	}

	sink := hub.NewSinkWithLogger(hub.NewClient(awsCfg, cfg.AWS.EndpointURL), log)
	return Assemble(cfg, accountID, sink, auth, log), nil
}

// Assemble builds the pipeline around an existing sink and authenticator.
func Assemble(cfg *config.Config, accountID string, sink compliance.Sink, auth *datatap.Authenticator, log logger.Logger) *App {
	builder := compliance.NewBuilder(compliance.BuilderConfig{
		Partition: cfg.AWS.Partition,
		Region:    cfg.AWS.Region,
		AccountID: accountID,
		Types:     cfg.Findings.Types,
	})
	walker := compliance.NewWalkerWithLogger(sink, builder, cfg.Findings.BatchLimit, log)

	return &App{
		Config:    cfg,
		Builder:   builder,
		Walker:    walker,
		Processor: datatap.NewProcessorWithLogger(walker, log),
		Auth:      auth,
		AccountID: accountID,
	}
}

// NewDryRun assembles a pipeline that records instead of submitting.
func NewDryRun(cfg *config.Config, log logger.Logger) (*App, *RecordingSink) {
	accountID := cfg.AWS.AccountID
	if accountID == "" {
		accountID = DryRunAccountID
	}
	sink := &RecordingSink{}
	return Assemble(cfg, accountID, sink, datatap.NewStaticAuthenticator("", ""), log), sink
}
