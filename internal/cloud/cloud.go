// Package cloud loads AWS SDK configuration and resolves the target account.
package cloud

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
)

// ErrMissingAccount is returned when STS does not report an account.
var ErrMissingAccount = errors.New("caller identity has no account")

// IdentityAPI is the subset of the STS client used to resolve the account.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// LoadAWSConfig loads the default credential chain for the configured region.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// NewSTSClient builds an STS client, optionally pointed at a custom endpoint.
func NewSTSClient(awsCfg aws.Config, endpointURL string) *sts.Client {
	return sts.NewFromConfig(awsCfg, func(o *sts.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
}

// ResolveAccountID returns the configured account, or the caller's account
// when none is configured.
func ResolveAccountID(ctx context.Context, configured string, api IdentityAPI) (string, error) {
	if configured != "" {
		return configured, nil
	}

	out, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("getting caller identity: %w", err)
	}

	account := aws.ToString(out.Account)
	if account == "" {
		return "", ErrMissingAccount
	}
	return account, nil
}
