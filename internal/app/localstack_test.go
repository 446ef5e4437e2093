//go:build integration && localstack
// +build integration,localstack

package app

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/securityhub/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/cloud"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/hub"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/secrets"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// TestPipeline_LocalStackIntegration runs a packet through the full pipeline
// against LocalStack. Requires Docker.
func TestPipeline_LocalStackIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack:latest",
			ExposedPorts: []string{"4566/tcp"},
			Env: map[string]string{
				"SERVICES":       "securityhub,secretsmanager,sts",
				"DEFAULT_REGION": "us-east-1",
			},
			WaitingFor: wait.ForHTTP("/_localstack/health").WithPort("4566/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx) //nolint:errcheck

	endpoint, err := container.Endpoint(ctx, "4566/tcp")
	require.NoError(t, err)
	endpointURL := fmt.Sprintf("http://%s", endpoint)

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := config.Default()
	cfg.AWS.Region = "us-east-1"
	cfg.AWS.EndpointURL = endpointURL
	cfg.Auth.SecretID = "hubbridge/datatap"

	awsCfg, err := cloud.LoadAWSConfig(ctx, cfg.AWS)
	require.NoError(t, err)

	_, err = secrets.NewClient(awsCfg, endpointURL).CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(cfg.Auth.SecretID),
		SecretString: aws.String(`{"username":"tap","password":"pw"}`),
	})
	require.NoError(t, err)

	hubClient := hub.NewClient(awsCfg, endpointURL)
	_, err = hubClient.EnableSecurityHub(ctx, &securityhub.EnableSecurityHubInput{})
	require.NoError(t, err)

	a, err := New(ctx, cfg, logger.NewMockLogger())
	require.NoError(t, err)
	require.NoError(t, a.Auth.Check("tap", "pw"))
	assert.Len(t, a.AccountID, 12, "account resolved through STS")

	body, err := os.ReadFile("../datatap/testdata/packet.ndjson")
	require.NoError(t, err)

	result := a.Processor.Process(ctx, body)
	require.Equal(t, 1, result.Reports)
	assert.Equal(t, 3, result.Summary.Findings)
	for _, err := range result.Summary.Errors {
		t.Logf("submission error: %v", err)
	}

	out, err := hubClient.GetFindings(ctx, &securityhub.GetFindingsInput{
		Filters: &types.AwsSecurityFindingFilters{
			ProductArn: []types.StringFilter{{
				Value:      aws.String(a.Builder.ProductARN()),
				Comparison: types.StringFilterComparisonEquals,
			}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, out.Findings, 3)
}
