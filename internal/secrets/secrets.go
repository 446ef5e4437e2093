// Package secrets retrieves Data Tap credentials from AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrInvalidSecret is returned when a secret is not a credential document.
var ErrInvalidSecret = errors.New("secret does not contain username and password")

// API is the subset of the Secrets Manager client used here.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Credentials are the basic-auth credentials Data Tap presents.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewClient builds a Secrets Manager client, optionally pointed at a custom endpoint.
func NewClient(cfg aws.Config, endpointURL string) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
}

// FetchCredentials reads a JSON {"username": ..., "password": ...} secret.
func FetchCredentials(ctx context.Context, api API, secretID string) (Credentials, error) {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("getting secret %s: %w", secretID, err)
	}

	raw := aws.ToString(out.SecretString)
	if raw == "" && len(out.SecretBinary) > 0 {
		raw = string(out.SecretBinary)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing secret %s: %w", secretID, err)
	}
	if creds.Username == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("%w: %s", ErrInvalidSecret, secretID)
	}

	return creds, nil
}
