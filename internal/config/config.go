// Package config provides configuration loading and validation for the bridge.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/pathutil"
)

// Defaults applied before the file and environment are read.
const (
	DefaultPartition   = "aws"
	DefaultListenAddr  = ":8080"
	DefaultBatchLimit  = 100
	MaxBatchLimit      = 100
	DefaultFindingType = "Software and Configuration Checks/Industry and Regulatory Standards/CIS Host Hardening Benchmarks"
)

// Environment variables that override file values.
const (
	EnvRegion       = "AWS_REGION"
	EnvAccountID    = "HUBBRIDGE_ACCOUNT_ID"
	EnvEndpointURL  = "HUBBRIDGE_ENDPOINT_URL"
	EnvListenAddr   = "HUBBRIDGE_LISTEN_ADDR"
	EnvAuthSecretID = "HUBBRIDGE_AUTH_SECRET_ID"
	EnvBatchLimit   = "HUBBRIDGE_BATCH_LIMIT"
)

var accountIDPattern = regexp.MustCompile(`^[0-9]{12}$`)

// Config represents the complete bridge configuration.
type Config struct {
	AWS      AWSConfig      `yaml:"aws"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Findings FindingsConfig `yaml:"findings"`
}

// AWSConfig qualifies the ARNs and resources of imported findings.
type AWSConfig struct {
	Region      string `yaml:"region"`
	AccountID   string `yaml:"account_id,omitempty"` // Empty means resolve via STS
	Partition   string `yaml:"partition,omitempty"`
	EndpointURL string `yaml:"endpoint_url,omitempty"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// AuthConfig describes how Data Tap requests are authenticated.
type AuthConfig struct {
	SecretID string `yaml:"secret_id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// FindingsConfig controls how findings are shaped and batched.
type FindingsConfig struct {
	Types      []string `yaml:"types,omitempty"`
	BatchLimit int      `yaml:"batch_limit,omitempty"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		AWS: AWSConfig{
			Partition: DefaultPartition,
		},
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
		},
		Findings: FindingsConfig{
			Types:      []string{DefaultFindingType},
			BatchLimit: DefaultBatchLimit,
		},
	}
}

// LoadConfig reads a YAML configuration file, applies environment overrides
// and validates the result. An empty path yields defaults plus environment.
func LoadConfig(path string) (*Config, error) {
	return load(path, true)
}

// LoadDryRunConfig is LoadConfig for runs that never receive Data Tap
// requests. Auth settings are not required.
func LoadDryRunConfig(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, requireAuth bool) (*Config, error) {
	config := Default()

	if path != "" {
		validPath, err := pathutil.ValidateConfigPath(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		data, err := os.ReadFile(validPath) //nolint:gosec // Path is from trusted source (operator flag)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config YAML: %w", err)
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	config.fillDefaults()

	validate := config.Validate
	if !requireAuth {
		validate = config.validateTarget
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides file values with the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRegion); ok && v != "" {
		c.AWS.Region = v
	}
	if v, ok := lookup(EnvAccountID); ok && v != "" {
		c.AWS.AccountID = v
	}
	if v, ok := lookup(EnvEndpointURL); ok && v != "" {
		c.AWS.EndpointURL = v
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.Server.ListenAddr = v
	}
	if v, ok := lookup(EnvAuthSecretID); ok && v != "" {
		c.Auth.SecretID = v
	}
	if v, ok := lookup(EnvBatchLimit); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvBatchLimit, err)
		}
		c.Findings.BatchLimit = n
	}
	return nil
}

// fillDefaults restores defaults for keys the file set to zero values.
func (c *Config) fillDefaults() {
	if c.AWS.Partition == "" {
		c.AWS.Partition = DefaultPartition
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Findings.BatchLimit == 0 {
		c.Findings.BatchLimit = DefaultBatchLimit
	}
	if len(c.Findings.Types) == 0 {
		c.Findings.Types = []string{DefaultFindingType}
	}
}

// Validate ensures the configuration is valid.
func (c *Config) Validate() error {
	if err := c.validateTarget(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// validateTarget checks everything except authentication.
func (c *Config) validateTarget() error {
	if c.AWS.Region == "" {
		return fmt.Errorf("aws.region is required (or set %s)", EnvRegion)
	}

	if c.AWS.AccountID != "" && !accountIDPattern.MatchString(c.AWS.AccountID) {
		return fmt.Errorf("aws.account_id must be 12 digits, got %q", c.AWS.AccountID)
	}

	if c.Findings.BatchLimit < 1 || c.Findings.BatchLimit > MaxBatchLimit {
		return fmt.Errorf("findings.batch_limit must be between 1 and %d, got %d", MaxBatchLimit, c.Findings.BatchLimit)
	}

	return nil
}

// Validate checks that exactly one credential source is configured unless
// authentication is disabled.
func (a AuthConfig) Validate() error {
	if a.Disabled {
		return nil
	}

	hasStatic := a.Username != "" || a.Password != ""
	if a.SecretID == "" && !hasStatic {
		return fmt.Errorf("auth requires secret_id or username/password unless auth.disabled is set")
	}
	if a.SecretID != "" && hasStatic {
		return fmt.Errorf("auth.secret_id and static credentials are mutually exclusive")
	}
	if hasStatic && (a.Username == "" || a.Password == "") {
		return fmt.Errorf("auth.username and auth.password must both be set")
	}

	return nil
}
