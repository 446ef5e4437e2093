// Package models contains the report and finding data structures shared by the bridge.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Finding is the canonical record submitted to Security Hub for one control
// of one profile on one node. Findings are rebuilt from every report and
// never mutated after construction.
type Finding struct {
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	FirstObservedAt  time.Time         `json:"first_observed_at"`
	LastObservedAt   time.Time         `json:"last_observed_at"`
	ProductFields    map[string]string `json:"product_fields,omitempty"`
	ID               string            `json:"id"`
	ProductARN       string            `json:"product_arn"`
	GeneratorID      string            `json:"generator_id"`
	AccountID        string            `json:"aws_account_id"`
	SchemaVersion    string            `json:"schema_version"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	SourceURL        string            `json:"source_url"`
	SeverityLabel    SeverityLabel     `json:"severity_label"`
	Compliance       ComplianceStatus  `json:"compliance_status"`
	Workflow         WorkflowStatus    `json:"workflow_status"`
	Types            []string          `json:"types"`
	Resource         Resource          `json:"resource"`
	SeverityOriginal float64           `json:"severity_original"`
	Severity         int32             `json:"severity_normalized"`
}

// Resource is the resource a finding is attached to.
type Resource struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Partition string `json:"partition"`
	Region    string `json:"region"`
}

// FindingIdentifier is the (id, product ARN) pair Security Hub uses to
// address an existing finding.
type FindingIdentifier struct {
	ID         string `json:"id"`
	ProductARN string `json:"product_arn"`
}

// Identifier returns the pair addressing this finding.
func (f *Finding) Identifier() FindingIdentifier {
	return FindingIdentifier{ID: f.ID, ProductARN: f.ProductARN}
}

// GenerateFindingID creates the stable identity of a control's finding on a
// node. Resubmitting the same control for the same node updates the
// existing finding instead of creating a new one.
func GenerateFindingID(nodeID, profile, controlID string) string {
	return fmt.Sprintf("%s/%s/%s", nodeID, profile, controlID)
}

// ProductARN returns the default product ARN for findings imported into an account.
func ProductARN(partition, region, accountID string) string {
	return fmt.Sprintf("arn:%s:securityhub:%s:%s:product/%s/default", partition, region, accountID, accountID)
}

// IsValid checks if a finding has all fields Security Hub requires.
func (f *Finding) IsValid() error {
	switch {
	case f.ID == "":
		return fmt.Errorf("finding missing required field: id")
	case f.ProductARN == "":
		return fmt.Errorf("finding missing required field: product_arn")
	case f.GeneratorID == "":
		return fmt.Errorf("finding missing required field: generator_id")
	case f.AccountID == "":
		return fmt.Errorf("finding missing required field: aws_account_id")
	case f.Title == "":
		return fmt.Errorf("finding missing required field: title")
	case strings.TrimSpace(f.Description) == "":
		return fmt.Errorf("finding missing required field: description")
	case f.Resource.ID == "":
		return fmt.Errorf("finding missing required field: resource id")
	}
	return nil
}
