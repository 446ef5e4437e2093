// Package hub submits findings to AWS Security Hub.
package hub

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/securityhub/types"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/compliance"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// MaxBatchSize is the number of findings Security Hub accepts per call.
const MaxBatchSize = 100

// API is the subset of the Security Hub client used by the sink.
type API interface {
	BatchImportFindings(ctx context.Context, params *securityhub.BatchImportFindingsInput, optFns ...func(*securityhub.Options)) (*securityhub.BatchImportFindingsOutput, error)
	BatchUpdateFindings(ctx context.Context, params *securityhub.BatchUpdateFindingsInput, optFns ...func(*securityhub.Options)) (*securityhub.BatchUpdateFindingsOutput, error)
}

// Sink implements compliance.Sink against Security Hub.
type Sink struct {
	api    API
	logger logger.Logger
}

var _ compliance.Sink = (*Sink)(nil)

// NewSink creates a sink using the given client.
func NewSink(api API) *Sink {
	return NewSinkWithLogger(api, logger.GetGlobalLogger())
}

// NewSinkWithLogger creates a sink with a custom logger.
func NewSinkWithLogger(api API, log logger.Logger) *Sink {
	return &Sink{api: api, logger: log}
}

// NewClient builds a Security Hub client, optionally pointed at a custom endpoint.
func NewClient(cfg aws.Config, endpointURL string) *securityhub.Client {
	return securityhub.NewFromConfig(cfg, func(o *securityhub.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
}

// SubmitFindings imports or updates up to MaxBatchSize findings.
func (s *Sink) SubmitFindings(ctx context.Context, findings []models.Finding) error {
	if len(findings) == 0 {
		return ErrEmptyBatch
	}
	if len(findings) > MaxBatchSize {
		return fmt.Errorf("%w: %d findings", ErrBatchTooLarge, len(findings))
	}

	input := &securityhub.BatchImportFindingsInput{
		Findings: make([]types.AwsSecurityFinding, 0, len(findings)),
	}
	for i := range findings {
		input.Findings = append(input.Findings, ToASFF(&findings[i]))
	}

	out, err := s.api.BatchImportFindings(ctx, input)
	if err != nil {
		return &SubmissionError{Operation: OperationImport, Total: len(findings), Err: err}
	}

	if len(out.FailedFindings) > 0 {
		failed := make([]FailedFinding, 0, len(out.FailedFindings))
		for _, f := range out.FailedFindings {
			failed = append(failed, FailedFinding{
				ID:      aws.ToString(f.Id),
				Code:    aws.ToString(f.ErrorCode),
				Message: aws.ToString(f.ErrorMessage),
			})
		}
		return &SubmissionError{Operation: OperationImport, Total: len(findings), Failed: failed}
	}

	s.logger.Debug("Imported findings", "count", len(findings))
	return nil
}

// UpdateWorkflowStatus moves the identified findings to the update's workflow status.
func (s *Sink) UpdateWorkflowStatus(ctx context.Context, update compliance.StatusUpdate) error {
	if update.Empty() {
		return ErrEmptyBatch
	}
	if len(update.Identifiers) > MaxBatchSize {
		return fmt.Errorf("%w: %d identifiers", ErrBatchTooLarge, len(update.Identifiers))
	}

	input := &securityhub.BatchUpdateFindingsInput{
		FindingIdentifiers: make([]types.AwsSecurityFindingIdentifier, 0, len(update.Identifiers)),
		Workflow: &types.WorkflowUpdate{
			Status: types.WorkflowStatus(update.Status),
		},
	}
	for _, id := range update.Identifiers {
		input.FindingIdentifiers = append(input.FindingIdentifiers, types.AwsSecurityFindingIdentifier{
			Id:         aws.String(id.ID),
			ProductArn: aws.String(id.ProductARN),
		})
	}

	out, err := s.api.BatchUpdateFindings(ctx, input)
	if err != nil {
		return &SubmissionError{Operation: OperationUpdate, Total: len(update.Identifiers), Err: err}
	}

	if len(out.UnprocessedFindings) > 0 {
		failed := make([]FailedFinding, 0, len(out.UnprocessedFindings))
		for _, f := range out.UnprocessedFindings {
			ff := FailedFinding{
				Code:    aws.ToString(f.ErrorCode),
				Message: aws.ToString(f.ErrorMessage),
			}
			if f.FindingIdentifier != nil {
				ff.ID = aws.ToString(f.FindingIdentifier.Id)
			}
			failed = append(failed, ff)
		}
		return &SubmissionError{Operation: OperationUpdate, Total: len(update.Identifiers), Failed: failed}
	}

	s.logger.Debug("Updated workflow status", "status", update.Status, "count", len(update.Identifiers))
	return nil
}

// ToASFF converts a finding to the AWS Security Finding Format.
func ToASFF(f *models.Finding) types.AwsSecurityFinding {
	productFields := make(map[string]string, len(f.ProductFields)+1)
	for k, v := range f.ProductFields {
		productFields[k] = v
	}
	productFields["inspec/severity_normalized"] = strconv.Itoa(int(f.Severity))

	finding := types.AwsSecurityFinding{
		SchemaVersion:   aws.String(f.SchemaVersion),
		Id:              aws.String(f.ID),
		ProductArn:      aws.String(f.ProductARN),
		GeneratorId:     aws.String(f.GeneratorID),
		AwsAccountId:    aws.String(f.AccountID),
		Types:           f.Types,
		CreatedAt:       aws.String(formatTime(f.CreatedAt)),
		UpdatedAt:       aws.String(formatTime(f.UpdatedAt)),
		FirstObservedAt: aws.String(formatTime(f.FirstObservedAt)),
		LastObservedAt:  aws.String(formatTime(f.LastObservedAt)),
		Title:           aws.String(f.Title),
		Description:     aws.String(f.Description),
		ProductFields:   productFields,
		Severity: &types.Severity{
			Label:    types.SeverityLabel(f.SeverityLabel),
			Original: aws.String(strconv.FormatFloat(f.SeverityOriginal, 'f', -1, 64)),
		},
		Compliance: &types.Compliance{
			Status: types.ComplianceStatus(f.Compliance),
		},
		Workflow: &types.Workflow{
			Status: types.WorkflowStatus(f.Workflow),
		},
		RecordState: types.RecordStateActive,
		Resources: []types.Resource{
			{
				Type:      aws.String(f.Resource.Type),
				Id:        aws.String(f.Resource.ID),
				Partition: types.Partition(f.Resource.Partition),
				Region:    aws.String(f.Resource.Region),
			},
		},
	}
	if f.SourceURL != "" {
		finding.SourceUrl = aws.String(f.SourceURL)
	}
	return finding
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
