package hub

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the sink.
var (
	ErrBatchTooLarge = errors.New("batch exceeds Security Hub request limit")
	ErrEmptyBatch    = errors.New("batch is empty")
)

// Operation identifies the Security Hub call that failed.
type Operation string

const (
	// OperationImport is BatchImportFindings.
	OperationImport Operation = "BatchImportFindings"
	// OperationUpdate is BatchUpdateFindings.
	OperationUpdate Operation = "BatchUpdateFindings"
)

// FailedFinding describes one finding Security Hub refused.
type FailedFinding struct {
	ID      string
	Code    string
	Message string
}

// SubmissionError is returned when Security Hub rejects a call outright or
// refuses some of the findings in it.
type SubmissionError struct {
	Err       error
	Operation Operation
	Failed    []FailedFinding
	Total     int
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed for %d findings: %v", e.Operation, e.Total, e.Err)
	}

	codes := make([]string, 0, len(e.Failed))
	seen := make(map[string]bool)
	for _, f := range e.Failed {
		if !seen[f.Code] {
			seen[f.Code] = true
			codes = append(codes, f.Code)
		}
	}
	return fmt.Sprintf("%s rejected %d of %d findings (%s)", e.Operation, len(e.Failed), e.Total, strings.Join(codes, ", "))
}

// Unwrap returns the underlying error.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// FailedIDs returns the ids of refused findings.
func (e *SubmissionError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}

// IsPartial reports whether the call succeeded for some findings.
func (e *SubmissionError) IsPartial() bool {
	return e.Err == nil && len(e.Failed) < e.Total
}
