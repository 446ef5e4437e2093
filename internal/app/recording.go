package app

import (
	"context"
	"sync"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/compliance"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
)

// RecordingSink keeps everything it is sent and never fails.
type RecordingSink struct {
	mu       sync.Mutex
	Findings []models.Finding
	Updates  []compliance.StatusUpdate
}

var _ compliance.Sink = (*RecordingSink)(nil)

// SubmitFindings records the batch.
func (r *RecordingSink) SubmitFindings(_ context.Context, findings []models.Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Findings = append(r.Findings, findings...)
	return nil
}

// UpdateWorkflowStatus records the transition.
func (r *RecordingSink) UpdateWorkflowStatus(_ context.Context, update compliance.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Updates = append(r.Updates, update)
	return nil
}

// BySeverity counts recorded findings per severity label.
func (r *RecordingSink) BySeverity() map[models.SeverityLabel]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.SeverityLabel]int)
	for i := range r.Findings {
		counts[r.Findings[i].SeverityLabel]++
	}
	return counts
}
