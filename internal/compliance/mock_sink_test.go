package compliance

import (
	"context"
	"sync"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
)

// MockSink records every call and delegates to optional hooks.
type MockSink struct {
	SubmitFindingsFunc       func(ctx context.Context, findings []models.Finding) error
	UpdateWorkflowStatusFunc func(ctx context.Context, update StatusUpdate) error
	Submitted                [][]models.Finding
	Updates                  []StatusUpdate
	mu                       sync.Mutex
}

func (m *MockSink) SubmitFindings(ctx context.Context, findings []models.Finding) error {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, findings)
	m.mu.Unlock()
	if m.SubmitFindingsFunc != nil {
		return m.SubmitFindingsFunc(ctx, findings)
	}
	return nil
}

func (m *MockSink) UpdateWorkflowStatus(ctx context.Context, update StatusUpdate) error {
	m.mu.Lock()
	m.Updates = append(m.Updates, update)
	m.mu.Unlock()
	if m.UpdateWorkflowStatusFunc != nil {
		return m.UpdateWorkflowStatusFunc(ctx, update)
	}
	return nil
}

func (m *MockSink) updatesWithStatus(status models.WorkflowStatus) []StatusUpdate {
	var out []StatusUpdate
	for _, u := range m.Updates {
		if u.Status == status {
			out = append(out, u)
		}
	}
	return out
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func testBuilder() *Builder {
	return NewBuilder(BuilderConfig{
		Partition: "aws",
		Region:    "eu-west-1",
		AccountID: "123456789012",
		Types:     []string{"Software and Configuration Checks/Industry and Regulatory Standards/CIS Host Hardening Benchmarks"},
	})
}
