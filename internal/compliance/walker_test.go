package compliance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/metrics"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

func testReport(profiles ...models.Profile) *models.Report {
	return &models.Report{
		ID:               "report-1",
		NodeID:           "node-1",
		NodeName:         "web-01",
		ChefServer:       "chef.example.com",
		ChefOrganization: "acme",
		EndTime:          models.Timestamp{Seconds: 1700000000},
		Profiles:         profiles,
	}
}

func testNode() *models.Node {
	return &models.Node{AutomateFQDN: "automate.example.com"}
}

func newTestWalker(sink Sink) (*Walker, *logger.MockLogger) {
	log := logger.NewMockLogger()
	return NewWalkerWithLogger(sink, testBuilder(), DefaultBatchLimit, log), log
}

func TestWalkControlWithoutResults(t *testing.T) {
	sink := &MockSink{}
	walker, _ := newTestWalker(sink)

	report := testReport(models.Profile{Name: "linux-baseline", Controls: []models.Control{{ID: "os-01"}}})
	summary := walker.Walk(context.Background(), report, testNode())

	require.Len(t, sink.Submitted, 1)
	require.Len(t, sink.Submitted[0], 1)
	f := sink.Submitted[0][0]
	assert.Equal(t, models.CompliancePassed, f.Compliance)
	assert.Equal(t, models.WorkflowResolved, f.Workflow)

	require.Len(t, sink.Updates, 1, "only the resolved update fires")
	assert.Equal(t, models.WorkflowResolved, sink.Updates[0].Status)
	assert.Equal(t, []models.FindingIdentifier{f.Identifier()}, sink.Updates[0].Identifiers)

	assert.Equal(t, 1, summary.Findings)
	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 0, summary.Opened)
	assert.NoError(t, summary.Err())
}

func TestWalkFailingControl(t *testing.T) {
	sink := &MockSink{}
	walker, _ := newTestWalker(sink)

	report := testReport(models.Profile{Name: "linux-baseline", Controls: []models.Control{
		{ID: "os-02", Results: []models.Result{{Status: "failed"}}},
	}})
	summary := walker.Walk(context.Background(), report, testNode())

	require.Len(t, sink.Submitted, 1)
	f := sink.Submitted[0][0]
	assert.Equal(t, models.ComplianceFailed, f.Compliance)
	assert.Equal(t, models.WorkflowNew, f.Workflow)

	require.Len(t, sink.Updates, 1, "only the open update fires")
	assert.Equal(t, models.WorkflowNew, sink.Updates[0].Status)
	assert.Len(t, sink.Updates[0].Identifiers, 1)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Opened)
}

func TestWalkBatchesLargeProfile(t *testing.T) {
	sink := &MockSink{}
	walker, _ := newTestWalker(sink)

	controls := make([]models.Control, 150)
	for i := range controls {
		controls[i] = models.Control{ID: fmt.Sprintf("c-%03d", i), Results: []models.Result{{Status: "failed"}}}
	}
	report := testReport(models.Profile{Name: "cis", Controls: controls})

	summary := walker.Walk(context.Background(), report, testNode())

	require.Len(t, sink.Submitted, 2)
	assert.Len(t, sink.Submitted[0], 100)
	assert.Len(t, sink.Submitted[1], 50)

	assert.Empty(t, sink.updatesWithStatus(models.WorkflowResolved))
	open := sink.updatesWithStatus(models.WorkflowNew)
	require.Len(t, open, 2)
	assert.Len(t, open[0].Identifiers, 100)
	assert.Len(t, open[1].Identifiers, 50)

	assert.Equal(t, "node-1/cis/c-000", sink.Submitted[0][0].ID)
	assert.Equal(t, "node-1/cis/c-149", sink.Submitted[1][49].ID)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, 150, summary.Findings)
	assert.Len(t, controls, 150, "walking must not consume the report's controls")
}

func TestWalkEmptyProfile(t *testing.T) {
	sink := &MockSink{}
	walker, _ := newTestWalker(sink)

	summary := walker.Walk(context.Background(), testReport(models.Profile{Name: "empty"}), testNode())

	assert.Empty(t, sink.Submitted)
	assert.Empty(t, sink.Updates)
	assert.Equal(t, 1, summary.SkippedProfiles)
	assert.Equal(t, 0, summary.Profiles)
}

func TestWalkReportWithoutProfiles(t *testing.T) {
	sink := &MockSink{}
	walker, _ := newTestWalker(sink)

	summary := walker.Walk(context.Background(), testReport(), nil)

	assert.Empty(t, sink.Submitted)
	assert.Empty(t, sink.Updates)
	assert.Equal(t, 0, summary.Findings)
}

func TestWalkMixedControlsSendBothUpdates(t *testing.T) {
	sink := &MockSink{}
	walker, _ := newTestWalker(sink)

	report := testReport(models.Profile{Name: "p", Controls: []models.Control{
		{ID: "pass", Results: []models.Result{{Status: "passed"}}},
		{ID: "fail", Results: []models.Result{{Status: "failed"}}},
		{ID: "skip", Results: []models.Result{{Status: "skipped"}}},
	}})
	walker.Walk(context.Background(), report, testNode())

	require.Len(t, sink.Updates, 2)
	assert.Equal(t, models.WorkflowResolved, sink.Updates[0].Status)
	assert.Len(t, sink.Updates[0].Identifiers, 2)
	assert.Equal(t, models.WorkflowNew, sink.Updates[1].Status)
	assert.Len(t, sink.Updates[1].Identifiers, 1)
}

func TestWalkContinuesAfterImportFailure(t *testing.T) {
	calls := 0
	sink := &MockSink{
		SubmitFindingsFunc: func(_ context.Context, _ []models.Finding) error {
			calls++
			if calls == 1 {
				return errors.New("throttled")
			}
			return nil
		},
	}
	walker, log := newTestWalker(sink)

	before := testutil.ToFloat64(metrics.SubmissionFailures.WithLabelValues(metrics.OperationImport))

	report := testReport(
		models.Profile{Name: "first", Controls: []models.Control{{ID: "a", Results: []models.Result{{Status: "failed"}}}}},
		models.Profile{Name: "second", Controls: []models.Control{{ID: "b", Results: []models.Result{{Status: "failed"}}}}},
	)
	summary := walker.Walk(context.Background(), report, testNode())

	assert.Len(t, sink.Submitted, 2, "second profile still submitted")
	require.Len(t, sink.Updates, 1, "updates skipped for the failed batch")
	assert.Equal(t, "node-1/second/b", sink.Updates[0].Identifiers[0].ID)

	require.Len(t, summary.Errors, 1)
	assert.ErrorContains(t, summary.Err(), "throttled")
	assert.ErrorContains(t, summary.Err(), "profile first")
	assert.True(t, log.HasMessage("ERROR", "Failed to import findings"))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SubmissionFailures.WithLabelValues(metrics.OperationImport)))
}

func TestWalkContinuesAfterUpdateFailure(t *testing.T) {
	sink := &MockSink{
		UpdateWorkflowStatusFunc: func(_ context.Context, update StatusUpdate) error {
			if update.Status == models.WorkflowResolved {
				return errors.New("access denied")
			}
			return nil
		},
	}
	walker, log := newTestWalker(sink)

	report := testReport(models.Profile{Name: "p", Controls: []models.Control{
		{ID: "pass"},
		{ID: "fail", Results: []models.Result{{Status: "failed"}}},
	}})
	summary := walker.Walk(context.Background(), report, testNode())

	assert.Len(t, sink.Updates, 2, "open update still attempted")
	assert.Equal(t, 0, summary.Resolved)
	assert.Equal(t, 1, summary.Opened)
	require.Len(t, summary.Errors, 1)
	assert.ErrorContains(t, summary.Errors[0], "RESOLVED")
	assert.True(t, log.HasMessage("ERROR", "Failed to update workflow status"))
}

func TestWalkRespectsConfiguredLimit(t *testing.T) {
	sink := &MockSink{}
	walker := NewWalkerWithLogger(sink, testBuilder(), 10, logger.NewMockLogger())

	walker.Walk(context.Background(), testReport(models.Profile{Name: "p", Controls: makeControls(25)}), testNode())

	require.Len(t, sink.Submitted, 3)
	assert.Len(t, sink.Submitted[2], 5)
}

func TestNewWalkerClampsLimit(t *testing.T) {
	assert.Equal(t, DefaultBatchLimit, NewWalkerWithLogger(&MockSink{}, testBuilder(), 0, logger.NewMockLogger()).limit)
	assert.Equal(t, DefaultBatchLimit, NewWalkerWithLogger(&MockSink{}, testBuilder(), 500, logger.NewMockLogger()).limit)
}

func TestWalkLogsRequestID(t *testing.T) {
	walker, log := newTestWalker(&MockSink{})
	ctx := logger.ContextWithRequestID(context.Background(), "req-9")

	walker.Walk(ctx, testReport(), testNode())

	require.NotEmpty(t, *log.Messages)
	assert.Contains(t, (*log.Messages)[0].Args, "req-9")
}

func TestSummaryAdd(t *testing.T) {
	a := Summary{Findings: 2, Errors: []error{errors.New("x")}}
	a.Add(Summary{Findings: 3, Batches: 1, Errors: []error{errors.New("y")}})

	assert.Equal(t, 5, a.Findings)
	assert.Equal(t, 1, a.Batches)
	assert.Len(t, a.Errors, 2)
}

type partialImportError struct {
	failed []string
	total  int
}

func (e *partialImportError) Error() string {
	return fmt.Sprintf("rejected %d of %d findings", len(e.failed), e.total)
}

func (e *partialImportError) FailedIDs() []string { return e.failed }

func (e *partialImportError) IsPartial() bool { return len(e.failed) < e.total }

func TestWalkReconcilesAcceptedFindingsAfterPartialImport(t *testing.T) {
	sink := &MockSink{
		SubmitFindingsFunc: func(_ context.Context, findings []models.Finding) error {
			return fmt.Errorf("batch import: %w", &partialImportError{failed: []string{"node-1/p/bad-pass"}, total: len(findings)})
		},
	}
	walker, log := newTestWalker(sink)

	report := testReport(models.Profile{Name: "p", Controls: []models.Control{
		{ID: "pass"},
		{ID: "bad-pass"},
		{ID: "fail", Results: []models.Result{{Status: "failed"}}},
	}})
	summary := walker.Walk(context.Background(), report, testNode())

	resolved := sink.updatesWithStatus(models.WorkflowResolved)
	require.Len(t, resolved, 1)
	require.Len(t, resolved[0].Identifiers, 1)
	assert.Equal(t, "node-1/p/pass", resolved[0].Identifiers[0].ID)

	open := sink.updatesWithStatus(models.WorkflowNew)
	require.Len(t, open, 1)
	assert.Equal(t, "node-1/p/fail", open[0].Identifiers[0].ID)

	for _, u := range sink.Updates {
		for _, id := range u.Identifiers {
			assert.NotEqual(t, "node-1/p/bad-pass", id.ID, "rejected finding must not be transitioned")
		}
	}

	assert.Equal(t, 1, summary.Resolved)
	assert.Equal(t, 1, summary.Opened)
	require.Len(t, summary.Errors, 1)
	assert.True(t, log.HasMessage("WARN", "Reconciling findings accepted by a partial import"))
}

func TestWalkSkipsUpdatesWhenEveryFindingRejected(t *testing.T) {
	sink := &MockSink{
		SubmitFindingsFunc: func(_ context.Context, findings []models.Finding) error {
			ids := make([]string, 0, len(findings))
			for _, f := range findings {
				ids = append(ids, f.ID)
			}
			return &partialImportError{failed: ids, total: len(findings)}
		},
	}
	walker, _ := newTestWalker(sink)

	report := testReport(models.Profile{Name: "p", Controls: []models.Control{{ID: "a"}, {ID: "b"}}})
	summary := walker.Walk(context.Background(), report, testNode())

	assert.Empty(t, sink.Updates)
	require.Len(t, summary.Errors, 1)
}

func TestWithoutIDs(t *testing.T) {
	findings := []models.Finding{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	kept := withoutIDs(findings, []string{"b", "unknown"})
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].ID)
	assert.Equal(t, "c", kept[1].ID)
	assert.Len(t, findings, 3, "input is not modified")
	assert.Len(t, withoutIDs(findings, nil), 3)
}
