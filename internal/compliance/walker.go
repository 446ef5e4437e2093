package compliance

import (
	"context"
	"errors"
	"fmt"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/metrics"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// DefaultBatchLimit is the Security Hub per-request finding limit.
const DefaultBatchLimit = 100

// Sink receives findings and workflow transitions. Implementations are
// called sequentially and are not retried.
type Sink interface {
	SubmitFindings(ctx context.Context, findings []models.Finding) error
	UpdateWorkflowStatus(ctx context.Context, update StatusUpdate) error
}

// PartialFailure is implemented by sink errors for calls that some
// findings survived.
type PartialFailure interface {
	FailedIDs() []string
	IsPartial() bool
}

// Summary describes what one walk submitted.
type Summary struct {
	Errors          []error
	Profiles        int
	SkippedProfiles int
	Batches         int
	Findings        int
	Passed          int
	Failed          int
	Resolved        int
	Opened          int
}

// Err joins every error recorded during the walk.
func (s *Summary) Err() error {
	return errors.Join(s.Errors...)
}

// Add accumulates another summary into s.
func (s *Summary) Add(other Summary) {
	s.Errors = append(s.Errors, other.Errors...)
	s.Profiles += other.Profiles
	s.SkippedProfiles += other.SkippedProfiles
	s.Batches += other.Batches
	s.Findings += other.Findings
	s.Passed += other.Passed
	s.Failed += other.Failed
	s.Resolved += other.Resolved
	s.Opened += other.Opened
}

// Walker drives a report through building, batching and reconciliation.
type Walker struct {
	sink    Sink
	builder *Builder
	logger  logger.Logger
	limit   int
}

// NewWalker creates a walker submitting to sink in batches of at most limit.
func NewWalker(sink Sink, builder *Builder, limit int) *Walker {
	return NewWalkerWithLogger(sink, builder, limit, logger.GetGlobalLogger())
}

// NewWalkerWithLogger creates a walker with a custom logger.
func NewWalkerWithLogger(sink Sink, builder *Builder, limit int, log logger.Logger) *Walker {
	if limit < 1 || limit > DefaultBatchLimit {
		limit = DefaultBatchLimit
	}
	return &Walker{
		sink:    sink,
		builder: builder,
		limit:   limit,
		logger:  log,
	}
}

// Walk submits one finding per control of every profile in the report.
// Submission failures are logged and recorded; they never stop the walk.
func (w *Walker) Walk(ctx context.Context, report *models.Report, node *models.Node) Summary {
	rc := models.NewReportContext(report, node)
	log := logger.WithContext(ctx, logger.WithNode(w.logger, rc.NodeID, rc.NodeName)).With("report_id", rc.ReportID)

	log.Info("Processing report",
		"chef_server", rc.ChefServer,
		"chef_organization", rc.ChefOrganization,
		"automate", rc.AutomateURL,
		"profiles", len(report.Profiles),
	)

	var summary Summary
	for _, profile := range report.Profiles {
		summary.Add(w.walkProfile(ctx, rc, profile, log.With("profile", profile.Name)))
	}

	metrics.ReportsProcessed.Inc()
	log.Info("Report processed",
		"findings", summary.Findings,
		"batches", summary.Batches,
		"passed", summary.Passed,
		"failed", summary.Failed,
		"errors", len(summary.Errors),
	)
	return summary
}

func (w *Walker) walkProfile(ctx context.Context, rc models.ReportContext, profile models.Profile, log logger.Logger) Summary {
	var summary Summary

	if len(profile.Controls) == 0 {
		log.Debug("Skipping profile without controls")
		summary.SkippedProfiles++
		return summary
	}
	summary.Profiles++
	log.Debug("Walking profile", "controls", len(profile.Controls), "batches", ChunkCount(len(profile.Controls), w.limit))

	partitioner := NewPartitioner(profile.Controls, w.limit)
	for chunk, ok := partitioner.Next(); ok; chunk, ok = partitioner.Next() {
		summary.Batches++
		findings := make([]models.Finding, 0, len(chunk))
		for _, control := range chunk {
			finding := w.builder.Build(rc, profile, control)
			if finding.Compliance == models.CompliancePassed {
				summary.Passed++
			} else {
				summary.Failed++
			}
			findings = append(findings, finding)
		}
		summary.Findings += len(findings)

		log.Info("Sending findings", "count", len(findings), "remaining", partitioner.Remaining())
		if err := w.sink.SubmitFindings(ctx, findings); err != nil {
			metrics.SubmissionFailures.WithLabelValues(metrics.OperationImport).Inc()
			log.Error("Failed to import findings", "count", len(findings), "error", err)
			summary.Errors = append(summary.Errors, fmt.Errorf("importing %d findings for profile %s: %w", len(findings), profile.Name, err))

			var partial PartialFailure
			if !errors.As(err, &partial) || !partial.IsPartial() {
				continue
			}
			findings = withoutIDs(findings, partial.FailedIDs())
			log.Warn("Reconciling findings accepted by a partial import", "accepted", len(findings))
		}
		countSubmitted(findings)

		resolved, open := Split(findings)
		for _, update := range []StatusUpdate{resolved, open} {
			if update.Empty() {
				continue
			}
			if err := w.sink.UpdateWorkflowStatus(ctx, update); err != nil {
				metrics.SubmissionFailures.WithLabelValues(metrics.OperationUpdate).Inc()
				log.Error("Failed to update workflow status", "status", update.Status, "count", len(update.Identifiers), "error", err)
				summary.Errors = append(summary.Errors, fmt.Errorf("setting %d findings to %s for profile %s: %w", len(update.Identifiers), update.Status, profile.Name, err))
				continue
			}
			metrics.StatusUpdates.WithLabelValues(string(update.Status)).Add(float64(len(update.Identifiers)))
			log.Debug("Updated workflow status", "status", update.Status, "count", len(update.Identifiers))
			if update.Status == models.WorkflowResolved {
				summary.Resolved += len(update.Identifiers)
			} else {
				summary.Opened += len(update.Identifiers)
			}
		}
	}

	return summary
}

// withoutIDs returns the findings whose id is not in ids.
func withoutIDs(findings []models.Finding, ids []string) []models.Finding {
	rejected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		rejected[id] = struct{}{}
	}

	kept := make([]models.Finding, 0, len(findings))
	for i := range findings {
		if _, ok := rejected[findings[i].ID]; !ok {
			kept = append(kept, findings[i])
		}
	}
	return kept
}

func countSubmitted(findings []models.Finding) {
	for i := range findings {
		metrics.FindingsSubmitted.WithLabelValues(string(findings[i].Compliance)).Inc()
	}
}
