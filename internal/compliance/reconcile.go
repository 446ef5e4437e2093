package compliance

import "github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"

// StatusUpdate is a bulk workflow transition for a set of findings.
// Re-importing a finding with a new compliance status does not close it in
// Security Hub; only an explicit workflow update does.
type StatusUpdate struct {
	Status      models.WorkflowStatus
	Identifiers []models.FindingIdentifier
}

// Empty reports whether the update addresses no findings. Empty updates
// are never sent.
func (u StatusUpdate) Empty() bool {
	return len(u.Identifiers) == 0
}

// Split partitions findings by workflow status into the RESOLVED and NEW
// transitions to request. Every finding lands in exactly one update.
func Split(findings []models.Finding) (resolved, open StatusUpdate) {
	resolved = StatusUpdate{Status: models.WorkflowResolved}
	open = StatusUpdate{Status: models.WorkflowNew}

	for i := range findings {
		switch findings[i].Workflow {
		case models.WorkflowResolved:
			resolved.Identifiers = append(resolved.Identifiers, findings[i].Identifier())
		default:
			open.Identifiers = append(open.Identifiers, findings[i].Identifier())
		}
	}

	return resolved, open
}
