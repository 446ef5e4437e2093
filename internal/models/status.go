package models

// ComplianceStatus is the pass/fail verdict of a control at report time.
type ComplianceStatus string

// WorkflowStatus is the Security Hub lifecycle state of a finding.
type WorkflowStatus string

// Compliance status constants.
const (
	CompliancePassed ComplianceStatus = "PASSED"
	ComplianceFailed ComplianceStatus = "FAILED"
)

// Workflow status constants.
const (
	WorkflowNew      WorkflowStatus = "NEW"
	WorkflowResolved WorkflowStatus = "RESOLVED"
)

// WorkflowFor returns the workflow state a finding with the given
// compliance status must be moved to.
func WorkflowFor(status ComplianceStatus) WorkflowStatus {
	if status == CompliancePassed {
		return WorkflowResolved
	}
	return WorkflowNew
}
