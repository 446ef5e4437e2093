// Package compliance turns InSpec compliance reports into Security Hub
// findings and reconciles their workflow status.
package compliance

import "github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"

// Evaluate derives the verdict of a control from its results. A control
// without results has nothing failing and therefore passes.
func Evaluate(control models.Control) models.ComplianceStatus {
	for _, result := range control.Results {
		if result.Failed() {
			return models.ComplianceFailed
		}
	}
	return models.CompliancePassed
}
