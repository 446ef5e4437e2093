package compliance

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
)

// Normalization limits for finding descriptions.
const (
	MaxDescriptionLength = 1024
	TruncatedLength      = 1000
	TruncationMarker     = "...(truncated)"
)

// Fixed ASFF values for findings produced by the bridge.
const (
	SchemaVersion    = "2018-10-08"
	ResourceTypeNode = "Other"
	DefaultImpact    = 1.0
)

// BuilderConfig holds the account-level qualifiers of every finding.
type BuilderConfig struct {
	Partition string
	Region    string
	AccountID string
	Types     []string
}

// Builder maps controls onto canonical findings.
type Builder struct {
	productARN string
	config     BuilderConfig
}

// NewBuilder creates a builder for findings imported into the configured account.
func NewBuilder(config BuilderConfig) *Builder {
	types := make([]string, len(config.Types))
	copy(types, config.Types)
	config.Types = types

	return &Builder{
		config:     config,
		productARN: models.ProductARN(config.Partition, config.Region, config.AccountID),
	}
}

// ProductARN returns the product ARN stamped on every finding.
func (b *Builder) ProductARN() string {
	return b.productARN
}

// Build creates the finding for one control of one profile. Missing fields
// are defaulted, so Build is total over any control.
func (b *Builder) Build(rc models.ReportContext, profile models.Profile, control models.Control) models.Finding {
	compliance := Evaluate(control)
	impact := NormalizeImpact(control.Impact)
	severity := int32(math.Round(impact * 100))
	observed := rc.EndTime

	productFields := map[string]string{
		"chef/server":       rc.ChefServer,
		"chef/organization": rc.ChefOrganization,
		"chef/report_id":    rc.ReportID,
		"chef/node_id":      rc.NodeID,
		"inspec/profile":    profile.Name,
		"inspec/control":    control.ID,
	}
	if profile.Version != "" {
		productFields["inspec/profile_version"] = profile.Version
	}
	if control.Title != "" {
		productFields["inspec/control_title"] = control.Title
	}

	types := make([]string, len(b.config.Types))
	copy(types, b.config.Types)

	return models.Finding{
		ID:               models.GenerateFindingID(rc.NodeID, profile.Name, control.ID),
		ProductARN:       b.productARN,
		GeneratorID:      "Inspec " + profile.Name,
		AccountID:        b.config.AccountID,
		SchemaVersion:    SchemaVersion,
		Types:            types,
		Title:            fmt.Sprintf("%s %s", profile.Name, control.ID),
		Description:      NormalizeDescription(control.Desc, control.ID),
		SourceURL:        SourceURL(rc.AutomateURL, rc.NodeID),
		CreatedAt:        observed,
		UpdatedAt:        observed,
		FirstObservedAt:  observed,
		LastObservedAt:   observed,
		Severity:         severity,
		SeverityOriginal: impact,
		SeverityLabel:    models.LabelForNormalized(severity),
		Compliance:       compliance,
		Workflow:         models.WorkflowFor(compliance),
		ProductFields:    productFields,
		Resource: models.Resource{
			Type:      ResourceTypeNode,
			ID:        rc.NodeName,
			Partition: b.config.Partition,
			Region:    b.config.Region,
		},
	}
}

// NormalizeDescription substitutes the control id for a missing description
// and truncates overlong ones. Lengths are counted in runes.
func NormalizeDescription(desc *string, controlID string) string {
	text := ""
	if desc != nil {
		text = *desc
	}
	if strings.TrimSpace(text) == "" {
		text = controlID
	}
	if strings.TrimSpace(text) == "" {
		return "No description provided"
	}

	if utf8.RuneCountInString(text) > MaxDescriptionLength {
		runes := []rune(text)
		return string(runes[:TruncatedLength]) + TruncationMarker
	}
	return text
}

// NormalizeImpact applies the default impact and clamps it to [0, 1].
func NormalizeImpact(impact *float64) float64 {
	if impact == nil || math.IsNaN(*impact) {
		return DefaultImpact
	}
	return math.Min(1, math.Max(0, *impact))
}

// SourceURL links a finding back to the node's report in Automate.
func SourceURL(automateURL, nodeID string) string {
	base := strings.TrimRight(automateURL, "/")
	if base == "" {
		return ""
	}
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/compliance/reports/nodes/%s", base, nodeID)
}
