package models

// SeverityLabel is the Security Hub severity label.
type SeverityLabel string

// Severity labels as constants for type safety and consistency.
const (
	SeverityInformational SeverityLabel = "INFORMATIONAL"
	SeverityLow           SeverityLabel = "LOW"
	SeverityMedium        SeverityLabel = "MEDIUM"
	SeverityHigh          SeverityLabel = "HIGH"
	SeverityCritical      SeverityLabel = "CRITICAL"
)

// LabelForNormalized maps a 0-100 normalized score onto the label ranges
// Security Hub documents for the normalized field.
func LabelForNormalized(normalized int32) SeverityLabel {
	switch {
	case normalized <= 0:
		return SeverityInformational
	case normalized < 40:
		return SeverityLow
	case normalized < 70:
		return SeverityMedium
	case normalized < 90:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// ValidSeverities returns all valid severity labels for validation.
func ValidSeverities() []SeverityLabel {
	return []SeverityLabel{
		SeverityInformational,
		SeverityLow,
		SeverityMedium,
		SeverityHigh,
		SeverityCritical,
	}
}
