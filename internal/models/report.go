package models

import "time"

// ResultStatusFailed is the InSpec result status that fails a control.
const ResultStatusFailed = "failed"

// Message is one line of a Data Tap packet. Only messages carrying a
// report are compliance reports; everything else is control traffic.
type Message struct {
	Report *Report `json:"report,omitempty"`
	Node   *Node   `json:"node,omitempty"`
}

// IsReport reports whether the message carries a compliance report.
func (m *Message) IsReport() bool {
	return m != nil && m.Report != nil
}

// Node is the node metadata Automate attaches to a report.
type Node struct {
	AutomateFQDN string `json:"automate_fqdn"`
}

// Report is one InSpec run for one node.
type Report struct {
	EndTime          Timestamp `json:"end_time"`
	ID               string    `json:"id"`
	NodeID           string    `json:"node_id"`
	NodeName         string    `json:"node_name"`
	ChefServer       string    `json:"chef_server"`
	ChefOrganization string    `json:"chef_organization"`
	Profiles         []Profile `json:"profiles"`
}

// Timestamp mirrors the protobuf timestamp Automate serializes.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos,omitempty"`
}

// Time converts the timestamp to UTC.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanos)).UTC()
}

// Profile is a named collection of controls.
type Profile struct {
	Name     string    `json:"name"`
	Title    string    `json:"title,omitempty"`
	Version  string    `json:"version,omitempty"`
	Controls []Control `json:"controls"`
}

// Control is one checkable rule. Desc and Impact are optional in the
// Data Tap payload and stay nil when absent.
type Control struct {
	Desc    *string  `json:"desc,omitempty"`
	Impact  *float64 `json:"impact,omitempty"`
	ID      string   `json:"id"`
	Title   string   `json:"title,omitempty"`
	Results []Result `json:"results,omitempty"`
}

// Result is one evaluated test inside a control.
type Result struct {
	Status   string `json:"status"`
	CodeDesc string `json:"code_desc,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Failed reports whether the result failed.
func (r Result) Failed() bool {
	return r.Status == ResultStatusFailed
}

// ReportContext carries the report and node fields every finding needs.
type ReportContext struct {
	EndTime          time.Time
	ReportID         string
	NodeID           string
	NodeName         string
	ChefServer       string
	ChefOrganization string
	AutomateURL      string
}

// NewReportContext extracts the per-report context used when building findings.
func NewReportContext(report *Report, node *Node) ReportContext {
	rc := ReportContext{
		EndTime:          report.EndTime.Time(),
		ReportID:         report.ID,
		NodeID:           report.NodeID,
		NodeName:         report.NodeName,
		ChefServer:       report.ChefServer,
		ChefOrganization: report.ChefOrganization,
	}
	if node != nil {
		rc.AutomateURL = node.AutomateFQDN
	}
	return rc
}
