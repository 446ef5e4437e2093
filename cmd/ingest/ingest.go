// Package ingest processes a saved Data Tap packet from disk.
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/app"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/config"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/datatap"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/pathutil"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Bold(true).Width(18)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boxStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Process a newline-delimited Data Tap packet from a file",
		Example: `  # Preview the findings a packet would produce
  hubbridge ingest --file packet.ndjson --dry-run

  # Submit to Security Hub
  hubbridge ingest --file packet.ndjson --config hubbridge.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, cmd.OutOrStdout(), configFile, file, dryRun)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Packet file to ingest (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build findings without contacting AWS")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func run(ctx context.Context, out io.Writer, configFile, file string, dryRun bool) error {
	log := logger.GetGlobalLogger()

	path, err := pathutil.ValidateInputFile(file)
	if err != nil {
		return fmt.Errorf("reading packet: %w", err)
	}
	body, err := os.ReadFile(path) //nolint:gosec // Path is from trusted source (operator flag)
	if err != nil {
		return fmt.Errorf("reading packet: %w", err)
	}

	load := config.LoadConfig
	if dryRun {
		load = config.LoadDryRunConfig
	}
	cfg, err := load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var (
		a         *app.App
		recording *app.RecordingSink
	)
	if dryRun {
		a, recording = app.NewDryRun(cfg, log)
	} else {
		a, err = app.New(ctx, cfg, log)
		if err != nil {
			return err
		}
	}

	result := a.Processor.Process(ctx, body)
	fmt.Fprintln(out, RenderSummary(file, result, recording))

	if result.Undecodable() {
		return fmt.Errorf("no message in %s could be decoded", file)
	}
	return result.Summary.Err()
}

// RenderSummary formats the outcome of an ingest for the terminal. The
// severity breakdown is shown only when findings were recorded locally.
func RenderSummary(file string, result datatap.Result, recording *app.RecordingSink) string {
	rows := []string{
		row("Request", result.RequestID),
		row("Messages", fmt.Sprint(result.Messages)),
		row("Reports", fmt.Sprint(result.Reports)),
		row("Skipped", fmt.Sprint(result.Skipped)),
		row("Profiles", fmt.Sprint(result.Summary.Profiles)),
		row("Batches", fmt.Sprint(result.Summary.Batches)),
		row("Findings", fmt.Sprintf("%d (%d passed, %d failed)", result.Summary.Findings, result.Summary.Passed, result.Summary.Failed)),
		row("Resolved", fmt.Sprint(result.Summary.Resolved)),
		row("Reopened", fmt.Sprint(result.Summary.Opened)),
	}

	if recording != nil {
		counts := recording.BySeverity()
		var parts []string
		for _, label := range models.ValidSeverities() {
			if counts[label] > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", label, counts[label]))
			}
		}
		if len(parts) > 0 {
			rows = append(rows, row("Severities", strings.Join(parts, " ")))
		}
	}

	for _, err := range result.DecodeErrors {
		rows = append(rows, errorStyle.Render("decode: "+err.Error()))
	}
	for _, err := range result.Summary.Errors {
		rows = append(rows, errorStyle.Render("submit: "+err.Error()))
	}

	title := titleStyle.Render("Ingested " + file)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, rows...)...))
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render(label+":"), value)
}
