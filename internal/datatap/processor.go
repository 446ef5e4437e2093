package datatap

import (
	"context"

	"github.com/google/uuid"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/compliance"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/metrics"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// ReportWalker processes one report to completion.
type ReportWalker interface {
	Walk(ctx context.Context, report *models.Report, node *models.Node) compliance.Summary
}

// Result describes what happened to one packet.
type Result struct {
	RequestID    string
	DecodeErrors []error
	Summary      compliance.Summary
	Messages     int
	Reports      int
	Skipped      int
}

// Undecodable reports whether the packet had content but no line decoded.
func (r *Result) Undecodable() bool {
	return r.Messages == 0 && len(r.DecodeErrors) > 0
}

// Processor dispatches the reports of a packet to the walker, one at a time.
type Processor struct {
	walker ReportWalker
	logger logger.Logger
}

// NewProcessor creates a processor.
func NewProcessor(walker ReportWalker) *Processor {
	return NewProcessorWithLogger(walker, logger.GetGlobalLogger())
}

// NewProcessorWithLogger creates a processor with a custom logger.
func NewProcessorWithLogger(walker ReportWalker, log logger.Logger) *Processor {
	return &Processor{walker: walker, logger: log}
}

// Process decodes a packet and walks every report in it sequentially.
// Messages without a report are logged and ignored.
func (p *Processor) Process(ctx context.Context, body []byte) Result {
	result := Result{RequestID: uuid.New().String()}
	ctx = logger.ContextWithRequestID(ctx, result.RequestID)
	log := logger.WithContext(ctx, p.logger)

	messages, errs := Decode(body)
	result.Messages = len(messages)
	result.DecodeErrors = errs
	log.Info("Packet received", "messages", len(messages), "decode_errors", len(errs))

	for _, err := range errs {
		metrics.DecodeErrors.Inc()
		log.Warn("Skipping undecodable message", "error", err)
	}

	for i := range messages {
		msg := &messages[i]
		if !msg.IsReport() {
			metrics.MessagesSkipped.Inc()
			result.Skipped++
			log.Info("Skipping message as it is not a compliance report")
			continue
		}

		result.Reports++
		result.Summary.Add(p.walker.Walk(ctx, msg.Report, msg.Node))
	}

	return result
}
