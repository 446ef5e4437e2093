// Package datatap receives Chef Automate Data Tap packets and hands their
// compliance reports to the report walker.
package datatap

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/models"
)

// DecodeError reports a packet line that is not valid JSON.
type DecodeError struct {
	Err  error
	Line int
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode splits a packet into its newline-delimited messages. Blank lines
// are skipped; a line that fails to decode does not prevent the others
// from being returned.
func Decode(body []byte) ([]models.Message, []error) {
	var (
		messages []models.Message
		errs     []error
	)

	for i, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var msg models.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			errs = append(errs, &DecodeError{Line: i + 1, Err: err})
			continue
		}
		messages = append(messages, msg)
	}

	return messages, errs
}
