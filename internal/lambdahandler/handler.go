// Package lambdahandler serves Data Tap packets delivered through API Gateway.
package lambdahandler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/datatap"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/metrics"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/server"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// Handler adapts API Gateway proxy events to the packet processor.
type Handler struct {
	processor server.PacketProcessor
	auth      *datatap.Authenticator
	logger    logger.Logger
}

// New creates a handler.
func New(processor server.PacketProcessor, auth *datatap.Authenticator, log logger.Logger) *Handler {
	return &Handler{processor: processor, auth: auth, logger: log}
}

// Start hands control to the Lambda runtime. It does not return.
func (h *Handler) Start() {
	lambda.Start(h.Handle)
}

// Handle processes one proxy event. Errors are reported through the status
// code; a non-nil error is returned only when the response cannot be encoded.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	h.logger.Info("Message packet arrived", "source_ip", req.RequestContext.Identity.SourceIP)

	if err := h.auth.CheckAuthorization(header(req.Headers, "Authorization")); err != nil {
		metrics.AuthFailures.Inc()
		h.logger.Warn("Rejected Data Tap request", "error", err)
		return respond(http.StatusUnauthorized, map[string]string{"message": err.Error()})
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respond(http.StatusBadRequest, map[string]string{"message": "invalid base64 body"})
		}
		body = decoded
	}

	result := h.processor.Process(ctx, body)
	if result.Undecodable() {
		return respond(http.StatusBadRequest, server.Response{
			Result:    "Invalid",
			RequestID: result.RequestID,
			Errors:    len(result.DecodeErrors),
		})
	}
	return respond(http.StatusOK, server.NewResponse(result))
}

func respond(status int, payload any) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusInternalServerError}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

// header looks up name case-insensitively; API Gateway preserves client casing.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
