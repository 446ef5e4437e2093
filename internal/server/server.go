// Package server exposes the Data Tap endpoint over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/datatap"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/internal/metrics"
	"github.com/trickyearlobe/AwsSecurityHubAutomateIntegration/pkg/logger"
)

// MaxBodySize bounds a single Data Tap packet.
const MaxBodySize = "64M"

// PacketProcessor handles one Data Tap packet.
type PacketProcessor interface {
	Process(ctx context.Context, body []byte) datatap.Result
}

// Response is the JSON body returned to Data Tap.
type Response struct {
	Result    string `json:"result"`
	RequestID string `json:"request_id,omitempty"`
	Reports   int    `json:"reports"`
	Skipped   int    `json:"skipped"`
	Findings  int    `json:"findings"`
	Errors    int    `json:"errors"`
}

// Server is the HTTP front end of the bridge.
type Server struct {
	echo      *echo.Echo
	processor PacketProcessor
	auth      *datatap.Authenticator
	logger    logger.Logger
}

// New creates a server with its routes registered.
func New(processor PacketProcessor, auth *datatap.Authenticator, log logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(MaxBodySize))

	s := &Server{
		echo:      e,
		processor: processor,
		auth:      auth,
		logger:    log,
	}
	s.Register(e)
	return s
}

// Register adds the bridge routes to e.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/datatap", s.receivePacket)
	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("Listening for Data Tap packets", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) receivePacket(c echo.Context) error {
	req := c.Request()
	s.logger.Info("Message packet arrived", "source_ip", c.RealIP())

	if err := s.auth.CheckAuthorization(req.Header.Get(echo.HeaderAuthorization)); err != nil {
		metrics.AuthFailures.Inc()
		s.logger.Warn("Rejected Data Tap request", "source_ip", c.RealIP(), "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading body: "+err.Error())
	}

	result := s.processor.Process(req.Context(), body)
	if result.Undecodable() {
		return c.JSON(http.StatusBadRequest, Response{
			Result:    "Invalid",
			RequestID: result.RequestID,
			Errors:    len(result.DecodeErrors),
		})
	}

	return c.JSON(http.StatusOK, NewResponse(result))
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// NewResponse summarizes a processed packet.
func NewResponse(result datatap.Result) Response {
	return Response{
		Result:    "Success",
		RequestID: result.RequestID,
		Reports:   result.Reports,
		Skipped:   result.Skipped,
		Findings:  result.Summary.Findings,
		Errors:    len(result.Summary.Errors) + len(result.DecodeErrors),
	}
}
