// Package api exposes the conversion engine over HTTP so network print
// workflows can restructure G-code without shelling out to the CLI.
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/orcapost/internal/logger"
	"github.com/samcharles93/orcapost/pkg/gcode"
)

// MaxBodyBytes caps uploaded documents. Sliced plate files top out well under
// this; anything bigger is not a G-code upload.
const MaxBodyBytes = 1 << 30

type Server struct {
	log  logger.Logger
	opts gcode.Options
}

func NewServer(log logger.Logger, opts gcode.Options) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{log: log, opts: opts}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/convert", s.handleConvert)
	e.POST("/v1/report", s.handleReport)
	e.GET("/v1/healthz", s.handleHealthz)
}

// ConvertReport is the JSON envelope returned by /v1/report and attached to
// /v1/convert responses via headers.
type ConvertReport struct {
	ID string `json:"id"`
	*gcode.Result
}

// handleConvert converts the posted document and returns it as plain text.
// The detector can be disabled per request with ?detector=0.
func (s *Server) handleConvert(c *echo.Context) error {
	res, report, err := s.convert(c)
	if err != nil {
		return err
	}
	if res == nil {
		return nil // error response already written
	}

	h := c.Response().Header()
	h.Set("X-Conversion-Id", report.ID)
	h.Set("X-Conversion-Injected", fmt.Sprintf("%d", res.Injected))
	h.Set(echo.HeaderContentType, "text/plain; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	_, werr := c.Response().Write(res.Output.Bytes())
	return werr
}

// handleReport runs the same conversion but returns only the report, for
// callers that want to know what a file contains without the payload.
func (s *Server) handleReport(c *echo.Context) error {
	res, report, err := s.convert(c)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	body, err := json.Marshal(report)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, "encode report: "+err.Error())
	}
	h := c.Response().Header()
	h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c.Response().WriteHeader(http.StatusOK)
	_, werr := c.Response().Write(body)
	return werr
}

func (s *Server) handleHealthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// convert reads the request body and runs the engine. A nil result with nil
// error means an error response has already been written.
func (s *Server) convert(c *echo.Context) (*gcode.Result, *ConvertReport, error) {
	id := uuid.NewString()
	log := s.log.With("request_id", id)

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxBodyBytes+1))
	if err != nil {
		return nil, nil, writeError(c, http.StatusBadRequest, "read body: "+err.Error())
	}
	if len(body) == 0 {
		return nil, nil, writeError(c, http.StatusBadRequest, "empty request body")
	}
	if len(body) > MaxBodyBytes {
		return nil, nil, writeError(c, http.StatusRequestEntityTooLarge, "document too large")
	}

	opts := s.opts
	if v := c.QueryParam("detector"); v != "" {
		opts.SpaghettiDetector = v != "0" && !strings.EqualFold(v, "false")
	}

	res, err := gcode.Convert(gcode.ParseDocument(body), opts)
	if err != nil {
		log.Warn("conversion rejected", "error", err)
		return nil, nil, writeError(c, http.StatusUnprocessableEntity, err.Error())
	}
	for _, w := range res.Warnings {
		log.Warn("conversion warning", "detail", w)
	}
	log.Info("converted document",
		"lines", res.Output.LineCount(),
		"injected", res.Injected,
		"already_canonical", res.AlreadyCanonical)

	return res, &ConvertReport{ID: id, Result: res}, nil
}

func writeError(c *echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]any{
		"error": map[string]string{"message": msg},
	})
}
