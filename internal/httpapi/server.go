// Package httpapi exposes the range calculator over a small JSON API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/signalsfoundry/commnet-calculator/core"
	"github.com/signalsfoundry/commnet-calculator/internal/calc"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/internal/nbi"
	"github.com/signalsfoundry/commnet-calculator/internal/nbi/types"
	"github.com/signalsfoundry/commnet-calculator/internal/report"
	"github.com/signalsfoundry/commnet-calculator/model"
)

// Calculator is the subset of *calc.Calculator the API needs.
type Calculator interface {
	Compute(ctx context.Context, from, to []string) (*core.Result, error)
	Devices(ctx context.Context) ([]model.DeviceDefinition, error)
	Bands() *core.BandTable
}

// RequestRecorder receives one observation per handled request.
type RequestRecorder interface {
	ObserveHTTPRequest(route, method string, code int)
}

// Config holds the HTTP server settings.
type Config struct {
	Addr    string
	Logger  logging.Logger
	Metrics RequestRecorder
}

// Server wraps a gin router bound to a Calculator.
type Server struct {
	addr   string
	router *gin.Engine
	calc   Calculator
	log    logging.Logger
	rec    RequestRecorder
}

// NewServer builds the router and registers every route.
func NewServer(calculator Calculator, cfg Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	s := &Server{
		addr:   cfg.Addr,
		router: router,
		calc:   calculator,
		log:    log,
		rec:    cfg.Metrics,
	}
	router.Use(s.observe())
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down within timeout.
func (s *Server) Start(ctx context.Context, timeout time.Duration) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info(ctx, "HTTP API listening", logging.String("addr", s.addr))

	select {
	case <-ctx.Done():
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	v1 := s.router.Group("/v1")
	{
		v1.GET("/devices", s.handleDevices)
		v1.POST("/range", s.handleRange)
		v1.POST("/range/chart", s.handleChart)
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if s.rec == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.rec.ObserveHTTPRequest(route, c.Request.Method, c.Writer.Status())
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.calc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDevices(c *gin.Context) {
	if !s.ready(c) {
		return
	}
	defs, err := s.calc.Devices(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{types.FieldDevices: defs})
}

func (s *Server) handleRange(c *gin.Context) {
	res, ok := s.compute(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleChart(c *gin.Context) {
	res, ok := s.compute(c)
	if !ok {
		return
	}
	samples := report.DefaultChartSamples
	if raw := c.Query("samples"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "samples must be an integer >= 2"})
			return
		}
		samples = n
	}
	var buf bytes.Buffer
	if err := report.WriteChart(&buf, res, s.calc.Bands(), samples); err != nil {
		if errors.Is(err, report.ErrNoLink) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) compute(c *gin.Context) (*core.Result, bool) {
	if !s.ready(c) {
		return nil, false
	}
	req, err := decodeRangeRequest(c.Request.Body)
	if err == nil {
		err = nbi.ValidateRangeRequest(req)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	ctx := c.Request.Context()
	if id := c.GetHeader("X-Request-Id"); id != "" {
		ctx = logging.ContextWithRunID(ctx, id)
	}
	res, err := s.calc.Compute(ctx, req.From, req.To)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return res, true
}

// decodeRangeRequest reads a JSON range request, rejecting fields the gRPC
// path would also reject. An empty body is the default request.
func decodeRangeRequest(body io.Reader) (types.RangeRequest, error) {
	var req types.RangeRequest
	if body == nil {
		return req, nil
	}
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return types.RangeRequest{}, fmt.Errorf("%w: %v", nbi.ErrInvalidRequest, err)
	}
	if dec.More() {
		return types.RangeRequest{}, fmt.Errorf("%w: trailing data after request body", nbi.ErrInvalidRequest)
	}
	return req, nil
}

func (s *Server) ready(c *gin.Context) bool {
	if s.calc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "calculator not initialised"})
		return false
	}
	return true
}

func (s *Server) fail(c *gin.Context, err error) {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		s.log.Error(c.Request.Context(), "HTTP request failed",
			logging.String("route", c.FullPath()),
			logging.Err(err),
		)
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

// StatusCode maps calculator errors onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, nbi.ErrInvalidRequest), calc.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCatalogConflict),
		errors.Is(err, core.ErrInvalidDefinition),
		errors.Is(err, core.ErrInvalidBands),
		errors.Is(err, core.ErrInvalidCurve):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
