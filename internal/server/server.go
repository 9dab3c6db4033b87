// Package server exposes the converter over HTTP.
//
// Routes:
//
//	POST /v1/render       Markdown -> application/pdf
//	POST /v1/render/html  Markdown -> styled HTML (the document the HTML backend prints)
//	POST /v1/parse        Markdown -> parsed document, estimate and plan as JSON
//	GET  /healthz         liveness
//
// Markdown is sent as the raw body (text/markdown, text/plain) or as JSON
// {"markdown": "...", "smart_onepage": true, "backend": "html"}. The query
// parameters smart_onepage and backend override the body.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resume2pdf "github.com/alnah/go-resume2pdf"
)

// Response headers carrying render metadata.
const (
	HeaderRenderID         = "X-Render-Id"
	HeaderCompressionRatio = "X-Compression-Ratio"
	HeaderContentOverflow  = "X-Content-Overflow"
	HeaderPageCount        = "X-Page-Count"
	HeaderBackend          = "X-Render-Backend"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it zero.
const DefaultMaxBodyBytes = 1 << 20

// shutdownTimeout bounds graceful shutdown in Run.
const shutdownTimeout = 10 * time.Second

// Pool hands out converters. *resume2pdf.ConverterPool implements it.
type Pool interface {
	Acquire(ctx context.Context) (*resume2pdf.Converter, error)
	Release(c *resume2pdf.Converter)
	Size() int
}

var _ Pool = (*resume2pdf.ConverterPool)(nil)

// Options configures a Server.
type Options struct {
	Pool         Pool
	Logger       *zap.Logger
	MaxBodyBytes int64

	// Defaults applied when a request does not say.
	SmartOnePage bool
	Backend      resume2pdf.Backend
}

// Server serves render requests through a converter pool.
type Server struct {
	pool         Pool
	logger       *zap.Logger
	maxBody      int64
	smartOnePage bool
	backend      resume2pdf.Backend
	router       *gin.Engine
}

// New builds the server and its routes.
func New(opts Options) *Server {
	s := &Server{
		pool:         opts.Pool,
		logger:       opts.Logger,
		maxBody:      opts.MaxBodyBytes,
		smartOnePage: opts.SmartOnePage,
		backend:      opts.Backend,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}

	r := gin.New()
	r.Use(requestID(), requestLogger(s.logger), recovery(s.logger))

	r.GET("/healthz", s.health)
	v1 := r.Group("/v1", bodyLimit(s.maxBody))
	v1.POST("/render", s.render)
	v1.POST("/render/html", s.renderHTML)
	v1.POST("/parse", s.parse)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr), zap.Int("pool_size", s.pool.Size()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// renderRequest is the JSON body. Pointer fields distinguish "absent" from
// false.
type renderRequest struct {
	Markdown     string `json:"markdown" binding:"required"`
	SmartOnePage *bool  `json:"smart_onepage"`
	Backend      string `json:"backend" binding:"max=16"`
}

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "pool_size": s.pool.Size()})
}

func (s *Server) render(c *gin.Context) {
	res, ok := s.convert(c, false)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "application/pdf", res.PDF)
}

func (s *Server) renderHTML(c *gin.Context) {
	res, ok := s.convert(c, true)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", res.HTML)
}

func (s *Server) parse(c *gin.Context) {
	input, err := s.readInput(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	conv, err := s.pool.Acquire(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	defer s.pool.Release(conv)

	a, err := conv.Analyze(c.Request.Context(), input)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// convert runs one conversion and sets the metadata headers. On failure it
// has already written the error response.
func (s *Server) convert(c *gin.Context, htmlOnly bool) (*resume2pdf.Result, bool) {
	input, err := s.readInput(c)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	input.HTMLOnly = htmlOnly

	conv, err := s.pool.Acquire(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	defer s.pool.Release(conv)

	res, err := conv.Convert(c.Request.Context(), input)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}

	h := c.Writer.Header()
	h.Set(HeaderRenderID, res.RenderID)
	h.Set(HeaderBackend, string(res.Backend))
	h.Set(HeaderCompressionRatio, strconv.FormatFloat(res.Plan.Ratio, 'f', 3, 64))
	h.Set(HeaderContentOverflow, strconv.FormatBool(res.ContentOverflow))
	if res.Pages > 0 {
		h.Set(HeaderPageCount, strconv.Itoa(res.Pages))
	}
	for _, w := range res.Warnings {
		h.Add("Warning", fmt.Sprintf("199 resume2pdf %q", w.String()))
	}
	return res, true
}

// errBadRequest marks client errors detected while reading the request.
var errBadRequest = errors.New("bad request")

// readInput decodes the body and applies query overrides.
func (s *Server) readInput(c *gin.Context) (resume2pdf.Input, error) {
	req := renderRequest{Backend: string(s.backend)}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		if err := c.ShouldBindJSON(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return resume2pdf.Input{}, err
			}
			return resume2pdf.Input{}, fmt.Errorf("%w: %v", errBadRequest, err)
		}
	} else {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return resume2pdf.Input{}, err
		}
		req.Markdown = string(body)
	}

	if v, ok := c.GetQuery("smart_onepage"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return resume2pdf.Input{}, fmt.Errorf("%w: smart_onepage: %v", errBadRequest, err)
		}
		req.SmartOnePage = &b
	}
	if v, ok := c.GetQuery("backend"); ok {
		req.Backend = v
	}

	smart := s.smartOnePage
	if req.SmartOnePage != nil {
		smart = *req.SmartOnePage
	}
	backend, err := resume2pdf.ParseBackend(req.Backend)
	if err != nil {
		return resume2pdf.Input{}, err
	}

	return resume2pdf.Input{
		Markdown:     req.Markdown,
		SmartOnePage: smart,
		Backend:      backend,
	}, nil
}

// fail maps err to a status code and writes the error body.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, resume2pdf.ErrEmptyMarkdown),
		errors.Is(err, resume2pdf.ErrUnknownBackend):
		return http.StatusBadRequest
	case errors.Is(err, resume2pdf.ErrBackendUnavailable),
		errors.Is(err, resume2pdf.ErrPoolClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads this.
		return 499
	default:
		return http.StatusInternalServerError
	}
}
