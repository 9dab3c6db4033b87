package server

// Notes:
// - Requests go through a real ConverterPool. The native backend runs for
//   real; the HTML backend prints with fakeEngine.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/fonts"
	"github.com/alnah/go-resume2pdf/internal/render"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

const resume = `# Jane Doe

jane@example.com

## Experience

**Acme Corp** | Engineer | 2020 - 2024

- Shipped things
`

const onePagePDF = "%PDF-1.4\n1 0 obj << /Type /Page >> endobj\n%%EOF\n"

type fakeEngine struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEngine) Print(context.Context, string, render.PrintOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte(onePagePDF), nil
}

func (f *fakeEngine) Close() error { return nil }

func newTestServer(t *testing.T, eng *fakeEngine, opts Options) *Server {
	t.Helper()
	pool := resume2pdf.NewConverterPool(1,
		resume2pdf.WithFontProvider(fonts.Static(fonts.GoFace())),
		resume2pdf.WithEngine(eng))
	t.Cleanup(func() { _ = pool.Close() })
	opts.Pool = pool
	return New(opts)
}

func do(s *Server, method, target, contentType, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func jsonBody(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func massive(items int) string {
	var b strings.Builder
	b.WriteString("# Jane Doe\n\n## Experience\n\n")
	for i := range items {
		fmt.Fprintf(&b, "- Item %d %s\n", i, strings.Repeat("lorem ipsum ", 20))
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeEngine{}, Options{})
	w := do(s, http.MethodGet, "/healthz", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status   string `json:"status"`
		PoolSize int    `json:"pool_size"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.PoolSize != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestRender_Markdown(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeEngine{}, Options{})
	w := do(s, http.MethodPost, "/v1/render", "text/markdown", resume, headerRequestID, "req-42")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}

	headers := map[string]string{
		HeaderCompressionRatio: "1.000",
		HeaderContentOverflow:  "false",
		HeaderPageCount:        "1",
		HeaderBackend:          "native",
		headerRequestID:        "req-42",
	}
	for k, want := range headers {
		if got := w.Header().Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
	if w.Header().Get(HeaderRenderID) == "" {
		t.Error("missing render id")
	}
}

func TestRender_JSONSmartOnePage(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeEngine{}, Options{})
	body := jsonBody(t, map[string]any{"markdown": massive(200), "smart_onepage": true})
	w := do(s, http.MethodPost, "/v1/render", "application/json", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if got := w.Header().Get(HeaderCompressionRatio); got != "0.550" {
		t.Errorf("ratio = %q, want 0.550", got)
	}
	if got := w.Header().Get(HeaderContentOverflow); got != "true" {
		t.Errorf("overflow = %q, want true", got)
	}
	if len(w.Header().Values("Warning")) == 0 {
		t.Error("overflow should be reported in a Warning header")
	}
}

func TestRender_QueryOverrides(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	s := newTestServer(t, eng, Options{SmartOnePage: true})

	body := jsonBody(t, map[string]any{"markdown": massive(200), "backend": "native"})
	w := do(s, http.MethodPost, "/v1/render?backend=html&smart_onepage=false", "application/json", body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if eng.calls != 1 || w.Header().Get(HeaderBackend) != "html" {
		t.Errorf("engine calls = %d, backend = %q", eng.calls, w.Header().Get(HeaderBackend))
	}
	if got := w.Header().Get(HeaderCompressionRatio); got != "1.000" {
		t.Errorf("query smart_onepage=false should win: ratio = %q", got)
	}
}

func TestRender_ServerDefaults(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeEngine{}, Options{SmartOnePage: true})
	w := do(s, http.MethodPost, "/v1/render", "text/plain", massive(200))
	if got := w.Header().Get(HeaderCompressionRatio); got != "0.550" {
		t.Errorf("default single-page mode not applied: ratio = %q", got)
	}
}

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	s := newTestServer(t, eng, Options{})
	w := do(s, http.MethodPost, "/v1/render/html", "text/markdown", resume)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if eng.calls != 0 {
		t.Error("HTML preview should not print")
	}

	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Find("h1.name-title").Text(); got != "Jane Doe" {
		t.Errorf("name = %q", got)
	}
	if doc.Find("section").Length() != 1 {
		t.Errorf("sections = %d, want 1", doc.Find("section").Length())
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeEngine{}, Options{})
	w := do(s, http.MethodPost, "/v1/parse?smart_onepage=true", "text/markdown", resume)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var body struct {
		Document struct {
			PersonalInfo struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"personal_info"`
			Sections []struct {
				Title string `json:"title"`
				Kind  string `json:"kind"`
			} `json:"sections"`
		} `json:"document"`
		Plan struct {
			Ratio float64 `json:"ratio"`
			Tier  string  `json:"tier"`
		} `json:"plan"`
		Warnings []any `json:"warnings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %s: %v", w.Body, err)
	}
	if body.Document.PersonalInfo.Name != "Jane Doe" || body.Document.PersonalInfo.Email != "jane@example.com" {
		t.Errorf("personal info = %+v", body.Document.PersonalInfo)
	}
	if len(body.Document.Sections) != 1 || body.Document.Sections[0].Kind != "experience" {
		t.Errorf("sections = %+v", body.Document.Sections)
	}
	if body.Plan.Ratio != 1 || body.Warnings == nil {
		t.Errorf("plan = %+v, warnings = %v", body.Plan, body.Warnings)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		target      string
		contentType string
		body        string
		engineErr   error
		maxBody     int64
		want        int
	}{
		{"empty body", "/v1/render", "text/markdown", "", nil, 0, http.StatusBadRequest},
		{"blank body", "/v1/render", "text/markdown", "  \n ", nil, 0, http.StatusBadRequest},
		{"json without markdown", "/v1/render", "application/json", `{"backend":"native"}`, nil, 0, http.StatusBadRequest},
		{"malformed json", "/v1/parse", "application/json", `{"markdown":`, nil, 0, http.StatusBadRequest},
		{"bad smart_onepage", "/v1/render?smart_onepage=maybe", "text/markdown", resume, nil, 0, http.StatusBadRequest},
		{"unknown backend", "/v1/render?backend=latex", "text/markdown", resume, nil, 0, http.StatusBadRequest},
		{"body too large", "/v1/render", "text/markdown", resume, nil, 16, http.StatusRequestEntityTooLarge},
		{"engine failure", "/v1/render?backend=html", "text/markdown", resume, errors.New("crashed"), 0, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer(t, &fakeEngine{err: tt.engineErr}, Options{MaxBodyBytes: tt.maxBody})
			w := do(s, http.MethodPost, tt.target, tt.contentType, tt.body)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
			var body errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("error body = %s (%v)", w.Body, err)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{resume2pdf.ErrEmptyMarkdown, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", resume2pdf.ErrUnknownBackend), http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("%w: timeout", resume2pdf.ErrBackendUnavailable), http.StatusServiceUnavailable},
		{resume2pdf.ErrPoolClosed, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, 499},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRecovery(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(requestID(), recovery(zap.NewNop()))
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if w.Header().Get(headerRequestID) == "" {
		t.Error("request id should be generated")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeEngine{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
