// Package probe performs single HTTP availability probes against monitors.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/DhruvGupta005/uptime/internal/database"
)

const (
	// DefaultTimeout applies when a monitor has no usable timeout
	DefaultTimeout = 10 * time.Second
	// DefaultMaxRedirects caps how many redirects a probe follows
	DefaultMaxRedirects = 5

	drainLimit = 64 << 10
)

// Result is the outcome of one probe. Error is empty on success.
type Result struct {
	OK         bool
	StatusCode *int
	LatencyMs  int64
	Error      string
}

// Options configures an Executor
type Options struct {
	DefaultTimeout time.Duration
	MaxRedirects   int
	UserAgent      string
	Transport      http.RoundTripper
}

// Executor turns a monitor definition into exactly one HTTP request and a Result
type Executor struct {
	client         *http.Client
	defaultTimeout time.Duration
	userAgent      string
	validate       *validator.Validate
}

type requestSpec struct {
	URL    string `validate:"required,http_url"`
	Method string `validate:"oneof=GET HEAD POST PUT PATCH DELETE OPTIONS"`
}

// NewExecutor creates an executor sharing one HTTP client across probes
func NewExecutor(opts Options) *Executor {
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	maxRedirects := opts.MaxRedirects

	return &Executor{
		client: &http.Client{
			Transport: opts.Transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		defaultTimeout: opts.DefaultTimeout,
		userAgent:      opts.UserAgent,
		validate:       validator.New(),
	}
}

// Probe issues the monitor's request and classifies the outcome.
// It never returns an error; every failure is folded into the Result.
func (e *Executor) Probe(ctx context.Context, m *database.Monitor) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Probe: panic probing monitor %s: %v", m.ID, r)
			res = Result{Error: "Request failed"}
		}
	}()

	headers, err := parseHeaders(m.HeadersJSON)
	if err != nil {
		return Result{Error: fmt.Sprintf("Invalid headers configuration: %v", err)}
	}

	method := strings.ToUpper(strings.TrimSpace(m.Method))
	if method == "" {
		method = http.MethodGet
	}
	if err := e.validate.Struct(requestSpec{URL: m.URL, Method: method}); err != nil {
		return Result{Error: fmt.Sprintf("Invalid monitor configuration: %v", err)}
	}

	timeout := m.Timeout()
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if m.Body != nil && *m.Body != "" {
		body = strings.NewReader(*m.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.URL, body)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}
	for k, v := range headers {
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return Result{
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     classify(ctx, err),
		}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	if _, err := io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit)); err != nil {
		return Result{
			StatusCode: &status,
			LatencyMs:  time.Since(start).Milliseconds(),
			Error:      classify(ctx, err),
		}
	}
	latency := time.Since(start).Milliseconds()

	return Result{
		OK:         status >= 200 && status < 300,
		StatusCode: &status,
		LatencyMs:  latency,
	}
}

// parseHeaders decodes the stored header object. Blank or null input means no headers.
func parseHeaders(raw []byte) (map[string]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			headers[k] = val
		case float64, bool:
			headers[k] = fmt.Sprint(val)
		case nil:
		default:
			return nil, fmt.Errorf("header %q must be a scalar value", k)
		}
	}
	return headers, nil
}

func classify(ctx context.Context, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "Request timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Request timeout"
	}

	detail := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		detail = urlErr.Err
	}

	dnsErr := &net.DNSError{}
	opErr := &net.OpError{}
	if errors.As(err, &dnsErr) || (errors.As(err, &opErr) && opErr.Op == "dial") {
		return fmt.Sprintf("Connection failed: %v", detail)
	}

	if msg := detail.Error(); msg != "" {
		return msg
	}
	return "Request failed"
}
