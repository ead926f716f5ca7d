package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	apperrors "github.com/utafrali/coursehub/pkg/errors"
	"github.com/utafrali/coursehub/pkg/logger"
)

const (
	tracerName = "github.com/utafrali/coursehub/pkg/httpclient"

	// maxBodySize caps how much of a response body is buffered.
	maxBodySize = 10 << 20

	// RequestIDHeader carries the correlation id of every outgoing request.
	RequestIDHeader = "X-Request-ID"
)

// Config holds HTTP client configuration
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	MaxConnsPerHost int
	UserAgent       string

	// RateLimitRPS enables a client-side token bucket when > 0.
	RateLimitRPS   float64
	RateLimitBurst int

	// CircuitBreaker is optional; nil disables it.
	CircuitBreaker *CircuitBreakerConfig
}

// DefaultConfig returns sensible defaults for HTTP client
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:         baseURL,
		Timeout:         30 * time.Second,
		MaxConnsPerHost: 16,
		UserAgent:       "coursehub-client/1.0",
	}
}

// TokenSource supplies the access token attached to outgoing requests.
// credential.Store satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool, error)
}

// Request describes one call relative to the base URL. Body is re-encoded on
// every send, so the same Request can be replayed safely.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	// NoAuth suppresses the Authorization header. The token refresh call
	// uses it so an expired access token is never presented to it.
	NoAuth bool
}

// FilePart is a Request body sent as multipart/form-data.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Content     []byte
	Fields      map[string]string
}

// Client executes requests against a single backend origin.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	tokens     TokenSource
	limiter    *rate.Limiter
	breaker    *circuitBreaker
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates a new HTTP client with connection pooling. tokens may be nil
// for clients that never authenticate.
func New(cfg Config, tokens TokenSource, log *slog.Logger) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		baseURL: base,
		config:  cfg,
		tokens:  tokens,
		logger:  logger.Component(log, "httpclient"),
		tracer:  otel.Tracer(tracerName),
	}

	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}
	if cfg.CircuitBreaker != nil {
		c.breaker = newCircuitBreaker(*cfg.CircuitBreaker, c.logger)
	}

	return c, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url %q has no host", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	return base, nil
}

// BaseURL returns the resolved origin all paths are relative to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends the request and returns the raw response body. A nil body with a
// nil error means the server answered 2xx with no content.
//
// Non-2xx responses return *apperrors.APIError; requests that never got a
// response return *apperrors.NetworkError. Nothing is retried here.
func (c *Client) Do(ctx context.Context, r *Request) (json.RawMessage, error) {
	start := time.Now()
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", r.Path),
		),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.networkFailure(ctx, span, method, r.Path, start, err)
		}
	}

	req, err := c.newHTTPRequest(ctx, method, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, c.networkFailure(ctx, span, method, r.Path, start, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	observeRequest(method, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := ParseResponseError(resp, method, r.Path)
		span.SetStatus(codes.Error, apiErr.Error())
		level := slog.LevelWarn
		if IsClientError(resp.StatusCode) {
			level = slog.LevelDebug
		}
		logger.WithContext(ctx, c.logger).Log(ctx, level, "request rejected",
			slog.String("method", method),
			slog.String("path", r.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("code", apiErr.Code),
			slog.Duration("duration", time.Since(start)),
		)
		return nil, apiErr
	}

	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.networkFailure(ctx, span, method, r.Path, start, fmt.Errorf("read body: %w", err))
	}

	logger.WithContext(ctx, c.logger).Debug("request completed",
		slog.String("method", method),
		slog.String("path", r.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker != nil {
		return c.breaker.do(req, c.httpClient.Do)
	}
	return c.httpClient.Do(req)
}

func (c *Client) networkFailure(ctx context.Context, span trace.Span, method, path string, start time.Time, err error) error {
	netErr := &apperrors.NetworkError{Method: method, Path: path, Err: err}
	span.RecordError(err)
	span.SetStatus(codes.Error, "network error")
	observeRequest(method, "network_error", time.Since(start))
	logger.WithContext(ctx, c.logger).Warn("request failed without response",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	return netErr
}

func (c *Client) newHTTPRequest(ctx context.Context, method string, r *Request) (*http.Request, error) {
	target := c.baseURL.ResolveReference(&url.URL{Path: strings.TrimPrefix(r.Path, "/")})
	if len(r.Query) > 0 {
		target.RawQuery = r.Query.Encode()
	}

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, r.Path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	requestID := logger.CorrelationIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, requestID)

	if !r.NoAuth && c.tokens != nil {
		token, ok, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("read access token: %w", err)
		}
		if ok && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *FilePart:
		return encodeMultipart(b)
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func encodeMultipart(part *FilePart) (io.Reader, string, error) {
	if part.Field == "" {
		return nil, "", errors.New("file part has no field name")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(part.Fields))
	for k := range part.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, part.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name=%q; filename=%q`, part.Field, part.FileName),
	}
	contentType := part.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header["Content-Type"] = []string{contentType}

	fw, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(part.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
