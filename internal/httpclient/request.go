package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes a single HTTP call.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
}

// Response wraps http.Response with the already-read body.
type Response struct {
	*http.Response
	body []byte
}

// Body returns the response body as bytes.
func (r *Response) Body() []byte {
	return r.body
}

// String returns the response body as string.
func (r *Response) String() string {
	return string(r.body)
}

// IsError returns true if the status code indicates an error (>= 400).
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

type requestBuilder struct {
	c            *InstrumentedClient
	headers      map[string]string
	query        url.Values
	body         any
	result       any
	errorHandler ResponseErrorHandler
	labels       []*Label
}

func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

// SetBody sets the request body. Values other than []byte, string or
// io.Reader are JSON encoded.
func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetResult sets the target for JSON decoding of a successful response.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) buildURL(path string) string {
	full := path
	if r.c.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = strings.TrimSuffix(r.c.baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + r.query.Encode()
	}
	return full
}

func (r *requestBuilder) bodyReader() (io.Reader, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		return bytes.NewReader(raw), nil
	}
}

func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	fullURL := r.buildURL(path)

	ctx, span := r.c.tracer.Start(ctx, "http.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
			attribute.String("provider", r.c.providerName),
		),
	)
	defer span.End()

	body, err := r.bodyReader()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create request")
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	r.logHeaders(span, req.Header)

	resp, err := r.c.client.Do(req)
	if err != nil {
		r.recordError(ctx, span, err)
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		r.recordError(ctx, span, err)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	response := &Response{Response: resp, body: raw}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if r.errorHandler != nil {
		if handlerErr := r.errorHandler(resp.StatusCode, raw); handlerErr != nil {
			span.SetStatus(codes.Error, handlerErr.Error())
			r.recordMetrics(ctx, resp.StatusCode, false)
			return response, handlerErr
		}
	}

	if r.result != nil && !response.IsError() && len(raw) > 0 {
		if err := json.Unmarshal(raw, r.result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode response")
			r.recordMetrics(ctx, resp.StatusCode, false)
			return response, fmt.Errorf("decode response: %w", err)
		}
	}

	r.recordMetrics(ctx, resp.StatusCode, !response.IsError())

	return response, nil
}

func (r *requestBuilder) recordError(ctx context.Context, span trace.Span, err error) {
	span.RecordError(err)

	var netErr net.Error
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.recordMetrics(ctx, 0, false)
}

func (r *requestBuilder) recordMetrics(ctx context.Context, status int, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.c.providerName),
		attribute.Bool("success", success),
		attribute.Int("status", status),
	}

	for _, label := range r.labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}

	r.c.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (r *requestBuilder) logHeaders(span trace.Span, headers http.Header) {
	if !span.IsRecording() || len(headers) == 0 {
		return
	}

	redacted := make(map[string]bool, len(r.c.redactedHeaders))
	for _, h := range r.c.redactedHeaders {
		redacted[strings.ToLower(h)] = true
	}

	attrs := make([]attribute.KeyValue, 0, len(headers))
	for k := range headers {
		key := strings.ToLower(k)
		val := headers.Get(k)
		if redacted[key] {
			val = "*****"
		}
		attrs = append(attrs, attribute.String("http.request.header."+key, val))
	}

	span.AddEvent("request.headers", trace.WithAttributes(attrs...))
}
