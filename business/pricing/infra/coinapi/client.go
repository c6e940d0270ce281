package coinapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/cycle-arb/internal/apperror"
	"github.com/fd1az/cycle-arb/internal/httpclient"
)

const (
	// DefaultBaseURL is the public CoinAPI REST endpoint.
	DefaultBaseURL = "https://rest.coinapi.io"

	apiKeyHeader = "X-CoinAPI-Key"
	httpTimeout  = 10 * time.Second
)

// ExchangeRateResponse is the body of /v1/exchangerate/{base}/{quote}.
type ExchangeRateResponse struct {
	Time       time.Time       `json:"time"`
	AssetBase  string          `json:"asset_id_base"`
	AssetQuote string          `json:"asset_id_quote"`
	Rate       decimal.Decimal `json:"rate"`
}

// APIError is CoinAPI's error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coinapi error %d: %s", e.Status, e.Message)
}

// client is the thin REST layer under Provider.
type client struct {
	http *httpclient.InstrumentedClient
}

func newClient(baseURL, apiKey string, timeout time.Duration, tracer trace.Tracer) (*client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = httpTimeout
	}

	hc, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("coinapi"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(tracer),
		httpclient.WithHeaders(map[string]string{
			"Accept":     "application/json",
			apiKeyHeader: apiKey,
		}),
		httpclient.WithRedactedHeaders(apiKeyHeader),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &client{http: hc}, nil
}

// exchangeRate fetches base/quote as reported by a single exchange.
func (c *client) exchangeRate(ctx context.Context, exchange, base, quote string) (*ExchangeRateResponse, error) {
	var result ExchangeRateResponse
	_, err := c.http.NewRequestWithOptions(
		httpclient.WithLabels(
			httpclient.NewLabel("endpoint", "exchangerate"),
			httpclient.NewLabel("exchange", exchange),
		),
		httpclient.WithResponseErrorHandler(errorHandler),
	).
		SetQueryParam("exchange", exchange).
		SetResult(&result).
		Get(ctx, fmt.Sprintf("/v1/exchangerate/%s/%s", base, quote))
	if err != nil {
		return nil, classify(err, exchange)
	}

	return &result, nil
}

func errorHandler(statusCode int, body []byte) error {
	if statusCode < http.StatusBadRequest {
		return nil
	}
	apiErr := &APIError{Status: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

func classify(err error, exchange string) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return apperror.New(apperror.CodeCoinAPIError,
			apperror.WithCause(err),
			apperror.WithContext(exchange),
			apperror.WithRetryable(true))
	}

	switch {
	case apiErr.Status == http.StatusTooManyRequests:
		return apperror.New(apperror.CodeCoinAPIRateLimited,
			apperror.WithCause(err),
			apperror.WithContext(exchange))
	case apiErr.Status >= http.StatusInternalServerError:
		return apperror.New(apperror.CodeCoinAPIError,
			apperror.WithCause(err),
			apperror.WithContext(exchange),
			apperror.WithRetryable(true))
	default:
		return apperror.New(apperror.CodeCoinAPIError,
			apperror.WithCause(err),
			apperror.WithContext(exchange),
			apperror.WithRetryable(false))
	}
}
