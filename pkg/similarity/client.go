// Package similarity provides a client for the pairwise comparison service
// used to rank competing field values.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/curation-cli/internal/resilience"
)

// Client defines the comparison operations used by the curation engine.
type Client interface {
	// Compare submits a set of values for one field and returns the NxN
	// pairwise similarity matrix, in the same order as values.
	Compare(ctx context.Context, itemID, fieldType string, values []string) ([][]float64, error)
}

// UnavailableError signals the comparison service could not produce a
// matrix; callers degrade to source order rather than failing the session.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "similarity: service unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err indicates the comparison service was
// unreachable or returned an unusable response.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return eris.As(err, &ue)
}

type compareRequest struct {
	ItemID    string   `json:"item_id"`
	FieldType string   `json:"field_type"`
	Values    []string `json:"values"`
}

type compareResponse struct {
	Matrix [][]float64 `json:"matrix"`
}

// Option configures the similarity client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a comparison service client.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Compare(ctx context.Context, itemID, fieldType string, values []string) ([][]float64, error) {
	if len(values) < 2 {
		return nil, eris.Errorf("similarity: need at least 2 values, got %d", len(values))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "similarity: rate limit")
		}
	}

	payload, err := json.Marshal(compareRequest{
		ItemID:    itemID,
		FieldType: fieldType,
		Values:    values,
	})
	if err != nil {
		return nil, eris.Wrap(err, "similarity: marshal request")
	}

	retry := c.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("similarity", "compare")
	}

	matrix, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([][]float64, error) {
		return c.compareOnce(ctx, payload)
	})
	if err != nil {
		if resilience.IsTransient(err) {
			return nil, &UnavailableError{Err: err}
		}
		return nil, err
	}

	if err := validateMatrix(matrix, len(values)); err != nil {
		return nil, &UnavailableError{Err: err}
	}
	return matrix, nil
}

func (c *httpClient) compareOnce(ctx context.Context, payload []byte) ([][]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/compare", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "similarity: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.Transient(eris.Wrap(err, "similarity: request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.Transient(eris.Wrap(err, "similarity: read response"))
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("similarity: status %d: %s", resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.Transient(err)
		}
		return nil, err
	}

	var out compareResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "similarity: unmarshal response")
	}
	return out.Matrix, nil
}

func validateMatrix(m [][]float64, n int) error {
	if len(m) != n {
		return eris.Errorf("similarity: expected %dx%d matrix, got %d rows", n, n, len(m))
	}
	for i, row := range m {
		if len(row) != n {
			return eris.Errorf("similarity: row %d has %d columns, want %d", i, len(row), n)
		}
	}
	return nil
}
