// Package registry is the HTTP client for the external tax-ID registry.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vitrine/internal/identity/models"
)

const providerID = "tax-registry"

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 64 << 10

// Response is the registry's verdict for a claim.
type Response struct {
	Valid        bool
	Message      string
	LimitReached bool
}

type verifyRequest struct {
	TaxID     string `json:"tax_id"`
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date"`
}

type verifyResponse struct {
	Valid        *bool  `json:"valid"`
	Message      string `json:"message"`
	LimitReached bool   `json:"limit_reached"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HTTPClient calls POST {base}/v1/tax-id/verify.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

type HTTPClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, opts ...HTTPClientOption) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify submits a claim. HTTP 429 is reported as a Response with
// LimitReached set, not as an error; every other failure is a *ProviderError.
func (c *HTTPClient) Verify(ctx context.Context, claim models.Claim) (*Response, error) {
	reqBody, err := json.Marshal(verifyRequest{
		TaxID:     claim.TaxID,
		FullName:  claim.FullName,
		BirthDate: claim.BirthDate,
	})
	if err != nil {
		return nil, NewProviderError(ErrorInternal, providerID, "failed to marshal request", err)
	}

	url := c.baseURL + "/v1/tax-id/verify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, NewProviderError(ErrorInternal, providerID, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
			return nil, NewProviderError(ErrorTimeout, providerID, "request timeout", err)
		}
		return nil, NewProviderError(ErrorProviderOutage, providerID, "failed to execute request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewProviderError(ErrorTimeout, providerID, "request timeout", err)
		}
		return nil, NewProviderError(ErrorBadData, providerID, "failed to read response body", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return &Response{LimitReached: true, Message: messageFrom(body)}, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, NewProviderError(ErrorAuthentication, providerID,
			fmt.Sprintf("authentication failed: %d", resp.StatusCode), nil)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, NewProviderError(ErrorBadData, providerID, "registry rejected request: "+messageFrom(body), nil)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return nil, NewProviderError(ErrorProviderOutage, providerID,
			fmt.Sprintf("provider unavailable: %d", resp.StatusCode), nil)
	default:
		return nil, NewProviderError(ErrorProviderOutage, providerID,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, NewProviderError(ErrorContractMismatch, providerID, "failed to parse response", err)
	}
	if parsed.LimitReached {
		return &Response{LimitReached: true, Message: parsed.Message}, nil
	}
	if parsed.Valid == nil {
		return nil, NewProviderError(ErrorContractMismatch, providerID, "response missing valid field", nil)
	}
	return &Response{Valid: *parsed.Valid, Message: parsed.Message}, nil
}

func messageFrom(body []byte) string {
	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		if er.Message != "" {
			return er.Message
		}
		if er.Error != "" {
			return er.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
