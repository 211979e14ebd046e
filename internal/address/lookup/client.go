package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/platform/sentinel"
)

// HTTPClient calls GET {base}/v1/postal-codes/{code}.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type HTTPClientOption func(*HTTPClient)

func WithHTTPClient(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = client
	}
}

func NewHTTPClient(baseURL string, timeout time.Duration, opts ...HTTPClientOption) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c := &HTTPClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type addressResponse struct {
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

func (c *HTTPClient) Lookup(ctx context.Context, postalCode string) (*Address, error) {
	code, err := NormalizePostalCode(postalCode)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/postal-codes/"+code, nil)
	if err != nil {
		return nil, fmt.Errorf("create postal lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "postal lookup timed out")
		}
		return nil, fmt.Errorf("postal lookup: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, dErrors.Wrap(ErrPostalCodeNotFound, dErrors.CodeNotFound, "postal code not found")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, dErrors.Wrap(ErrMalformedPostalCode, dErrors.CodeValidation, "postal code must have 8 digits")
	default:
		return nil, fmt.Errorf("postal lookup status %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var body addressResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode postal lookup: %w: %w", sentinel.ErrUnavailable, err)
	}
	return &Address{
		Street:       strings.TrimSpace(body.Street),
		Neighborhood: strings.TrimSpace(body.Neighborhood),
		City:         strings.TrimSpace(body.City),
		State:        strings.ToUpper(strings.TrimSpace(body.State)),
	}, nil
}
