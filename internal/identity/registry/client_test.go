package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrine/internal/identity/models"
)

var testClaim = models.Claim{FullName: "Maria da Silva", TaxID: "12345678909", BirthDate: "1990-01-02"}

func newServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL, "test-key", time.Second)
}

func TestVerify_RequestShape(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/tax-id/verify", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12345678909", body["tax_id"])
		assert.Equal(t, "Maria da Silva", body["full_name"])
		assert.Equal(t, "1990-01-02", body["birth_date"])

		_, _ = w.Write([]byte(`{"valid":true,"message":"ok"}`))
	})

	resp, err := client.Verify(context.Background(), testClaim)
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.False(t, resp.LimitReached)
}

func TestVerify_ResponseInterpretation(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantValid     bool
		wantLimit     bool
		wantMessage   string
		wantCategory  ErrorCategory
		wantTransport bool
	}{
		{name: "mismatch", status: 200, body: `{"valid":false,"message":"name does not match"}`, wantMessage: "name does not match"},
		{name: "limit in body", status: 200, body: `{"limit_reached":true,"message":"Daily limit reached"}`, wantLimit: true, wantMessage: "Daily limit reached"},
		{name: "429 is limit reached", status: 429, body: `{"message":"Too many lookups, try tomorrow"}`, wantLimit: true, wantMessage: "Too many lookups, try tomorrow"},
		{name: "malformed body", status: 200, body: `{"valid":`, wantCategory: ErrorContractMismatch, wantTransport: true},
		{name: "missing valid", status: 200, body: `{}`, wantCategory: ErrorContractMismatch, wantTransport: true},
		{name: "outage", status: 503, body: ``, wantCategory: ErrorProviderOutage, wantTransport: true},
		{name: "unexpected status", status: 500, body: `boom`, wantCategory: ErrorProviderOutage, wantTransport: true},
		{name: "auth", status: 401, body: ``, wantCategory: ErrorAuthentication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			resp, err := client.Verify(context.Background(), testClaim)
			if tt.wantCategory != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCategory, GetCategory(err))
				assert.Equal(t, tt.wantTransport, IsTransport(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, resp.Valid)
			assert.Equal(t, tt.wantLimit, resp.LimitReached)
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}

func TestVerify_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := NewHTTPClient(srv.URL, "", 50*time.Millisecond)
	_, err := client.Verify(context.Background(), testClaim)
	require.Error(t, err)
	assert.Equal(t, ErrorTimeout, GetCategory(err))
	assert.True(t, IsTransport(err))
}

func TestVerify_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPClient(url, "", time.Second).Verify(context.Background(), testClaim)
	require.Error(t, err)
	assert.Equal(t, ErrorProviderOutage, GetCategory(err))
}

func TestGetCategory_NonProviderError(t *testing.T) {
	assert.Equal(t, ErrorInternal, GetCategory(assert.AnError))
	assert.False(t, IsTransport(assert.AnError))
}
