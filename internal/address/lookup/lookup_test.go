package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vitrine/pkg/domain-errors"
	"vitrine/pkg/platform/sentinel"
)

func TestNormalizePostalCode(t *testing.T) {
	code, err := NormalizePostalCode("01310-100")
	require.NoError(t, err)
	assert.Equal(t, "01310100", code)

	for _, raw := range []string{"", "0131010", "013101000", "abcdefgh"} {
		_, err := NormalizePostalCode(raw)
		assert.ErrorIs(t, err, ErrMalformedPostalCode, raw)
	}
}

func TestHTTPClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/postal-codes/01310100":
			_, _ = w.Write([]byte(`{"street":"Avenida Paulista","neighborhood":"Bela Vista","city":"São Paulo","state":"sp"}`))
		case "/v1/postal-codes/99999999":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()
	client := NewHTTPClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		addr, err := client.Lookup(ctx, "01310-100")
		require.NoError(t, err)
		assert.Equal(t, &Address{Street: "Avenida Paulista", Neighborhood: "Bela Vista", City: "São Paulo", State: "SP"}, addr)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := client.Lookup(ctx, "99999-999")
		assert.ErrorIs(t, err, ErrPostalCodeNotFound)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("malformed never calls the service", func(t *testing.T) {
		_, err := client.Lookup(ctx, "123")
		assert.ErrorIs(t, err, ErrMalformedPostalCode)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		_, err := client.Lookup(ctx, "11111111")
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}

func TestMemoryCache_TTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "01310100", &Address{City: "São Paulo"}))
	got, err := c.Get(ctx, "01310100")
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", got.City)

	now = now.Add(time.Hour)
	_, err = c.Get(ctx, "01310100")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

type countingSource struct {
	calls atomic.Int32
	addr  *Address
	err   error
}

func (s *countingSource) Lookup(context.Context, string) (*Address, error) {
	s.calls.Add(1)
	return s.addr, s.err
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (*Address, error) { return nil, errors.New("conn reset") }
func (brokenCache) Set(context.Context, string, *Address) error   { return errors.New("conn reset") }

func TestCached_ReadThrough(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		src := &countingSource{addr: &Address{Street: "Rua A"}}
		c := NewCached(src, NewMemoryCache(time.Hour), nil, nil)

		for range 2 {
			addr, err := c.Lookup(ctx, "01310-100")
			require.NoError(t, err)
			assert.Equal(t, "Rua A", addr.Street)
		}
		assert.Equal(t, int32(1), src.calls.Load())
	})

	t.Run("not found is not cached", func(t *testing.T) {
		src := &countingSource{err: ErrPostalCodeNotFound}
		c := NewCached(src, NewMemoryCache(time.Hour), nil, nil)
		for range 2 {
			_, err := c.Lookup(ctx, "99999999")
			assert.ErrorIs(t, err, ErrPostalCodeNotFound)
		}
		assert.Equal(t, int32(2), src.calls.Load())
	})

	t.Run("cache failure falls through to source", func(t *testing.T) {
		src := &countingSource{addr: &Address{Street: "Rua B"}}
		addr, err := NewCached(src, brokenCache{}, nil, nil).Lookup(ctx, "01310100")
		require.NoError(t, err)
		assert.Equal(t, "Rua B", addr.Street)
	})
}
