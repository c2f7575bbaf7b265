package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickClient(maxRetries int) Client {
	return New(Options{
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		RateLimitDelay: 5 * time.Millisecond,
	})
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "value", r.Header.Get("X-Custom"))
		fmt.Fprint(w, "payload")
	}))
	defer srv.Close()

	resp, err := quickClient(3).Get(context.Background(), srv.URL, map[string]string{"X-Custom": "value"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "payload", string(resp.Body()))
}

func TestGetRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer srv.Close()

	resp, err := quickClient(5).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(resp.Body()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := quickClient(2).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

func TestGetNonRetriableStatusReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	// 404 is not retried; it is the caller's decision what to do with it.
	resp, err := quickClient(3).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestGetHonorsCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quickClient(3).Get(ctx, srv.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
