package datepicker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-dob/internal/config"
	"github.com/tartampluch/go-dob/internal/datepicker"
)

func noDelay(uint, error, *retry.Config) time.Duration { return 0 }

func newFetcher() *datepicker.HTTPFetcher {
	f := datepicker.NewHTTPFetcher()
	f.Delay = noDelay
	return f
}

// TestHTTPFetcher_Fetch_Success verifies a complete successful download flow.
func TestHTTPFetcher_Fetch_Success(t *testing.T) {
	expectedBody := "/* nepali date picker */"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, config.UserAgent, r.Header.Get("User-Agent"), "User-Agent mismatch")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(expectedBody))
	}))
	defer ts.Close()

	body, err := newFetcher().Fetch(context.Background(), ts.URL+"/picker.css")

	require.NoError(t, err)
	assert.Equal(t, expectedBody, string(body))
}

// TestHTTPFetcher_Fetch_SizeLimit ensures oversized assets fail instead of being truncated.
func TestHTTPFetcher_Fetch_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"At limit", "0123456789", false},
		{"One byte over", "0123456789A", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			f := newFetcher()
			f.MaxBytes = 10
			body, err := f.Fetch(context.Background(), ts.URL+"/picker.js")

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(body))
				return
			}
			require.Error(t, err)
			assert.Nil(t, body)
			assert.Contains(t, err.Error(), config.ErrResponseTooLarge)
			assert.Equal(t, int32(1), calls.Load(), "Oversized bodies must not be retried")
		})
	}
}

func TestNewHTTPFetcher_Defaults(t *testing.T) {
	f := datepicker.NewHTTPFetcher()
	assert.Equal(t, int64(config.MaxHTTPResponseSize), f.MaxBytes)
	assert.Equal(t, uint(config.FetchAttempts), f.Attempts)
}

// TestHTTPFetcher_Fetch_ClientErrors verifies 4xx responses fail without retrying.
func TestHTTPFetcher_Fetch_ClientErrors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    string
	}{
		{"NotFound", http.StatusNotFound, "404"},
		{"Forbidden", http.StatusForbidden, "403"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.statusCode)
			}))
			defer ts.Close()

			body, err := newFetcher().Fetch(context.Background(), ts.URL)

			require.Error(t, err)
			assert.Nil(t, body)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), config.ErrFetchStatus)
			assert.Equal(t, int32(1), calls.Load(), "Client errors must not be retried")
		})
	}
}

// TestHTTPFetcher_Fetch_RetriesServerErrors checks a flaky CDN eventually succeeds.
func TestHTTPFetcher_Fetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	body, err := newFetcher().Fetch(context.Background(), ts.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPFetcher_Fetch_GivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := newFetcher().Fetch(context.Background(), ts.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(config.FetchAttempts), calls.Load())
}

// TestHTTPFetcher_Fetch_Timeout ensures the client respects context deadlines.
func TestHTTPFetcher_Fetch_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := newFetcher().Fetch(ctx, ts.URL)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "Should return context deadline exceeded error")
}

// TestHTTPFetcher_Fetch_InvalidURL ensures malformed URLs are caught early.
func TestHTTPFetcher_Fetch_InvalidURL(t *testing.T) {
	_, err := newFetcher().Fetch(context.Background(), string([]byte{0x7f}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrInvalidURL)
}

// TestHTTPFetcher_Fetch_ProtocolSecurity enforces HTTP/HTTPS only.
func TestHTTPFetcher_Fetch_ProtocolSecurity(t *testing.T) {
	_, err := newFetcher().Fetch(context.Background(), "file:///etc/passwd")

	require.Error(t, err)
	assert.Contains(t, err.Error(), config.ErrProtocol)
}
