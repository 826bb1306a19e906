package datepicker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/avast/retry-go/v4"
	"github.com/tartampluch/go-dob/internal/config"
)

// AssetFetcher retrieves a stylesheet or script by URL.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher implements AssetFetcher over net/http with retries on transient failures.
type HTTPFetcher struct {
	Client   *http.Client
	Attempts uint
	Delay    retry.DelayTypeFunc
	MaxBytes int64 // Largest accepted body; bigger assets fail instead of being cut off.
}

// NewHTTPFetcher creates a new instance of HTTPFetcher with configured timeouts.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		Attempts: config.FetchAttempts,
		Delay:    retry.BackOffDelay,
		MaxBytes: config.MaxHTTPResponseSize,
	}
}

var errTooLarge = errors.New(config.ErrResponseTooLarge)

// errStatus marks a non-200 response; 5xx responses are retried, others are not.
type errStatus struct {
	code   int
	status string
}

func (e *errStatus) Error() string {
	return fmt.Sprintf("%s: %d %s", config.ErrFetchStatus, e.code, e.status)
}

// Fetch downloads targetURL. Bodies larger than MaxBytes are rejected.
func (f *HTTPFetcher) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	// Parse the URL to validate it and sanitize it for logs.
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}
	// Assets are only ever loaded over HTTP or HTTPS.
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	// Query parameters are dropped from logs.
	safeURL := u.Scheme + "://" + u.Host + u.Path
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompFetcher),
		slog.String(config.LogKeyURL, safeURL),
	)

	// A zero Attempts still makes one request.
	attempts := f.Attempts
	if attempts == 0 {
		attempts = 1
	}
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(config.FetchRetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn(config.MsgAssetRetry,
				slog.Uint64(config.LogKeyAttempt, uint64(n+1)),
				slog.Any(config.LogKeyError, err),
			)
		}),
	}
	if f.Delay != nil {
		opts = append(opts, retry.DelayType(f.Delay))
	}

	return retry.DoWithData(func() ([]byte, error) {
		body, err := f.get(ctx, targetURL, log)
		if err == nil {
			return body, nil
		}
		// Only network failures and 5xx responses are worth another attempt.
		var se *errStatus
		if ctx.Err() != nil || errors.Is(err, errTooLarge) ||
			(errors.As(err, &se) && se.code < http.StatusInternalServerError) {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}, opts...)
}

func (f *HTTPFetcher) get(ctx context.Context, targetURL string, log *slog.Logger) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Use the centralized User-Agent string from config.
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error during fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Warn(config.MsgFetchStatus, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, &errStatus{code: resp.StatusCode, status: resp.Status}
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = config.MaxHTTPResponseSize
	}

	// Read one byte past the limit so a truncated script is never installed.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: %d bytes", errTooLarge, limit)
	}
	return body, nil
}
