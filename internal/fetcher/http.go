package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/windcover/internal/resilience"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	RateLimiters map[string]*AdaptiveLimiter
	// Retry overrides the backoff schedule. MaxRetries wins over Retry.MaxAttempts.
	Retry *resilience.RetryConfig
}

// AdaptiveLimiter wraps a rate.Limiter that speeds up by 20% on success (up
// to 2x initial) and halves on 429 (down to initial/4).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		maxRate:     initialRate * 2,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// Wait blocks until the limiter allows an event.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// OnSuccess raises the rate.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentRate = min(a.currentRate*1.2, a.maxRate)
	a.limiter.SetLimit(a.currentRate)
}

// OnRateLimit halves the rate.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentRate = max(a.currentRate*0.5, a.minRate)
	a.limiter.SetLimit(a.currentRate)
	zap.L().Warn("adaptive rate limit: reducing rate after 429",
		zap.Float64("new_rate", float64(a.currentRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

// DefaultRateLimiters returns limiters for the weather APIs windcover calls.
// Open-Meteo's free tier allows roughly 10 requests per second.
func DefaultRateLimiters() map[string]*AdaptiveLimiter {
	return map[string]*AdaptiveLimiter{
		"api.open-meteo.com":         NewAdaptiveLimiter(8, 8),
		"archive-api.open-meteo.com": NewAdaptiveLimiter(5, 5),
	}
}

// HTTPFetcher implements Fetcher with per-host rate limiting, retry on
// transient failures and a circuit breaker per host.
type HTTPFetcher struct {
	client   *http.Client
	opts     HTTPOptions
	retry    resilience.RetryConfig
	limiters map[string]*AdaptiveLimiter
	fallback *rate.Limiter

	mu       sync.Mutex
	breakers map[string]*resilience.CircuitBreaker
}

// NewHTTPFetcher creates a new HTTPFetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "windcover/1.0"
	}
	if opts.RateLimiters == nil {
		opts.RateLimiters = DefaultRateLimiters()
	}

	retry := resilience.DefaultRetryConfig()
	if opts.Retry != nil {
		retry = *opts.Retry
	}
	retry.MaxAttempts = opts.MaxRetries

	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		retry:    retry,
		limiters: opts.RateLimiters,
		fallback: rate.NewLimiter(20, 20),
		breakers: make(map[string]*resilience.CircuitBreaker),
	}
}

func (f *HTTPFetcher) breakerFor(host string) *resilience.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := f.breakers[host]
	if !ok {
		cb = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:       host,
			ShouldTrip: resilience.IsTransient,
		})
		f.breakers[host] = cb
	}
	return cb
}

func (f *HTTPFetcher) wait(ctx context.Context, host string) (*AdaptiveLimiter, error) {
	lim, ok := f.limiters[host]
	var err error
	if ok {
		err = lim.Wait(ctx)
	} else {
		err = f.fallback.Wait(ctx)
	}
	if err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}
	return lim, nil
}

// do performs one attempt. 429 and 5xx responses become transient errors so
// the retry loop and breaker treat them alike.
func (f *HTTPFetcher) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	adaptive, err := f.wait(ctx, req.URL.Host)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req.Clone(ctx))
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests && adaptive != nil {
			adaptive.OnRateLimit()
		}
		return nil, resilience.FromResponse(
			eris.Errorf("http %d from %s", resp.StatusCode, req.URL.String()), resp, time.Now())
	}

	if adaptive != nil {
		adaptive.OnSuccess()
	}
	return resp, nil
}

func (f *HTTPFetcher) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	cfg := f.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(req.URL.Host, req.Method+" "+req.URL.Path)
	}
	cb := f.breakerFor(req.URL.Host)

	resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*http.Response, error) {
		return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (*http.Response, error) {
			return f.do(ctx, req)
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "all retries exhausted")
	}
	return resp, nil
}

// Download fetches the URL and returns the response body.
func (f *HTTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "application/json, text/csv, */*")

	resp, err := f.doWithRetry(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "download")
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("download: unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// DownloadToFile fetches the URL and writes it to path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck
	return copyToFile(body, path)
}

// GetJSON downloads rawURL with query params and decodes the body into T.
func GetJSON[T any](ctx context.Context, f Fetcher, rawURL string, params url.Values) (*T, error) {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	body, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return DecodeJSON[T](body)
}
