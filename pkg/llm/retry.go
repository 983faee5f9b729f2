package llm

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"time"
)

const (
	maxRetries     = 3
	retryBaseDelay = 100 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

func retryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// doWithRetry executes an HTTP request with exponential backoff on transient
// errors and rate limits. The build function is invoked per attempt so the
// request body is fresh each time.
func doWithRetry(ctx context.Context, client *http.Client, build func() (*http.Request, error)) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(retryBaseDelay) * math.Pow(2, float64(attempt-1)))
			if delay > retryMaxDelay {
				delay = retryMaxDelay
			}
			// Add jitter to prevent thundering herd
			delay += time.Duration(float64(delay) * 0.1 * (2*rand.Float64() - 1))

			select {
			case <-ctx.Done():
				return lastResp, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		lastResp = resp
		lastErr = err

		if err == nil && resp != nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		// Don't retry on the last attempt
		if attempt == maxRetries {
			break
		}

		// Close response body if we're going to retry
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
	}

	return lastResp, lastErr
}
