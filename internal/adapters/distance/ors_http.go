package distance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Upstream error bodies are truncated to this many bytes.
const maxErrorBody = 2048

// retryPolicy is exponential backoff capped at MaxDelay. A Retry-After header
// on the failed response overrides the computed delay, still within the cap.
type retryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{Attempts: 4, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
}

func (p retryPolicy) delay(attempt int, hint time.Duration) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if hint > 0 {
		d = hint
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

type upstreamError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("ors status %d: %s", e.Status, e.Body)
}

func (e *upstreamError) transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// postJSON sends payload to endpoint and returns the successful response.
// Network failures, 429 and 5xx are retried; every attempt first waits on the
// provider's rate limiter.
func (o *ORSMatrixProvider) postJSON(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= o.retry.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		resp, err := o.send(ctx, endpoint, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var hint time.Duration
		var ue *upstreamError
		var netErr net.Error
		switch {
		case errors.As(err, &ue):
			if !ue.transient() {
				return nil, err
			}
			hint = ue.RetryAfter
		case errors.As(err, &netErr), errors.Is(err, io.ErrUnexpectedEOF):
		default:
			return nil, err
		}

		if attempt == o.retry.Attempts {
			break
		}

		timer := time.NewTimer(o.retry.delay(attempt, hint))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", o.retry.Attempts, lastErr)
}

func (o *ORSMatrixProvider) send(ctx context.Context, endpoint string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 {
		return resp, nil
	}

	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &upstreamError{
		Status:     resp.StatusCode,
		Body:       strings.TrimSpace(string(b)),
		RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
	}
}

// retryAfter reads a Retry-After header given in seconds. HTTP-date values
// are ignored.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
