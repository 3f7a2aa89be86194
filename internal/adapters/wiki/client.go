// Package wiki talks to Wikipedia and Wikidata over HTTP.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/obituary/pkg/logger"
	"github.com/okian/obituary/pkg/metrics"
)

const maxBodyBytes = 8 << 20

// client is the paced, retrying JSON getter shared by the adapters.
type client struct {
	source string
	http   *http.Client
	opts   options

	mu   sync.Mutex
	last time.Time
}

func newClient(source string, o options) *client {
	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}
	return &client{source: source, http: hc, opts: o}
}

// pace blocks until the fixed delay since the previous call has passed.
func (c *client) pace(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.requestDelay > 0 && !c.last.IsZero() {
		if wait := c.opts.requestDelay - time.Since(c.last); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	c.last = time.Now()
	return nil
}

// getJSON fetches rawURL and decodes the body into v. Network errors, 429
// and 5xx answers are retried with a fixed delay; 404 maps to ErrNotFound
// at once. Exhausted retries are wrapped in ErrUnavailable.
func (c *client) getJSON(ctx context.Context, rawURL, accept string, v any) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.opts.retryDelay), uint64(c.opts.retries)),
		ctx,
	)

	op := func() error {
		if err := c.pace(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return c.do(ctx, rawURL, accept, v)
	}
	notify := func(err error, next time.Duration) {
		metrics.RecordRetry(c.source)
		c.opts.logger.Warn(ctx, "retrying call",
			logger.String("source", c.source),
			logger.Duration("in", next),
			logger.Error(err),
		)
	}

	err := backoff.RetryNotify(op, policy, notify)
	switch {
	case err == nil:
		metrics.RecordExternalCall(c.source, "ok")
		return nil
	case errors.Is(err, ErrNotFound):
		metrics.RecordExternalCall(c.source, "not_found")
		return err
	case errors.Is(err, ErrBadResponse), ctx.Err() != nil:
		metrics.RecordExternalCall(c.source, "error")
		return err
	default:
		metrics.RecordExternalCall(c.source, "error")
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, c.source, err)
	}
}

func (c *client) do(ctx context.Context, rawURL, accept string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.opts.userAgent)
	req.Header.Set("Accept", accept)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ObserveExternalLatency(c.source, float64(time.Since(start).Milliseconds()))
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.opts.logger.Debug(ctx, "failed to close response body", logger.Error(err))
		}
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return backoff.Permanent(ErrNotFound)
	default:
		se := statusError(resp.StatusCode)
		if se.Retryable {
			return se
		}
		return backoff.Permanent(se)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return backoff.Permanent(fmt.Errorf("%w: %w", ErrBadResponse, err))
	}
	return nil
}
