// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// # HTTP Execution Policy

const (
	// defaultAttemptTimeout bounds a single HTTP attempt. The total call
	// is therefore bounded by (maxRetries + 1) * defaultAttemptTimeout.
	defaultAttemptTimeout = 10 * time.Second

	// defaultProviderRPS is the outbound request budget of one Executor,
	// shared by every wrapper that calls through it.
	// Bibliographic APIs are strict about bursts, so stay conservative.
	defaultProviderRPS   = 5
	defaultProviderBurst = 5
)

// Executor performs provider HTTP calls with the uniform retry and error
// policy: transport timeouts retry up to the wrapper's budget, everything
// else terminates immediately with a classified [*Error].
//
// An Executor is safe for concurrent use; the rate limiter serializes the
// outbound budget across goroutines.
type Executor struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewExecutor builds an executor with a per-attempt timeout and an
// outbound rate budget. A zero timeout selects the default.
func NewExecutor(attemptTimeout time.Duration, logger *slog.Logger) *Executor {
	if attemptTimeout <= 0 {
		attemptTimeout = defaultAttemptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		client:  &http.Client{Timeout: attemptTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultProviderRPS), defaultProviderBurst),
		logger:  logger,
	}
}

// Do executes the request with up to maxRetries+1 attempts.
//
// Only transport timeouts are retried. Cancelling the context aborts the
// in-flight request and short-circuits the retry loop between attempts.
// The response body is returned for any 2xx status; every other outcome
// maps onto the taxonomy in errors.go.
func (e *Executor) Do(ctx context.Context, request *Request, maxRetries int) ([]byte, *Error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastTimeout error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Respect the outbound budget before every attempt. Wait returns
		// early when the context is cancelled.
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, RequestError(err)
		}

		body, execErr := e.attempt(ctx, request)
		if execErr == nil {
			return body, nil
		}

		if execErr.Kind != KindTimeout {
			return nil, execErr
		}

		lastTimeout = execErr.Cause
		e.logger.Warn("provider_request_timeout",
			slog.String("url", request.URL),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1),
		)

		// Cancellation between attempts ends the loop immediately.
		if ctx.Err() != nil {
			return nil, RequestError(ctx.Err())
		}
	}

	return nil, TimeoutError(lastTimeout)
}

// attempt performs a single HTTP round trip and classifies its outcome.
func (e *Executor) attempt(ctx context.Context, request *Request) ([]byte, *Error) {
	var bodyReader io.Reader
	if request.Body != nil {
		bodyReader = bytes.NewReader(request.Body)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.Method, request.URL, bodyReader)
	if err != nil {
		return nil, RequestError(err)
	}
	for key, values := range request.Headers {
		for _, value := range values {
			httpRequest.Header.Add(key, value)
		}
	}

	response, err := e.client.Do(httpRequest)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer func() { _ = response.Body.Close() }()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, RequestError(err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, HTTPError(response.StatusCode, http.StatusText(response.StatusCode))
	}

	return payload, nil
}

// classifyTransport maps a transport error onto the taxonomy.
func classifyTransport(ctx context.Context, err error) *Error {
	// A cancelled context is the caller's decision, not a provider fault.
	if ctx.Err() != nil {
		return RequestError(ctx.Err())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "timeout", Cause: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ConnectionError(err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ConnectionError(err)
	}

	return RequestError(err)
}
