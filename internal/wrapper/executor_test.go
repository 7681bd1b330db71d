// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestExecutor_Success returns the body for a 2xx response.
*/
func TestExecutor_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "value", request.Header.Get("X-Test"))
		_, _ = writer.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	executor := NewExecutor(time.Second, nil)
	body, execErr := executor.Do(context.Background(), &Request{
		Method:  "GET",
		URL:     server.URL,
		Headers: map[string][]string{"X-Test": {"value"}},
	}, 3)

	require.Nil(t, execErr)
	assert.JSONEq(t, `{"ok": true}`, string(body))
}

/*
TestExecutor_HTTPErrorNotRetried terminates immediately on a non-2xx
response with the HTTP taxonomy message.
*/
func TestExecutor_HTTPErrorNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		writer.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	executor := NewExecutor(time.Second, nil)
	_, execErr := executor.Do(context.Background(), &Request{Method: "GET", URL: server.URL}, 3)

	require.NotNil(t, execErr)
	assert.Equal(t, KindHTTP, execErr.Kind)
	assert.Equal(t, "HTTP error: 500 Internal Server Error", execErr.Message)
	assert.EqualValues(t, 1, attempts.Load())
}

/*
TestExecutor_TimeoutRetried retries transport timeouts up to the budget,
then surfaces the timeout taxonomy message.
*/
func TestExecutor_TimeoutRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	executor := NewExecutor(30*time.Millisecond, nil)
	_, execErr := executor.Do(context.Background(), &Request{Method: "GET", URL: server.URL}, 2)

	require.NotNil(t, execErr)
	assert.Equal(t, KindTimeout, execErr.Kind)
	assert.Contains(t, execErr.Message, "Timeout.")
	assert.EqualValues(t, 3, attempts.Load())
}

/*
TestExecutor_ConnectionRefused classifies refused connections without
retrying them.
*/
func TestExecutor_ConnectionRefused(t *testing.T) {
	// Grab a port that is guaranteed to be closed.
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := server.URL
	server.Close()

	executor := NewExecutor(time.Second, nil)
	_, execErr := executor.Do(context.Background(), &Request{Method: "GET", URL: deadURL}, 3)

	require.NotNil(t, execErr)
	assert.Equal(t, KindConnection, execErr.Kind)
	assert.Contains(t, execErr.Message, "Connection error:")
}

/*
TestExecutor_Cancellation aborts between attempts when the caller cancels.
*/
func TestExecutor_Cancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	executor := NewExecutor(5*time.Second, nil)
	_, execErr := executor.Do(ctx, &Request{Method: "GET", URL: server.URL}, 3)

	require.NotNil(t, execErr)
	assert.Contains(t, execErr.Message, "Request error:")
}
