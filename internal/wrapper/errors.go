// Copyright (c) 2026 SLRHub. All rights reserved.
// Author: engineering@slrhub.io

package wrapper

import "fmt"

// # Error Taxonomy

// Kind classifies a wrapper failure.
//
// The taxonomy is surfaced to clients exclusively through the error string
// of an invalid [search.Envelope]; wrapper calls never panic and CallAPI
// never returns a Go error.
type Kind int

const (
	// KindUnknown is the fallback classification.
	KindUnknown Kind = iota

	// KindBadConfig marks an illegal result format or collection.
	KindBadConfig

	// KindBadQuery marks an untranslatable canonical query: unsupported
	// field, OR-NOT combination, empty group or empty value.
	KindBadQuery

	// KindHTTP marks a non-2xx provider response. Never retried.
	KindHTTP

	// KindConnection marks DNS failures and refused connections. Never retried.
	KindConnection

	// KindTimeout marks a transport timeout. Retried up to MaxRetries.
	KindTimeout

	// KindUnimplemented marks a known but unsupported collection.
	KindUnimplemented
)

// Error is the canonical wrapper error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// # Constructors
//
// The message formats mirror the strings clients have historically matched
// on, so they are part of the external contract.

// BadConfig reports an illegal configuration value.
func BadConfig(format string, args ...any) *Error {
	return &Error{Kind: KindBadConfig, Message: fmt.Sprintf(format, args...)}
}

// BadQuery reports an untranslatable query.
func BadQuery(format string, args ...any) *Error {
	return &Error{Kind: KindBadQuery, Message: fmt.Sprintf(format, args...)}
}

// HTTPError reports a non-2xx provider response.
func HTTPError(statusCode int, status string) *Error {
	return &Error{
		Kind:    KindHTTP,
		Message: fmt.Sprintf("HTTP error: %d %s", statusCode, status),
	}
}

// ConnectionError reports a DNS failure or refused connection.
func ConnectionError(cause error) *Error {
	return &Error{
		Kind:    KindConnection,
		Message: fmt.Sprintf("Connection error: %v. Name or service not known.", cause),
		Cause:   cause,
	}
}

// TimeoutError reports an exhausted retry budget on transport timeouts.
func TimeoutError(cause error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("Connection error: %v. Timeout.", cause),
		Cause:   cause,
	}
}

// RequestError reports any other request-level failure, including
// translation failures surfaced through CallAPI.
func RequestError(cause error) *Error {
	return &Error{
		Kind:    KindUnknown,
		Message: fmt.Sprintf("Request error: %v", cause),
		Cause:   cause,
	}
}

// UnknownCollection reports a collection the wrapper has never heard of.
func UnknownCollection(collection string) *Error {
	return &Error{
		Kind:    KindBadConfig,
		Message: fmt.Sprintf("Unknown collection %s", collection),
	}
}

// UnimplementedCollection reports a collection that is recognized but has
// no request or normalization path yet.
func UnimplementedCollection(collection string) *Error {
	return &Error{
		Kind:    KindUnimplemented,
		Message: fmt.Sprintf("Unimplemented collection %s", collection),
	}
}
